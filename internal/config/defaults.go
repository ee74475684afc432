package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/hugo-lorenzo-mato/corrector/internal/fsutil"
)

// DefaultConfigYAML is written by `corrector init`.
const DefaultConfigYAML = `# corrector configuration
#
# Every key can be overridden with an environment variable, e.g.
# CORRECTOR_STORE_BACKEND=file. Values not specified here use defaults.

log:
  level: info         # debug | info | warn | error
  format: auto        # auto | text | json
  # file: .corrector/corrector.log

store:
  backend: sqlite     # sqlite | file | memory
  path: .corrector/corrector.db
  # For the file backend, path is a directory and format is yaml or toml.
  # watch reloads open sessions when files are edited by hand.
  format: yaml
  watch: false

server:
  host: 127.0.0.1
  port: 8787
  cors_origins:
    - http://localhost:5173
  shutdown_timeout: 10s

autosave:
  enabled: true
  delay: 1500ms

detect:
  min_confidence: 0.4
  max_text_bytes: 4194304
`

// ErrConfigExists is returned by WriteDefault when the file is present.
var ErrConfigExists = errors.New("config file already exists")

// WriteDefault writes DefaultConfigYAML to path. An existing file is kept
// unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s: %w", path, ErrConfigExists)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("checking config: %w", err)
		}
	}
	if err := fsutil.WriteFileAtomic(path, []byte(DefaultConfigYAML), 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
