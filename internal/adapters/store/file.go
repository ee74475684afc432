package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/hugo-lorenzo-mato/corrector/internal/core"
	"github.com/hugo-lorenzo-mato/corrector/internal/fsutil"
	"github.com/hugo-lorenzo-mato/corrector/internal/layer"
	"github.com/hugo-lorenzo-mato/corrector/internal/logging"
	"github.com/hugo-lorenzo-mato/corrector/internal/schema"
)

// File formats.
const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// maxStoreFileSize bounds a single stored file.
const maxStoreFileSize = 1 << 20

const (
	documentsDir = "documents"
	typesDir     = "types"
	subtypesDir  = "subtypes"
)

// documentFile is the on-disk form of a document: metadata at the top level
// and its customizations under "layer".
type documentFile struct {
	Document `yaml:",inline"`
	Layer    layerData `json:"layer" yaml:"layer,omitempty" toml:"layer"`
}

// FileRepository stores one YAML or TOML file per scope under a root
// directory:
//
//	documents/<id>.yaml
//	types/<TYPE>.yaml
//	subtypes/<SUBTYPE>.yaml
type FileRepository struct {
	root   string
	format string
	schema *schema.Schema
	logger *logging.Logger
	mu     sync.Mutex
}

// FileOption configures the repository.
type FileOption func(*FileRepository)

// WithFormat selects yaml or toml. Empty keeps yaml.
func WithFormat(format string) FileOption {
	return func(r *FileRepository) {
		if format != "" {
			r.format = strings.ToLower(format)
		}
	}
}

// WithFileSchema sets the schema stored layers are validated against.
func WithFileSchema(s *schema.Schema) FileOption {
	return func(r *FileRepository) {
		r.schema = s
	}
}

// WithFileLogger sets the logger used by Watch.
func WithFileLogger(l *logging.Logger) FileOption {
	return func(r *FileRepository) {
		r.logger = l
	}
}

// NewFileRepository creates the directory layout under root.
func NewFileRepository(root string, opts ...FileOption) (*FileRepository, error) {
	r := &FileRepository{
		root:   root,
		format: FormatYAML,
		schema: schema.Correction(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.format != FormatYAML && r.format != FormatTOML {
		return nil, fmt.Errorf("unknown store format %q", r.format)
	}
	for _, dir := range r.dirs() {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}
	return r, nil
}

func (r *FileRepository) dirs() []string {
	return []string{
		filepath.Join(r.root, documentsDir),
		filepath.Join(r.root, typesDir),
		filepath.Join(r.root, subtypesDir),
	}
}

func (r *FileRepository) ext() string {
	return "." + r.format
}

func (r *FileRepository) documentPath(id string) string {
	return filepath.Join(r.root, documentsDir, id+r.ext())
}

func (r *FileRepository) layerPath(scope core.Scope) string {
	switch scope.Kind() {
	case core.ScopeDocument:
		return r.documentPath(scope.DocumentID)
	case core.ScopeSubtype:
		return filepath.Join(r.root, subtypesDir, scope.SubtypeCode+r.ext())
	default:
		return filepath.Join(r.root, typesDir, scope.TypeCode+r.ext())
	}
}

// ScopeForPath maps a stored file back to the scope it holds.
func (r *FileRepository) ScopeForPath(path string) (core.Scope, bool) {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || filepath.Ext(base) != r.ext() {
		return core.Scope{}, false
	}
	name := strings.TrimSuffix(base, r.ext())
	switch filepath.Base(filepath.Dir(path)) {
	case documentsDir:
		return core.DocumentScope(name), true
	case typesDir:
		return core.TypeScope(name, ""), true
	case subtypesDir:
		parent, _, ok := strings.Cut(name, "_")
		if !ok {
			return core.Scope{}, false
		}
		return core.TypeScope(parent, name), true
	}
	return core.Scope{}, false
}

func (r *FileRepository) marshal(v any) ([]byte, error) {
	if r.format == FormatTOML {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(v); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return yaml.Marshal(v)
}

func (r *FileRepository) unmarshal(data []byte, v any) error {
	if r.format == FormatTOML {
		_, err := toml.Decode(string(data), v)
		return err
	}
	return yaml.Unmarshal(data, v)
}

// read decodes path into v. It reports false when the file does not exist.
func (r *FileRepository) read(path string, v any) (bool, error) {
	data, err := fsutil.ReadFileLimited(path, maxStoreFileSize)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := r.unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", path, err)
	}
	return true, nil
}

func (r *FileRepository) write(path string, v any) error {
	data, err := r.marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o640); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func (r *FileRepository) readDocument(id string) (documentFile, bool, error) {
	var f documentFile
	ok, err := r.read(r.documentPath(id), &f)
	if ok && f.ID == "" {
		f.ID = id
	}
	return f, ok, err
}

func (r *FileRepository) GetDocument(_ context.Context, id string) (Document, error) {
	if err := ValidateDocumentID(id); err != nil {
		return Document{}, err
	}
	f, ok, err := r.readDocument(id)
	if err != nil {
		return Document{}, err
	}
	if !ok {
		return Document{}, core.ErrNotFound("document", id)
	}
	return f.Document, nil
}

func (r *FileRepository) PutDocument(_ context.Context, doc Document) error {
	if err := ValidateDocumentID(doc.ID); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	f, _, err := r.readDocument(doc.ID)
	if err != nil {
		return err
	}
	doc.UpdatedAt = time.Now().UTC().Truncate(time.Second)
	f.Document = doc
	return r.write(r.documentPath(doc.ID), f)
}

func (r *FileRepository) ListDocuments(_ context.Context) ([]Document, error) {
	matches, err := filepath.Glob(filepath.Join(r.root, documentsDir, "*"+r.ext()))
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	sort.Strings(matches)
	out := make([]Document, 0, len(matches))
	for _, path := range matches {
		scope, ok := r.ScopeForPath(path)
		if !ok {
			continue
		}
		f, found, err := r.readDocument(scope.DocumentID)
		if err != nil {
			return nil, err
		}
		if found {
			out = append(out, f.Document)
		}
	}
	return out, nil
}

func (r *FileRepository) LoadLayer(_ context.Context, scope core.Scope) (*layer.Layer, error) {
	data, ok, err := r.loadData(scope)
	if err != nil || !ok {
		return nil, err
	}
	l, err := decodeLayer(r.schema, LayerName(scope), data)
	if err != nil {
		return nil, fmt.Errorf("decoding layer %s: %w", scope, err)
	}
	if l.IsEmpty() {
		return nil, nil
	}
	return l, nil
}

func (r *FileRepository) loadData(scope core.Scope) (layerData, bool, error) {
	if scope.Kind() == core.ScopeDocument {
		if err := ValidateDocumentID(scope.DocumentID); err != nil {
			return layerData{}, false, err
		}
		f, ok, err := r.readDocument(scope.DocumentID)
		return f.Layer, ok, err
	}
	var data layerData
	ok, err := r.read(r.layerPath(scope), &data)
	return data, ok, err
}

func (r *FileRepository) UpdateLayer(ctx context.Context, scope core.Scope, fn func(*layer.Layer) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var doc *documentFile
	if scope.Kind() == core.ScopeDocument {
		if err := ValidateDocumentID(scope.DocumentID); err != nil {
			return err
		}
		f, ok, err := r.readDocument(scope.DocumentID)
		if err != nil {
			return err
		}
		if !ok {
			return core.ErrNotFound("document", scope.DocumentID)
		}
		doc = &f
	}

	l, err := r.LoadLayer(ctx, scope)
	if err != nil {
		return err
	}
	if l == nil {
		l = layer.New(LayerName(scope), "")
	}
	if err := fn(l); err != nil {
		return err
	}

	if doc != nil {
		doc.Layer = encodeLayer(l)
		return r.write(r.documentPath(scope.DocumentID), doc)
	}
	if l.IsEmpty() {
		return removeIfExists(r.layerPath(scope))
	}
	return r.write(r.layerPath(scope), encodeLayer(l))
}

func (r *FileRepository) DeleteLayer(_ context.Context, scope core.Scope) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if scope.Kind() != core.ScopeDocument {
		path := r.layerPath(scope)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return true, removeIfExists(path)
	}

	if err := ValidateDocumentID(scope.DocumentID); err != nil {
		return false, err
	}
	f, ok, err := r.readDocument(scope.DocumentID)
	if err != nil || !ok {
		return false, err
	}
	had := len(f.Layer.Values) > 0 || len(f.Layer.Nulls) > 0 || len(f.Layer.Rules) > 0
	f.Layer = layerData{}
	return had, r.write(r.documentPath(scope.DocumentID), f)
}

func (r *FileRepository) Close() error { return nil }

// Watch reports external changes to stored files until ctx is done. Files
// written by this repository are reported too.
func (r *FileRepository) Watch(ctx context.Context, onChange func(scope core.Scope, path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range r.dirs() {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	r.logger.Debug("watching store", "root", r.root)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if scope, ok := r.ScopeForPath(event.Name); ok {
				onChange(scope, event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("store watcher error", "error", err)
		}
	}
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}
