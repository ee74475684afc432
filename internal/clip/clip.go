// Package clip copies rendered configuration to the user's clipboard.
package clip

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	atotto "github.com/atotto/clipboard"
	osc52 "github.com/aymanbagabas/go-osc52/v2"
	"golang.org/x/term"
)

// Method is the mechanism that made the content available.
type Method string

const (
	MethodNative Method = "native" // OS clipboard
	MethodOSC52  Method = "osc52"  // terminal clipboard escape sequence
	MethodFile   Method = "file"   // no clipboard reachable; content written to a file
)

// Result reports how content was copied.
type Result struct {
	Method   Method `json:"method"`
	FilePath string `json:"file_path,omitempty"`
}

// Conservative default; terminals can have strict OSC52 limits.
const osc52LimitBytes = 100_000

// Copier tries the native clipboard, then OSC52, then a file.
type Copier struct {
	native   func(string) error
	terminal io.Writer
	isTTY    func() bool
	tempDir  string
	pattern  string
}

// Option configures a Copier.
type Option func(*Copier)

// WithNative replaces the native clipboard writer.
func WithNative(fn func(string) error) Option {
	return func(c *Copier) { c.native = fn }
}

// WithTerminal sets where OSC52 sequences are written and whether it is a
// terminal.
func WithTerminal(w io.Writer, isTTY func() bool) Option {
	return func(c *Copier) {
		c.terminal = w
		c.isTTY = isTTY
	}
}

// WithFallbackFile sets the directory and name pattern of the file fallback.
func WithFallbackFile(dir, pattern string) Option {
	return func(c *Copier) {
		c.tempDir = dir
		c.pattern = pattern
	}
}

// New creates a Copier writing OSC52 to stderr.
func New(opts ...Option) *Copier {
	c := &Copier{
		native:   atotto.WriteAll,
		terminal: os.Stderr,
		isTTY:    func() bool { return term.IsTerminal(int(os.Stderr.Fd())) },
		pattern:  "corrector-config-*.txt",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Copy makes text available to paste.
func (c *Copier) Copy(text string) (Result, error) {
	if text == "" {
		return Result{}, errors.New("nothing to copy")
	}
	if err := c.native(text); err == nil {
		return Result{Method: MethodNative}, nil
	}
	if err := c.writeOSC52(text); err == nil {
		return Result{Method: MethodOSC52}, nil
	}

	path, err := c.writeFile(text)
	if err != nil {
		return Result{}, fmt.Errorf("no clipboard available and file fallback failed: %w", err)
	}
	return Result{Method: MethodFile, FilePath: path}, nil
}

func (c *Copier) writeOSC52(text string) error {
	if c.terminal == nil || !c.isTTY() {
		return errors.New("not a terminal")
	}
	if len(text) > osc52LimitBytes {
		return fmt.Errorf("text too large for OSC52 (%d bytes > %d)", len(text), osc52LimitBytes)
	}

	seq := osc52.New(text).Limit(osc52LimitBytes)
	if os.Getenv("TMUX") != "" {
		seq = seq.Tmux()
	} else if os.Getenv("STY") != "" {
		seq = seq.Screen()
	}
	_, err := seq.WriteTo(c.terminal)
	return err
}

func (c *Copier) writeFile(text string) (path string, err error) {
	f, err := os.CreateTemp(c.tempDir, c.pattern)
	if err != nil {
		return "", err
	}
	path = f.Name()
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(path)
		}
	}()

	if _, err = f.WriteString(text); err != nil {
		return "", err
	}
	if err = f.Close(); err != nil {
		return "", err
	}
	return filepath.Clean(path), nil
}
