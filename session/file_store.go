package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Format selects the encoding of a FileStore.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks YAML for .yaml/.yml files and JSON otherwise.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// FileStore stores the context record in a single file (mode 0600).
type FileStore struct {
	path   string
	format Format
	mu     sync.Mutex
}

// NewFileStore returns a store at path; the format follows the extension.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, format: FormatFromPath(path)}
}

// Path returns the file location.
func (s *FileStore) Path() string { return s.path }

// Load reads the record. A missing file yields a fresh context.
func (s *FileStore) Load(_ context.Context) (Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := readFile(s.path)
	if err != nil {
		return Context{}, err
	}

	if data == nil {
		return Context{}, nil
	}

	rec, err := unmarshalRecord(data, s.format)
	if err != nil {
		return Context{}, err
	}

	return FromRecord(rec)
}

// Save validates c and writes it atomically with mode 0600.
func (s *FileStore) Save(_ context.Context, c Context) error {
	if err := c.Validate(); err != nil {
		return err
	}

	data, err := marshalRecord(c.ToRecord(), s.format)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return writeFile(s.path, data, 0o600)
}

func marshalRecord(rec Record, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(rec)
	case FormatJSON:
		return json.MarshalIndent(rec, "", "  ")
	default:
		return nil, fmt.Errorf("session: unsupported format %q", format)
	}
}

func unmarshalRecord(data []byte, format Format) (Record, error) {
	var rec Record

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &rec); err != nil {
			return Record{}, fmt.Errorf("session: decode yaml record: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &rec); err != nil {
			return Record{}, fmt.Errorf("session: decode json record: %w", err)
		}
	default:
		return Record{}, fmt.Errorf("session: unsupported format %q", format)
	}

	return rec, nil
}

// readFile reads the file at path; a missing file yields nil, nil.
func readFile(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return b, nil
}

// writeFile writes bytes via a temp file, then atomically replaces the target.
func writeFile(path string, b []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}

	tmp := f.Name()
	defer os.Remove(tmp)

	if err := f.Chmod(mode); err != nil {
		f.Close()
		return err
	}

	if _, err := f.Write(b); err != nil {
		f.Close()
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}

	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

var _ Store = (*FileStore)(nil)
