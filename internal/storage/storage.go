package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// HomeEnv overrides the data directory.
const HomeEnv = "PUNCH_HOME"

// BaseDir returns the root data directory ($PUNCH_HOME or ~/.punch).
func BaseDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".punch"), nil
}

// File is a single document on disk that is always replaced as a whole.
type File struct {
	Path string
}

// NewFile returns the document stored under name in base.
func NewFile(base, name string) File {
	return File{Path: filepath.Join(base, name)}
}

// Read returns the file contents, or nil without error if it does not exist.
func (f File) Read() ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage error reading %s: %w", f.Path, err)
	}
	return data, nil
}

// Write atomically replaces the file contents.
func (f File) Write(data []byte) error {
	return WriteFileAtomic(f.Path, data, 0o600)
}

// Remove deletes the file. Removing a missing file is not an error.
func (f File) Remove() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage error removing %s: %w", f.Path, err)
	}
	_ = os.Remove(f.Path + ".tmp")
	return nil
}

// WriteFileAtomic writes data to a temp file next to path and renames it into
// place, so readers see either the old or the new contents.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, perm); err != nil {
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}
	return nil
}

// Memory keeps a document in process memory. Useful for tests and for
// sessions that must not touch disk.
type Memory struct {
	mu   sync.Mutex
	data []byte
}

func (m *Memory) Read() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, nil
	}
	return append([]byte(nil), m.data...), nil
}

func (m *Memory) Write(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	return nil
}

func (m *Memory) Remove() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	return nil
}
