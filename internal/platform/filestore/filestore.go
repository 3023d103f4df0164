// Package filestore provides the on-disk report archive. Report documents are
// stored as plain files under a configurable root so that operators can back
// them up with ordinary tooling; all metadata lives in Postgres. The Store
// interface has a disk-backed implementation for production and an in-memory
// implementation for tests.
package filestore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	// ErrNotFound is returned when the requested file does not exist.
	ErrNotFound = errors.New("file not found")
	// ErrInvalidPath is returned for paths that escape the store root.
	ErrInvalidPath = errors.New("invalid file path")
)

// Store abstracts file placement and retrieval for report documents. Paths
// are slash-separated and relative to the store root.
type Store interface {
	// Save writes content to the given relative path, creating parent
	// directories as needed, and returns the number of bytes written.
	Save(relPath string, content io.Reader) (int64, error)
	// Open returns a reader over the file at the given relative path.
	Open(relPath string) (io.ReadCloser, error)
	// Remove deletes the file at the given relative path. Removing a
	// missing file returns ErrNotFound.
	Remove(relPath string) error
	// Exists reports whether a file is present at the given relative path.
	Exists(relPath string) (bool, error)
}

// cleanRelPath validates and normalizes a store-relative path. Absolute paths
// and traversal outside the root are rejected.
func cleanRelPath(relPath string) (string, error) {
	if relPath == "" || strings.HasPrefix(relPath, "/") {
		return "", ErrInvalidPath
	}
	clean := filepath.ToSlash(filepath.Clean(relPath))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", ErrInvalidPath
	}
	return clean, nil
}

// DiskStore stores files under a root directory on the local filesystem.
type DiskStore struct {
	root string
}

// NewDiskStore creates a DiskStore rooted at dir, creating it if missing.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store root %s: %w", dir, err)
	}
	return &DiskStore{root: dir}, nil
}

// Root returns the store's root directory.
func (s *DiskStore) Root() string {
	return s.root
}

func (s *DiskStore) abs(relPath string) (string, error) {
	clean, err := cleanRelPath(relPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func (s *DiskStore) Save(relPath string, content io.Reader) (int64, error) {
	dst, err := s.abs(relPath)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, fmt.Errorf("create directory for %s: %w", relPath, err)
	}

	f, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("create file %s: %w", relPath, err)
	}

	n, err := io.Copy(f, content)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dst)
		return 0, fmt.Errorf("write file %s: %w", relPath, err)
	}
	return n, nil
}

func (s *DiskStore) Open(relPath string) (io.ReadCloser, error) {
	src, err := s.abs(relPath)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("open file %s: %w", relPath, err)
	}
	return f, nil
}

func (s *DiskStore) Remove(relPath string) error {
	target, err := s.abs(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("remove file %s: %w", relPath, err)
	}
	return nil
}

func (s *DiskStore) Exists(relPath string) (bool, error) {
	target, err := s.abs(relPath)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(target); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat file %s: %w", relPath, err)
	}
	return true, nil
}

// MemStore is a thread-safe in-memory Store for tests.
type MemStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func NewMemStore() *MemStore {
	return &MemStore{files: make(map[string][]byte)}
}

func (s *MemStore) Save(relPath string, content io.Reader) (int64, error) {
	clean, err := cleanRelPath(relPath)
	if err != nil {
		return 0, err
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[clean] = data
	return int64(len(data)), nil
}

func (s *MemStore) Open(relPath string) (io.ReadCloser, error) {
	clean, err := cleanRelPath(relPath)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[clean]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemStore) Remove(relPath string) error {
	clean, err := cleanRelPath(relPath)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[clean]; !ok {
		return ErrNotFound
	}
	delete(s.files, clean)
	return nil
}

func (s *MemStore) Exists(relPath string) (bool, error) {
	clean, err := cleanRelPath(relPath)
	if err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.files[clean]
	return ok, nil
}

// Len returns the number of stored files.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}
