// Package storage abstracts where uploaded resource files live.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FileStore saves uploaded content and returns an opaque handle that is
// later resolved to a URL or path.
type FileStore interface {
	Save(dir, filename string, content []byte) (string, error)
	Open(handle string) ([]byte, error)
	Delete(handle string) error
	URL(handle string) string
}

// LocalStore keeps files under a root directory on disk. Handles are
// paths relative to the root.
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{root: root}, nil
}

// Save writes content under dir with a collision-proof name and returns
// the relative handle.
func (s *LocalStore) Save(dir, filename string, content []byte) (string, error) {
	cleanDir := filepath.Clean(dir)
	if strings.HasPrefix(cleanDir, "..") || filepath.IsAbs(cleanDir) {
		return "", fmt.Errorf("invalid storage directory %q", dir)
	}

	target := filepath.Join(s.root, cleanDir, time.Now().Format("2006/01"))
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", err
	}

	ext := filepath.Ext(filename)
	name := uuid.New().String() + strings.ToLower(ext)
	full := filepath.Join(target, name)
	if err := os.WriteFile(full, content, 0o644); err != nil {
		return "", err
	}

	handle, err := filepath.Rel(s.root, full)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(handle), nil
}

// Open reads a stored file back.
func (s *LocalStore) Open(handle string) ([]byte, error) {
	full, err := s.resolve(handle)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

// Delete removes a stored file. Missing files are not an error.
func (s *LocalStore) Delete(handle string) error {
	full, err := s.resolve(handle)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// URL returns the public path for a handle.
func (s *LocalStore) URL(handle string) string {
	return "/media/" + filepath.ToSlash(handle)
}

func (s *LocalStore) resolve(handle string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(handle))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("invalid file handle %q", handle)
	}
	return filepath.Join(s.root, clean), nil
}
