package imagestore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// BlobStore is the file-writing sink the core requires: write bytes, get
// back a retrievable URL. Writes must be atomic per file so a concurrent
// reader never observes a partially written blob.
type BlobStore interface {
	// Write stores data under the given store-relative path and returns the
	// public URL of the blob.
	Write(path string, data []byte) (string, error)

	// Read returns the blob's bytes, or os.ErrNotExist.
	Read(path string) ([]byte, error)

	// Delete removes the blob; deleting a missing blob is not an error.
	Delete(path string) error

	// Exists reports whether the blob is present.
	Exists(path string) bool

	// Glob returns the store-relative paths matching a path.Match pattern.
	Glob(pattern string) ([]string, error)

	// URL returns the public URL for a store-relative path.
	URL(path string) string
}

// FSBlobStore keeps blobs under a media root directory and serves them via
// a base URL (the server mounts the root under /media/).
type FSBlobStore struct {
	root    string
	baseURL string
}

// NewFSBlobStore creates a filesystem blob store rooted at root.
func NewFSBlobStore(root, baseURL string) (*FSBlobStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &FSBlobStore{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Write stores the blob with write-then-rename so readers only ever see
// complete files.
func (s *FSBlobStore) Write(path string, data []byte) (string, error) {
	full := filepath.Join(s.root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create blob directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp blob: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close blob: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("publish blob: %w", err)
	}

	return s.URL(path), nil
}

func (s *FSBlobStore) Read(path string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.root, filepath.FromSlash(path)))
}

func (s *FSBlobStore) Delete(path string) error {
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(path)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

func (s *FSBlobStore) Exists(path string) bool {
	_, err := os.Stat(filepath.Join(s.root, filepath.FromSlash(path)))
	return err == nil
}

func (s *FSBlobStore) Glob(pattern string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(s.root, filepath.FromSlash(pattern)))
	if err != nil {
		return nil, fmt.Errorf("glob blobs: %w", err)
	}
	paths := make([]string, 0, len(matches))
	for _, match := range matches {
		rel, err := filepath.Rel(s.root, match)
		if err != nil {
			return nil, fmt.Errorf("glob blobs: %w", err)
		}
		paths = append(paths, filepath.ToSlash(rel))
	}
	return paths, nil
}

func (s *FSBlobStore) URL(path string) string {
	return s.baseURL + "/" + path
}

// Root returns the filesystem directory blobs live under.
func (s *FSBlobStore) Root() string { return s.root }
