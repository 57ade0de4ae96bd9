package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Storage implements vault.BlobStorage on the local filesystem. Blobs are
// keyed by file id; all metadata lives in the vault store.
type Storage struct {
	dataDir string
}

// NewStorage creates a filesystem blob storage rooted at dataDir.
func NewStorage(dataDir string) *Storage {
	return &Storage{
		dataDir: dataDir,
	}
}

// Save writes the content under the given id and returns the number of
// bytes written.
func (s *Storage) Save(id string, content io.Reader) (int64, error) {
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create data directory: %w", err)
	}

	path := filepath.Join(s.dataDir, id)
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create blob: %w", err)
	}
	defer file.Close()

	size, err := io.Copy(file, content)
	if err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("failed to write blob content: %w", err)
	}

	return size, nil
}

// Open returns a reader over the blob content.
func (s *Storage) Open(id string) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(s.dataDir, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob not found")
		}
		return nil, fmt.Errorf("failed to open blob: %w", err)
	}
	return file, nil
}

// Delete removes the blob. Deleting a missing blob is not an error.
func (s *Storage) Delete(id string) error {
	if err := os.Remove(filepath.Join(s.dataDir, id)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete blob: %w", err)
	}
	return nil
}

// Exists checks whether a blob is present for the given id.
func (s *Storage) Exists(id string) bool {
	_, err := os.Stat(filepath.Join(s.dataDir, id))
	return !os.IsNotExist(err)
}
