package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrBlobNotFound is returned when no content exists under a storage key.
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore is a key-addressed content store. Keys are opaque storage keys
// recorded on file records; they are never derived from user input.
// Implementations: local filesystem (default) and S3.
type BlobStore interface {
	EnsureReady(ctx context.Context) error
	Save(ctx context.Context, key string, data io.Reader) (int64, error)
	Read(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// FileSystemStore stores file content on the local filesystem, one file
// per storage key under a base directory.
type FileSystemStore struct {
	basePath string
}

// NewFileSystemStore creates a new filesystem storage backend.
func NewFileSystemStore(basePath string) *FileSystemStore {
	return &FileSystemStore{basePath: basePath}
}

// EnsureReady creates the storage directory if it doesn't exist.
func (fs *FileSystemStore) EnsureReady(ctx context.Context) error {
	if err := os.MkdirAll(fs.basePath, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory %s: %w", fs.basePath, err)
	}
	return nil
}

// Save writes data to the file named by key. Returns the number of bytes
// written. A partial file left by a failed write is removed.
func (fs *FileSystemStore) Save(ctx context.Context, key string, data io.Reader) (int64, error) {
	filePath := fs.filePath(key)

	file, err := os.Create(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to create file %s: %w", filePath, err)
	}
	defer file.Close()

	n, err := io.Copy(file, data)
	if err != nil {
		os.Remove(filePath)
		return 0, fmt.Errorf("failed to write file: %w", err)
	}

	return n, nil
}

// Read returns the content stored under key, or ErrBlobNotFound.
func (fs *FileSystemStore) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(fs.filePath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// Delete removes the content stored under key. Deleting a missing key is
// not an error.
func (fs *FileSystemStore) Delete(ctx context.Context, key string) error {
	if err := os.Remove(fs.filePath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file %s: %w", key, err)
	}
	return nil
}

func (fs *FileSystemStore) filePath(key string) string {
	// Keys are server-generated random strings; Base guards against a
	// corrupted key reaching outside the storage directory.
	return filepath.Join(fs.basePath, filepath.Base(key))
}
