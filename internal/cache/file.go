package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Cache is the persistent key-value capability behind the saved collection.
type Cache interface {
	// Get returns ErrNotFound when key has never been set.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

var ErrNotFound = errors.New("cache entry not found")

type FileCache struct {
	Dir string
}

var _ Cache = (*FileCache)(nil)

func NewFileCache(dir string) *FileCache {
	return &FileCache{Dir: dir}
}

func (fc *FileCache) Get(_ context.Context, key string) (string, error) {
	data, err := os.ReadFile(filepath.Join(fc.Dir, key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return string(data), nil
}

// Set replaces the file with a rename so readers see the old or the new value.
func (fc *FileCache) Set(_ context.Context, key, value string) error {
	filePath := filepath.Join(fc.Dir, key)
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return err
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0644); err != nil {
		return err
	}
	return os.Rename(tmp, filePath)
}
