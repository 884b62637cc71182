package cache

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"ninjachef/internal/config"
)

func MakeCache(cfg config.StorageConfig) (Cache, error) {
	switch cfg.Backend {
	case "redis":
		slog.Info("Using Redis for saved recipes")
		return NewRedisCache(cfg.RedisURL)
	case "azure":
		slog.Info("Using Azure Blob Storage for saved recipes", "container", cfg.AzureContainer)
		return NewBlobCache(cfg.AzureAccount, cfg.AzureKey, cfg.AzureContainer)
	case "memory":
		slog.Info("Using process memory for saved recipes")
		return NewInMemoryCache(), nil
	case "file", "":
		slog.Info("Using local files for saved recipes", "dir", filepath.Clean(cfg.Dir))
		return NewFileCache(cfg.Dir), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}
