package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/joho/godotenv"
)

type Config struct {
	AI      AIConfig      `json:"ai"`
	Storage StorageConfig `json:"storage"`
}

type AIConfig struct {
	Provider string `json:"provider"` // "gemini", "openai", "openrouter" or "mock"
	APIKey   string `json:"api_key"`
	Model    string `json:"model"`
	BaseURL  string `json:"base_url"`
}

type StorageConfig struct {
	Backend        string `json:"backend"` // "file", "memory", "redis" or "azure"
	Dir            string `json:"dir"`
	Key            string `json:"key"`
	RedisURL       string `json:"redis_url"`
	AzureAccount   string `json:"azure_account"`
	AzureKey       string `json:"azure_key"`
	AzureContainer string `json:"azure_container"`
}

var (
	Providers = []string{"gemini", "openai", "openrouter", "mock"}
	Backends  = []string{"file", "memory", "redis", "azure"}
)

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to read .env file", "error", err)
	}

	config := &Config{
		AI: AIConfig{
			Provider: getEnvOrDefault("AI_PROVIDER", "gemini"),
			APIKey:   firstEnv("AI_API_KEY", "GEMINI_API_KEY", "API_KEY"),
			Model:    os.Getenv("AI_MODEL"),
			BaseURL:  os.Getenv("AI_BASE_URL"),
		},
		Storage: StorageConfig{
			Backend:        getEnvOrDefault("STORAGE_BACKEND", "file"),
			Dir:            getEnvOrDefault("STORAGE_DIR", "data"),
			Key:            getEnvOrDefault("STORAGE_KEY", "savedNarutoRecipes"),
			RedisURL:       os.Getenv("REDIS_URL"),
			AzureAccount:   os.Getenv("AZURE_STORAGE_ACCOUNT_NAME"),
			AzureKey:       os.Getenv("AZURE_STORAGE_PRIMARY_ACCOUNT_KEY"),
			AzureContainer: getEnvOrDefault("AZURE_STORAGE_CONTAINER", "recipes"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	if !slices.Contains(Providers, c.AI.Provider) {
		return fmt.Errorf("unknown AI_PROVIDER %q", c.AI.Provider)
	}
	if c.AI.Provider != "mock" && c.AI.APIKey == "" {
		return fmt.Errorf("AI_API_KEY is required for provider %s", c.AI.Provider)
	}
	if !slices.Contains(Backends, c.Storage.Backend) {
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	if c.Storage.Key == "" {
		return errors.New("STORAGE_KEY must not be empty")
	}
	switch c.Storage.Backend {
	case "redis":
		if c.Storage.RedisURL == "" {
			return errors.New("REDIS_URL is required for the redis backend")
		}
	case "azure":
		if c.Storage.AzureAccount == "" {
			return errors.New("AZURE_STORAGE_ACCOUNT_NAME is required for the azure backend")
		}
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
