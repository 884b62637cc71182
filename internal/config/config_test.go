package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"AI_PROVIDER", "AI_API_KEY", "GEMINI_API_KEY", "API_KEY", "AI_MODEL", "AI_BASE_URL",
	"STORAGE_BACKEND", "STORAGE_DIR", "STORAGE_KEY", "REDIS_URL",
	"AZURE_STORAGE_ACCOUNT_NAME", "AZURE_STORAGE_PRIMARY_ACCOUNT_KEY", "AZURE_STORAGE_CONTAINER",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "gemini-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, "gemini-key", cfg.AI.APIKey)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, "data", cfg.Storage.Dir)
	assert.Equal(t, "savedNarutoRecipes", cfg.Storage.Key)
	assert.Equal(t, "recipes", cfg.Storage.AzureContainer)
}

func TestLoadAPIKeyPrecedence(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_KEY", "generic")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "generic", cfg.AI.APIKey)

	t.Setenv("AI_API_KEY", "specific")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, "specific", cfg.AI.APIKey)
}

func TestLoadValidation(t *testing.T) {
	tests := map[string]struct {
		env     map[string]string
		wantErr string
	}{
		"missing key": {
			env:     map[string]string{},
			wantErr: "AI_API_KEY is required",
		},
		"mock needs no key": {
			env: map[string]string{"AI_PROVIDER": "mock"},
		},
		"unknown provider": {
			env:     map[string]string{"AI_PROVIDER": "scroll", "AI_API_KEY": "k"},
			wantErr: "unknown AI_PROVIDER",
		},
		"unknown backend": {
			env:     map[string]string{"AI_PROVIDER": "mock", "STORAGE_BACKEND": "s3"},
			wantErr: "unknown STORAGE_BACKEND",
		},
		"redis without url": {
			env:     map[string]string{"AI_PROVIDER": "mock", "STORAGE_BACKEND": "redis"},
			wantErr: "REDIS_URL is required",
		},
		"redis with url": {
			env: map[string]string{"AI_PROVIDER": "mock", "STORAGE_BACKEND": "redis", "REDIS_URL": "redis://localhost:6379/0"},
		},
		"azure without account": {
			env:     map[string]string{"AI_PROVIDER": "mock", "STORAGE_BACKEND": "azure"},
			wantErr: "AZURE_STORAGE_ACCOUNT_NAME is required",
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			cfg, err := Load()
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, cfg)
		})
	}
}

func TestValidateEmptyKey(t *testing.T) {
	cfg := &Config{
		AI:      AIConfig{Provider: "mock"},
		Storage: StorageConfig{Backend: "memory"},
	}
	assert.ErrorContains(t, cfg.Validate(), "STORAGE_KEY")
}
