package ai

import (
	"context"
	"fmt"
	"log/slog"

	"ninjachef/internal/config"
)

// NewCompleter builds the backend named by cfg.Provider.
func NewCompleter(ctx context.Context, cfg config.AIConfig) (Completer, error) {
	slog.InfoContext(ctx, "using generation backend", "provider", cfg.Provider, "model", cfg.Model)
	switch cfg.Provider {
	case "gemini":
		return NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
	case "openai":
		return NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	case "openrouter":
		return NewOpenRouterClient(cfg.APIKey, cfg.Model), nil
	case "mock":
		return Mock{}, nil
	}
	return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
}
