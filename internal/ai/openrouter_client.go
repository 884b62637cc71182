package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultOpenRouterModel    = "google/gemini-2.5-flash"
	defaultOpenRouterEndpoint = "https://openrouter.ai/api/v1/chat/completions"
)

type OpenRouterClient struct {
	apiKey string
	model  string

	endpoint   string
	httpClient *http.Client
}

var _ Completer = (*OpenRouterClient)(nil)

// NewOpenRouterClient creates an OpenRouter-backed completer.
func NewOpenRouterClient(apiKey, model string) *OpenRouterClient {
	selectedModel := strings.TrimSpace(model)
	if selectedModel == "" {
		selectedModel = defaultOpenRouterModel
	}

	endpoint := os.Getenv("OPENROUTER_ENDPOINT")
	if endpoint == "" {
		endpoint = defaultOpenRouterEndpoint
	}

	return &OpenRouterClient{
		apiKey:     apiKey,
		model:      selectedModel,
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterRequest struct {
	Model          string                   `json:"model"`
	Messages       []chatMessage            `json:"messages"`
	Temperature    float64                  `json:"temperature"`
	ResponseFormat openRouterResponseFormat `json:"response_format"`
}

type openRouterResponseFormat struct {
	Type       string               `json:"type"`
	JSONSchema openRouterJSONSchema `json:"json_schema"`
}

type openRouterJSONSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type openRouterResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage json.RawMessage `json:"usage"`
}

type openRouterErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *OpenRouterClient) Complete(ctx context.Context, completion Completion) (string, error) {
	requestBody := openRouterRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: completion.Prompt}},
		Temperature: completion.Temperature,
		ResponseFormat: openRouterResponseFormat{
			Type: "json_schema",
			JSONSchema: openRouterJSONSchema{
				Name:   completion.Schema.Name,
				Strict: true,
				Schema: completion.Schema.Definition,
			},
		},
	}

	body, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal openrouter request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build openrouter request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	if referer := strings.TrimSpace(os.Getenv("OPENROUTER_HTTP_REFERER")); referer != "" {
		req.Header.Set("HTTP-Referer", referer)
	}
	if title := strings.TrimSpace(os.Getenv("OPENROUTER_APP_TITLE")); title != "" {
		req.Header.Set("X-Title", title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openrouter request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed reading openrouter response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr openRouterErrorResponse
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("openrouter error (%d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", fmt.Errorf("openrouter error (%d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed openRouterResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode openrouter response: %w", err)
	}

	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openrouter returned no choices")
	}

	if len(parsed.Usage) > 0 {
		slog.InfoContext(ctx, "API usage", slog.Any("usage", parsed.Usage))
	}

	return messageContent(parsed.Choices[0].Message.Content)
}

func messageContent(raw json.RawMessage) (string, error) {
	var content string
	if err := json.Unmarshal(raw, &content); err == nil {
		if strings.TrimSpace(content) == "" {
			return "", fmt.Errorf("openrouter returned empty response content")
		}
		return content, nil
	}

	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err != nil {
		return "", fmt.Errorf("unable to parse response message content: %w", err)
	}

	var builder strings.Builder
	for _, part := range parts {
		if part.Type == "text" {
			builder.WriteString(part.Text)
		}
	}
	content = strings.TrimSpace(builder.String())
	if content == "" {
		return "", fmt.Errorf("openrouter returned empty text content")
	}
	return content, nil
}
