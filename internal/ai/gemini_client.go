package ai

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

type GeminiClient struct {
	client *genai.Client
	model  string
}

var _ Completer = (*GeminiClient)(nil)

func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if strings.TrimSpace(model) == "" {
		model = defaultGeminiModel
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (g *GeminiClient) Complete(ctx context.Context, c Completion) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(c.Prompt), &genai.GenerateContentConfig{
		Temperature:      lo.ToPtr(float32(c.Temperature)),
		ResponseMIMEType: "application/json",
		ResponseSchema:   toGenaiSchema(c.Schema.Definition),
	})
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini returned empty response content")
	}
	return text, nil
}

// toGenaiSchema converts a reflected JSON schema into the OpenAPI subset Gemini accepts.
func toGenaiSchema(def map[string]any) *genai.Schema {
	if def == nil {
		return nil
	}
	s := &genai.Schema{}
	if t, ok := def["type"].(string); ok {
		s.Type = genai.Type(strings.ToUpper(t))
	}
	if d, ok := def["description"].(string); ok {
		s.Description = d
	}
	if items, ok := def["items"].(map[string]any); ok {
		s.Items = toGenaiSchema(items)
	}
	if req, ok := def["required"].([]any); ok {
		for _, r := range req {
			if name, ok := r.(string); ok {
				s.Required = append(s.Required, name)
			}
		}
	}
	if props, ok := def["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		var rest []string
		for name, p := range props {
			if pm, ok := p.(map[string]any); ok {
				s.Properties[name] = toGenaiSchema(pm)
			}
			if !lo.Contains(s.Required, name) {
				rest = append(rest, name)
			}
		}
		sort.Strings(rest)
		s.PropertyOrdering = append(append([]string(nil), s.Required...), rest...)
	}
	return s
}
