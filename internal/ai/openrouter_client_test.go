package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenRouter(t *testing.T, h http.HandlerFunc) *OpenRouterClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	t.Setenv("OPENROUTER_ENDPOINT", srv.URL)
	return NewOpenRouterClient("test-key", "")
}

func TestOpenRouterCompleteSendsSchemaAndTemperature(t *testing.T) {
	var got openRouterRequest
	client := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"id":"gen-1","choices":[{"message":{"role":"assistant","content":"{\"recipeName\":\"x\"}"}}],"usage":{"total_tokens":12}}`))
	})

	text, err := client.Complete(context.Background(), Completion{Prompt: "cook", Schema: RecipeSchema(), Temperature: Temperature})
	require.NoError(t, err)
	assert.Equal(t, `{"recipeName":"x"}`, text)

	assert.Equal(t, defaultOpenRouterModel, got.Model)
	assert.InDelta(t, 0.7, got.Temperature, 1e-9)
	assert.Equal(t, "json_schema", got.ResponseFormat.Type)
	assert.True(t, got.ResponseFormat.JSONSchema.Strict)
	assert.Equal(t, "recipe", got.ResponseFormat.JSONSchema.Name)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "cook", got.Messages[0].Content)
}

func TestOpenRouterCompleteMultipartContent(t *testing.T) {
	client := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":[{"type":"text","text":"{\"a\":"},{"type":"image","text":"ignored"},{"type":"text","text":"1}"}]}}]}`))
	})

	text, err := client.Complete(context.Background(), Completion{Prompt: "cook", Schema: RecipeSchema()})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, text)
}

func TestOpenRouterCompleteErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "api error", status: http.StatusTooManyRequests, body: `{"error":{"message":"slow down"}}`, wantErr: "openrouter error (429): slow down"},
		{name: "raw error", status: http.StatusBadGateway, body: "upstream down", wantErr: "openrouter error (502): upstream down"},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`, wantErr: "no choices"},
		{name: "empty content", status: http.StatusOK, body: `{"choices":[{"message":{"content":"  "}}]}`, wantErr: "empty response content"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := client.Complete(context.Background(), Completion{Prompt: "cook", Schema: RecipeSchema()})
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestOpenRouterThroughService(t *testing.T) {
	client := newTestOpenRouter(t, func(w http.ResponseWriter, r *http.Request) {
		content, _ := json.Marshal(conformingRecipe)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":` + string(content) + `}}]}`))
	})

	recipe, err := NewService(client).Generate(context.Background(), "pork belly, noodles", "Dinner", "", Beginner)
	require.NoError(t, err)
	assert.Equal(t, "Rasengan Ramen", recipe.Name)
	assert.Len(t, recipe.Instructions, 3)
}
