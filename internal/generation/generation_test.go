package generation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIClientGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Contains(t, req.Messages[1].Content, "Player: Luka Doncic")
		assert.Contains(t, req.Messages[1].Content, "(not provided)")

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "# Report"}},
			},
			"usage": map[string]any{"prompt_tokens": 120, "completion_tokens": 900},
		})
	}))
	defer srv.Close()

	c := NewOpenAIClient("test-key", WithBaseURL(srv.URL), WithModel("test-model"))
	res, err := c.Generate(context.Background(), Request{Subject: "Luka Doncic", Team: "Mavericks"})
	require.NoError(t, err)
	assert.Equal(t, "# Report", res.Content)
	assert.Equal(t, "test-model", res.Model)
	assert.Equal(t, 120, res.InputTokens)
	assert.Equal(t, 900, res.OutputTokens)
}

func TestOpenAIClientGenerateEmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "   "}},
			},
		})
	}))
	defer srv.Close()

	c := NewOpenAIClient("test-key", WithBaseURL(srv.URL))
	_, err := c.Generate(context.Background(), Request{Subject: "Someone"})
	assert.ErrorContains(t, err, "empty completion")
}

func TestTemplateGeneratorDeterministic(t *testing.T) {
	g := NewTemplateGenerator()

	a, err := g.Generate(context.Background(), Request{Subject: "Luka Doncic", Team: "Mavericks", League: "NBA"})
	require.NoError(t, err)
	b, err := g.Generate(context.Background(), Request{Subject: "Luka Doncic", Team: "Mavericks", League: "NBA"})
	require.NoError(t, err)
	assert.Equal(t, a.Content, b.Content)
	assert.Contains(t, a.Content, "Luka Doncic")
	assert.Contains(t, a.Content, "Mavericks")

	_, err = g.Generate(context.Background(), Request{Subject: "  "})
	assert.Error(t, err)
}

func TestEstimateCost(t *testing.T) {
	assert.InDelta(t, 0.25+2.0, EstimateCost("gpt-5-mini", 1_000_000, 1_000_000), 1e-9)
	// unknown model uses fallback pricing, never zero
	assert.Greater(t, EstimateCost("mystery-model", 1000, 1000), 0.0)
}
