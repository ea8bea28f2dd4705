package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosine(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{0, 1, 0}
	assert.InDelta(t, 0, Cosine(a, b), 1e-9)
	assert.InDelta(t, 1, Cosine(a, a), 1e-9)
	assert.InDelta(t, -1, Cosine(a, []float32{-1, 0, 0}), 1e-9)

	assert.Zero(t, Cosine(nil, nil))
	assert.Zero(t, Cosine(a, []float32{1, 0}))
	assert.Zero(t, Cosine([]float32{0, 0, 0}, a))
}

func TestHashingEmbedderDeterministic(t *testing.T) {
	e := NewHashingEmbedder()

	v1, err := e.Embed(context.Background(), "Luka Doncic")
	require.NoError(t, err)
	v2, err := e.Embed(context.Background(), "Luka Doncic")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
	assert.InDelta(t, 1, Cosine(v1, v2), 1e-6)

	v3, err := e.Embed(context.Background(), "Nikola Jokic")
	require.NoError(t, err)
	assert.Less(t, Cosine(v1, v3), 0.99)

	// near-identical names overlap more than unrelated ones
	v5, err := e.Embed(context.Background(), "luka doncic jr")
	require.NoError(t, err)
	assert.Greater(t, Cosine(v1, v5), Cosine(v1, v3))
}

func TestHashText(t *testing.T) {
	assert.Equal(t, HashText("abc"), HashText("abc"))
	assert.NotEqual(t, HashText("abc"), HashText("abd"))
	assert.Len(t, HashText("abc"), 64)
}

func TestOpenAIClientEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/embeddings", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openaiEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, []string{"some player"}, req.Input)

		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"embedding": []float32{0.1, 0.2, 0.3}, "index": 0},
			},
		})
	}))
	defer srv.Close()

	c := NewOpenAIClient("test-key", WithBaseURL(srv.URL), WithModel("test-model"))
	vec, err := c.Embed(context.Background(), "some player")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestOpenAIClientEmbedClientErrorNoRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{"message": "bad input", "type": "invalid_request_error"},
		})
	}))
	defer srv.Close()

	c := NewOpenAIClient("test-key", WithBaseURL(srv.URL))
	_, err := c.Embed(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad input")
	assert.Equal(t, 1, calls)
}
