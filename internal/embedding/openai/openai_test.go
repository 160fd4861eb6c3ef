package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewClient_RequiresModel(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}

func TestEmbed_OpenAIShape(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "test-model", body["model"])
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer srv.Close()

	t.Setenv("TEST_EMBED_KEY", "secret")
	c, err := NewClient(Config{BaseURL: srv.URL, APIKeyEnv: "TEST_EMBED_KEY", Model: "test-model"})
	require.NoError(t, err)

	vec, err := c.Embed(context.Background(), "some text")
	require.NoError(t, err)
	require.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
	require.Equal(t, "/embeddings", gotPath)
	require.Equal(t, "Bearer secret", gotAuth)
	require.Equal(t, "test-model", c.ModelName())
}

func TestEmbed_OllamaShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embedding":[1,2]}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, Model: "mxbai-embed-large"})
	require.NoError(t, err)

	vec, err := c.Embed(context.Background(), "some text")
	require.NoError(t, err)
	require.Equal(t, []float32{1, 2}, vec)
}

func TestEmbed_RetriesServerErrors(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.5]}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, Model: "m", MaxRetries: 2})
	require.NoError(t, err)

	vec, err := c.Embed(context.Background(), "text")
	require.NoError(t, err)
	require.Equal(t, []float32{0.5}, vec)
	require.Equal(t, 2, calls)
}

func TestEmbed_ClientErrorIsNotRetried(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c, err := NewClient(Config{BaseURL: srv.URL, Model: "m", MaxRetries: 3})
	require.NoError(t, err)

	_, err = c.Embed(context.Background(), "text")
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestDecodeEmbedding(t *testing.T) {
	vec, ok := decodeEmbedding([]byte(`{"data":[{"embedding":[1]}]}`))
	require.True(t, ok)
	require.Equal(t, []float32{1}, vec)

	vec, ok = decodeEmbedding([]byte(`{"embedding":[2]}`))
	require.True(t, ok)
	require.Equal(t, []float32{2}, vec)

	_, ok = decodeEmbedding([]byte(`{"data":[]}`))
	require.False(t, ok)

	_, ok = decodeEmbedding([]byte(`not json`))
	require.False(t, ok)
}

func TestRetryDelay_Capped(t *testing.T) {
	for attempt := 0; attempt < 20; attempt++ {
		require.LessOrEqual(t, retryDelay(attempt), 5*time.Second)
	}
}
