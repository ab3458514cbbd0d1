package generativeAI

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeOllama(t *testing.T, content string) (*httptest.Server, *[]string) {
	t.Helper()
	var models []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			_, _ = w.Write([]byte(`{"models":[{"name":"qwen2.5:0.5b"}]}`))
		case "/api/chat":
			var body struct {
				Model string `json:"model"`
			}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			models = append(models, body.Model)
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"model":      body.Model,
				"created_at": "2024-05-01T10:00:00Z",
				"message":    map[string]string{"role": "assistant", "content": content},
				"done":       true,
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &models
}

func TestOllamaClient(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("generate uses requested model", func(t *testing.T) {
		srv, models := newFakeOllama(t, "  Paris is lovely in spring.  ")
		c, err := NewOllamaClient(OllamaConfig{BaseURL: srv.URL, Models: []string{"qwen2.5:0.5b", "phi3:mini"}}, srv.Client(), logger)
		require.NoError(t, err)

		got, err := c.Generate(ctx, "Tell me about Paris", GenerationOptions{Model: "phi3:mini", Temperature: 0.7})
		require.NoError(t, err)
		assert.Equal(t, "Paris is lovely in spring.", got)
		assert.Equal(t, []string{"phi3:mini"}, *models)
	})

	t.Run("empty completion", func(t *testing.T) {
		srv, _ := newFakeOllama(t, "   ")
		c, err := NewOllamaClient(OllamaConfig{BaseURL: srv.URL}, srv.Client(), logger)
		require.NoError(t, err)

		_, err = c.Generate(ctx, "hello", GenerationOptions{})
		assert.ErrorIs(t, err, ErrEmptyCompletion)
	})

	t.Run("available probes tags", func(t *testing.T) {
		srv, _ := newFakeOllama(t, "x")
		c, err := NewOllamaClient(OllamaConfig{BaseURL: srv.URL}, srv.Client(), logger)
		require.NoError(t, err)
		assert.True(t, c.Available(ctx))
	})

	t.Run("unreachable server is unavailable", func(t *testing.T) {
		srv, _ := newFakeOllama(t, "x")
		url := srv.URL
		srv.Close()

		c, err := NewOllamaClient(OllamaConfig{BaseURL: url}, nil, logger)
		require.NoError(t, err)
		assert.False(t, c.Available(ctx))

		_, err = c.Generate(ctx, "hello", GenerationOptions{})
		assert.Error(t, err)
	})

	t.Run("models are copied", func(t *testing.T) {
		c, err := NewOllamaClient(OllamaConfig{}, nil, logger)
		require.NoError(t, err)
		m := c.Models()
		m[0] = "changed"
		assert.Equal(t, []string{DefaultOllamaModel}, c.Models())
		assert.Equal(t, ProviderOllama, c.Provider())
	})
}
