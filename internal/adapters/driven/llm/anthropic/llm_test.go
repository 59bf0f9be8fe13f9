package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studypipe/internal/core/domain"
)

func TestNewGateway_RequiresAPIKey(t *testing.T) {
	_, err := NewGateway(Config{})
	assert.ErrorIs(t, err, domain.ErrInput)
}

func TestNewGateway_Defaults(t *testing.T) {
	g, err := NewGateway(Config{APIKey: "key"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, g.ModelName())
	assert.Equal(t, DefaultMaxTokens, g.maxTokens)
	assert.Equal(t, DefaultBaseURL, g.baseURL)
}

func TestGateway_Generate_ConcatenatesTextBlocks(t *testing.T) {
	var got messagesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"[{\"question\":"},` +
			`{"type":"tool_use","text":"ignored"},{"type":"text","text":"\"q\"}]"}],"stop_reason":"end_turn"}`))
	}))
	defer srv.Close()

	g, err := NewGateway(Config{APIKey: "key", BaseURL: srv.URL})
	require.NoError(t, err)

	reply, err := g.Generate(context.Background(), "make cards", "")
	require.NoError(t, err)
	assert.Equal(t, `[{"question":"q"}]`, reply)
	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
}

func TestGateway_Generate_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"bad model"}}`))
	}))
	defer srv.Close()

	g, err := NewGateway(Config{APIKey: "key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), "p", "nope")
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Contains(t, err.Error(), "bad model")
}

func TestGateway_Ping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	g, err := NewGateway(Config{APIKey: "key", BaseURL: srv.URL})
	require.NoError(t, err)
	assert.NoError(t, g.Ping(context.Background()))
}
