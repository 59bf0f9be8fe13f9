package httpjson

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studypipe/internal/core/domain"
)

func TestClient_Post(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-Key"))

		var in map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["say"]})
	}))
	defer srv.Close()

	header := http.Header{}
	header.Set("X-Key", "secret")
	c := New("test", time.Second, header)

	var out map[string]string
	require.NoError(t, c.Post(context.Background(), srv.URL, map[string]string{"say": "hi"}, &out))
	assert.Equal(t, "hi", out["echo"])
}

func TestClient_Get_DiscardsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	assert.NoError(t, New("test", time.Second, nil).Get(context.Background(), srv.URL, nil))
}

func TestClient_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(strings.Repeat("x", 2*maxErrorBody)))
	}))
	defer srv.Close()

	err := New("test", time.Second, nil).Get(context.Background(), srv.URL, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.Contains(t, err.Error(), "status 502")
	assert.Less(t, len(err.Error()), 2*maxErrorBody)
}

func TestClient_DecodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("{"))
	}))
	defer srv.Close()

	var out map[string]any
	err := New("test", time.Second, nil).Get(context.Background(), srv.URL, &out)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestCallError(t *testing.T) {
	assert.ErrorIs(t, CallError("p", "send", context.DeadlineExceeded), domain.ErrTimeout)

	err := CallError("p", "send", errors.New("connection refused"))
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	assert.ErrorIs(t, err, domain.ErrExternalCall)
	assert.Contains(t, err.Error(), "p send")
}
