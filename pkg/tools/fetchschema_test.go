package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProber() *SessionProber {
	return NewClient(zerolog.Nop()).ForSession("test-session")
}

func TestFetchSchema_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Empty(t, body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"name":"chat","version":1}`))
	}))
	defer server.Close()

	result := newTestProber().FetchSchema(context.Background(), server.URL)

	assert.True(t, result.OK)
	assert.Equal(t, http.StatusOK, result.Status)
	assert.Empty(t, result.Error)

	body, ok := result.Body.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "chat", body["name"])
}

func TestFetchSchema_PaymentRequiredIsNotAnAdapterError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":"payment required","price":"0.01"}`))
	}))
	defer server.Close()

	result := newTestProber().FetchSchema(context.Background(), server.URL)

	assert.False(t, result.OK)
	assert.Equal(t, http.StatusPaymentRequired, result.Status)
	assert.Empty(t, result.Error)

	body, ok := result.Body.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "payment required", body["error"])
}

func TestFetchSchema_NonJSONBodyKeptAsText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal error"))
	}))
	defer server.Close()

	result := newTestProber().FetchSchema(context.Background(), server.URL)

	assert.False(t, result.OK)
	assert.Equal(t, http.StatusInternalServerError, result.Status)
	assert.Equal(t, "internal error", result.Body)
	assert.Empty(t, result.Error)
}

func TestFetchSchema_InvalidURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"empty", ""},
		{"no scheme", "example.com/schema"},
		{"garbage", "::not a url::"},
		{"scheme only", "http://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := newTestProber().FetchSchema(context.Background(), tt.url)

			assert.False(t, result.OK)
			assert.NotEmpty(t, result.Error)
			assert.Zero(t, result.Status)
			assert.Nil(t, result.Body)
		})
	}
}

func TestFetchSchema_ConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	result := newTestProber().FetchSchema(context.Background(), server.URL)

	assert.False(t, result.OK)
	assert.NotEmpty(t, result.Error)
	assert.Zero(t, result.Status)
}
