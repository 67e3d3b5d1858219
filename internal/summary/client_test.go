package summary

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientConfig{APIURL: srv.URL, APIKey: "test-key", Referer: "http://localhost", Title: "Fintrack"})
}

func TestClient_Complete(t *testing.T) {
	var got chatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "http://localhost", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "Fintrack", r.Header.Get("X-Title"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  Todo en orden.  "}}]}`))
	})

	text, err := client.Complete(context.Background(), "sys", "prompt")

	require.NoError(t, err)
	assert.Equal(t, "Todo en orden.", text)
	assert.Equal(t, DefaultModel, got.Model)
	assert.Equal(t, 0.7, got.Temperature)
	assert.Equal(t, 800, got.MaxTokens)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "prompt", got.Messages[1].Content)
}

func TestClient_Errors(t *testing.T) {
	longBody := strings.Repeat("x", 300)

	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "quota",
			status: http.StatusPaymentRequired,
			body:   `{"error":{"message":"Insufficient credits"}}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrQuotaExceeded)
			},
		},
		{
			name:   "structured error message",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"Rate limit exceeded"}}`,
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, 429, se.Status)
				assert.Equal(t, "Rate limit exceeded", se.Message)
			},
		},
		{
			name:   "raw body truncated",
			status: http.StatusBadGateway,
			body:   longBody,
			check: func(t *testing.T, err error) {
				var se *StatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, strings.Repeat("x", 180), se.Message)
			},
		},
		{
			name:   "empty choices",
			status: http.StatusOK,
			body:   `{"choices":[]}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrEmptyContent)
			},
		},
		{
			name:   "blank content",
			status: http.StatusOK,
			body:   `{"choices":[{"message":{"content":"   "}}]}`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrEmptyContent)
			},
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   `not json`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrEmptyContent)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := client.Complete(context.Background(), "sys", "prompt")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestClient_MissingAPIKey(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	_, err := NewClient(ClientConfig{APIURL: srv.URL}).Complete(context.Background(), "s", "p")

	assert.True(t, errors.Is(err, ErrMissingAPIKey))
	assert.False(t, called)
}

func TestClient_ContextCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Complete(ctx, "s", "p")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractErrorMessage(t *testing.T) {
	assert.Equal(t, "", extractErrorMessage(nil))
	assert.Equal(t, "boom", extractErrorMessage([]byte(`{"error":{"message":" boom "}}`)))
	assert.Equal(t, `{"error":{}}`, extractErrorMessage([]byte(`{"error":{}}`)))
	assert.Equal(t, strings.Repeat("ñ", 180), extractErrorMessage([]byte(strings.Repeat("ñ", 200))))
}
