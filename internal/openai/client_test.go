package openai

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, apiKey string, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(apiKey, "gpt-4o-mini", server.URL, 5*time.Second, slog.Default())
}

func completionBody(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	})
	return string(b)
}

func TestCompleteReturnsTrimmedContent(t *testing.T) {
	client := newTestClient(t, "sk-test-key", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionBody("  hello from the model \n")))
	})

	text, err := client.Complete(context.Background(), "system", "user", 300)

	require.NoError(t, err)
	assert.Equal(t, "hello from the model", text)
}

func TestCompleteSendsPinnedWireFormat(t *testing.T) {
	var captured chatRequest
	var authHeader string

	client := newTestClient(t, "sk-test-key", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		authHeader = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &captured))
		w.Write([]byte(completionBody("ok")))
	})

	_, err := client.Complete(context.Background(), "classify things", "[\"a\"]", 300)
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk-test-key", authHeader)
	assert.Equal(t, "gpt-4o-mini", captured.Model)
	require.Len(t, captured.Messages, 2)
	assert.Equal(t, "system", captured.Messages[0].Role)
	assert.Equal(t, "classify things", captured.Messages[0].Content)
	assert.Equal(t, "user", captured.Messages[1].Role)
	assert.Equal(t, 300, captured.MaxTokens)
	assert.InDelta(t, 0.3, captured.Temperature, 1e-9)
	require.NotNil(t, captured.ResponseFormat)
	assert.Equal(t, "json_object", captured.ResponseFormat.Type)
}

func TestCompleteMissingAPIKeyFailsBeforeNetwork(t *testing.T) {
	requests := 0
	client := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {
		requests++
	})

	_, err := client.Complete(context.Background(), "system", "user", 100)

	require.ErrorIs(t, err, ErrAPIKeyMissing)
	assert.Equal(t, 0, requests, "no request may be issued without a credential")
}

func TestCompleteNonSuccessStatusIsTransportError(t *testing.T) {
	client := newTestClient(t, "sk-test-key", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid key"}`))
	})

	_, err := client.Complete(context.Background(), "system", "user", 100)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusUnauthorized, transportErr.StatusCode)
	assert.Contains(t, transportErr.Body, "invalid key")
}

func TestCompleteMissingContentIsShapeError(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no choices", `{"choices":[]}`},
		{"missing content", `{"choices":[{"message":{}}]}`},
		{"not json", `<html>gateway error</html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, "sk-test-key", func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			_, err := client.Complete(context.Background(), "system", "user", 100)

			var shapeErr *ShapeError
			require.ErrorAs(t, err, &shapeErr)
			assert.Equal(t, tt.body, shapeErr.RawBody)
		})
	}
}

func TestConfigured(t *testing.T) {
	assert.True(t, NewClient("sk-x", "m", "http://x", 0, slog.Default()).Configured())
	assert.False(t, NewClient("", "m", "http://x", 0, slog.Default()).Configured())
}
