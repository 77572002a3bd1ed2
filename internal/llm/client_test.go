package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body payload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "test-model", body.Model)
		assert.Equal(t, 0.2, body.Temperature)
		assert.Equal(t, 4000, body.MaxTokens)
		if assert.Len(t, body.Messages, 2) {
			assert.Equal(t, RoleSystem, body.Messages[0].Role)
			assert.Equal(t, RoleUser, body.Messages[1].Role)
			assert.Equal(t, "hello", body.Messages[1].Content)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"{\"title\":\"x\"}"}}]}`))
	}))
	defer srv.Close()

	c := NewClient("sk-test", WithBaseURL(srv.URL+"/v1/"), WithModel("test-model"))
	reply, err := c.Complete(context.Background(), "sys", "hello")

	require.NoError(t, err)
	assert.Equal(t, `{"title":"x"}`, reply)
}

func TestClient_CompleteErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{"api error message", http.StatusUnauthorized, `{"error":{"message":"Incorrect API key","type":"invalid_request_error"}}`, "Incorrect API key"},
		{"bare status", http.StatusBadGateway, `upstream down`, "502"},
		{"no choices", http.StatusOK, `{"choices":[]}`, "no choices"},
		{"bad json", http.StatusOK, `not json`, "unmarshal response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient("k", WithBaseURL(srv.URL)).Complete(context.Background(), "s", "p")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestClient_Configured(t *testing.T) {
	var nilClient *Client
	assert.False(t, nilClient.Configured())
	assert.False(t, NewClient("").Configured())
	assert.True(t, NewClient("k").Configured())
}
