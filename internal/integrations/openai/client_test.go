package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chat-relay/internal/domain"
)

// staticKey is a KeySource stub that counts lookups.
type staticKey struct {
	key   string
	err   error
	calls int
}

func (s *staticKey) APIKey(_ context.Context) (string, error) {
	s.calls++
	return s.key, s.err
}

// ---------------------------------------------------------------------------
// responsesURL helper
// ---------------------------------------------------------------------------

func TestResponsesURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"https://api.openai.com/v1", "https://api.openai.com/v1/responses"},
		{"https://api.openai.com/v1/", "https://api.openai.com/v1/responses"},
		{"http://localhost:8080", "http://localhost:8080/v1/responses"},
		{"", "https://api.openai.com/v1/responses"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, responsesURL(tc.base), "base=%q", tc.base)
	}
}

// ---------------------------------------------------------------------------
// NewClient
// ---------------------------------------------------------------------------

func TestNewClient_NilKeySource(t *testing.T) {
	_, err := NewClient(nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "nil")
}

func TestNewClient_Defaults(t *testing.T) {
	c, err := NewClient(&staticKey{key: "sk"})
	require.NoError(t, err)
	require.Equal(t, "https://api.openai.com/v1", c.baseURL)
	require.NotNil(t, c.httpClient)
	require.Zero(t, c.httpClient.Timeout)
}

// ---------------------------------------------------------------------------
// Client.Respond
// ---------------------------------------------------------------------------

func newTestClient(t *testing.T, srv *httptest.Server, keys KeySource) *Client {
	t.Helper()
	c, err := NewClient(
		keys,
		WithBaseURL(srv.URL),
		WithHTTPClient(&http.Client{Timeout: 2 * time.Second}),
	)
	require.NoError(t, err)
	return c
}

func TestClient_Respond_HappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/responses", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var got responsesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		require.Equal(t, "gpt-mock", got.Model)
		require.Equal(t, []domain.ChatMessage{
			{Role: domain.RoleSystem, Content: "be nice"},
			{Role: domain.RoleUser, Content: "hi"},
		}, got.Input)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{
			"id": "resp_123",
			"model": "gpt-mock",
			"output_text": "Hello from mock",
			"output": [{
				"type": "message",
				"role": "assistant",
				"content": [{ "type": "output_text", "text": "Hello from mock" }]
			}]
		}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &staticKey{key: "sk-test"})
	resp, err := c.Respond(context.Background(), "gpt-mock", []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: "be nice"},
		{Role: domain.RoleUser, Content: "hi"},
	})
	require.NoError(t, err)
	require.Equal(t, "resp_123", resp.ID)
	require.Equal(t, "Hello from mock", resp.OutputText)
	require.Len(t, resp.Output, 1)
	require.Equal(t, "Hello from mock", resp.Output[0].Content[0].Text)
}

func TestClient_Respond_NilInputSendsEmptyArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Contains(t, string(body), `"input":[]`)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &staticKey{key: "sk-test"})
	resp, err := c.Respond(context.Background(), "gpt-mock", nil)
	require.NoError(t, err)
	require.Empty(t, resp.OutputText)
	require.Empty(t, resp.Output)
}

func TestClient_Respond_ReadsKeyEveryCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"output_text":"ok"}`))
	}))
	defer srv.Close()

	keys := &staticKey{key: "sk-test"}
	c := newTestClient(t, srv, keys)
	for i := 0; i < 3; i++ {
		_, err := c.Respond(context.Background(), "gpt-mock", nil)
		require.NoError(t, err)
	}
	require.Equal(t, 3, keys.calls)
}

func TestClient_Respond_KeyError(t *testing.T) {
	hit := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &staticKey{err: errors.New("OPENAI_API_KEY is not set")})
	_, err := c.Respond(context.Background(), "gpt-mock", nil)
	require.Error(t, err)

	var keyErr *KeyError
	require.ErrorAs(t, err, &keyErr)
	require.Contains(t, err.Error(), "OPENAI_API_KEY")
	require.False(t, hit, "upstream must not be called without a key")
}

func TestClient_Respond_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(400)
		_, _ = w.Write([]byte(`{"error":"bad request"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &staticKey{key: "sk-test"})
	_, err := c.Respond(context.Background(), "gpt-mock", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unexpected status")
	require.Contains(t, err.Error(), "400")

	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, 400, statusErr.HTTPStatusCode())
}

func TestClient_Respond_429(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(429)
		_, _ = w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &staticKey{key: "sk-test"})
	_, err := c.Respond(context.Background(), "gpt-mock", []domain.ChatMessage{{Role: domain.RoleUser, Content: "hi"}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
}

func TestClient_Respond_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`not-a-json`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &staticKey{key: "sk-test"})
	_, err := c.Respond(context.Background(), "gpt-mock", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "decode response")
}

func TestClient_Respond_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &staticKey{key: "sk-test"})
	c.httpClient = &http.Client{Timeout: 50 * time.Millisecond}
	_, err := c.Respond(context.Background(), "gpt-mock", nil)
	require.Error(t, err)
}

func TestClient_Respond_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv, &staticKey{key: "sk-test"})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Respond(ctx, "gpt-mock", nil)
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_Respond_NetworkError(t *testing.T) {
	c, err := NewClient(&staticKey{key: "sk-test"})
	require.NoError(t, err)
	c.baseURL = "http://127.0.0.1:1"
	c.httpClient = &http.Client{Timeout: 100 * time.Millisecond}

	_, err = c.Respond(context.Background(), "gpt-mock", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "request failed")
}

func TestClient_Respond_EmptyModel(t *testing.T) {
	c, err := NewClient(&staticKey{key: "sk-test"})
	require.NoError(t, err)
	_, err = c.Respond(context.Background(), "", nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "model")
}
