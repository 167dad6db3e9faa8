package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fleveque/motqot/internal/model"
)

func newTestClient() *ChatCompletionClient {
	return NewChatCompletionClient(5*time.Second, zap.NewNop())
}

func testConfig(baseURL string) model.ProviderConfig {
	return model.ProviderConfig{BaseURL: baseURL, APIKey: "k", Model: "m"}
}

func TestComplete_RequestShape(t *testing.T) {
	var (
		gotPath   string
		gotAuth   string
		gotCT     string
		gotMethod string
		gotBody   map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotCT = r.Header.Get("Content-Type")
		gotMethod = r.Method
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"\"Keep shipping.\""}}]}`))
	}))
	defer srv.Close()

	// No trailing slash on purpose: normalization must add it.
	text, err := newTestClient().Complete(context.Background(), testConfig(srv.URL+"/v1"), BuildPrompt("de"))
	require.NoError(t, err)
	assert.Equal(t, "Keep shipping.", text)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/v1/chat/completions", gotPath)
	assert.Equal(t, "Bearer k", gotAuth)
	assert.Equal(t, "application/json", gotCT)

	assert.Equal(t, "m", gotBody["model"])
	assert.EqualValues(t, 100, gotBody["max_tokens"])
	assert.InDelta(t, 0.7, gotBody["temperature"], 1e-6)

	messages, ok := gotBody["messages"].([]any)
	require.True(t, ok, "messages should be an array")
	require.Len(t, messages, 2)

	first := messages[0].(map[string]any)
	second := messages[1].(map[string]any)
	assert.Equal(t, "system", first["role"])
	assert.Equal(t, systemPrompt, first["content"])
	assert.Equal(t, "user", second["role"])
	assert.Contains(t, second["content"], "German")
}

func TestComplete_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer srv.Close()

	_, err := newTestClient().Complete(context.Background(), testConfig(srv.URL+"/"), BuildPrompt("en"))

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 401, httpErr.StatusCode)
	assert.Equal(t, `{"error":"bad key"}`, httpErr.Body)
}

func TestComplete_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty choices", `{"choices":[]}`},
		{"missing choices", `{"id":"x"}`},
		{"choices not array", `{"choices":{}}`},
		{"not json", `<html>oops</html>`},
		{"blank content", `{"choices":[{"message":{"content":"  \"\"  "}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestClient().Complete(context.Background(), testConfig(srv.URL), BuildPrompt("en"))
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestComplete_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close() // nothing is listening any more

	_, err := newTestClient().Complete(context.Background(), testConfig(url), BuildPrompt("en"))

	var transportErr *TransportError
	assert.ErrorAs(t, err, &transportErr)
}

func TestComplete_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewChatCompletionClient(50*time.Millisecond, zap.NewNop())
	_, err := client.Complete(context.Background(), testConfig(srv.URL), BuildPrompt("en"))

	var transportErr *TransportError
	assert.ErrorAs(t, err, &transportErr)
}

func TestComplete_Cancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient().Complete(ctx, testConfig(srv.URL), BuildPrompt("en"))

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestComplete_IncompleteConfigMakesNoRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	_, err := newTestClient().Complete(context.Background(),
		model.ProviderConfig{BaseURL: srv.URL, APIKey: "", Model: "m"}, BuildPrompt("en"))

	assert.True(t, errors.Is(err, model.ErrConfigIncomplete))
	assert.False(t, called)
}

func TestNewCompleter(t *testing.T) {
	for _, transport := range []string{"", TransportChatCompletions, TransportAnthropic, TransportAuto} {
		c, err := NewCompleter(transport, time.Second, zap.NewNop())
		assert.NoError(t, err, transport)
		assert.NotNil(t, c, transport)
	}

	_, err := NewCompleter("carrier-pigeon", time.Second, zap.NewNop())
	assert.Error(t, err)
}
