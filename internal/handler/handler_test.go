package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fleveque/motqot/internal/llm"
	"github.com/fleveque/motqot/internal/model"
	"github.com/fleveque/motqot/internal/service"
	"github.com/fleveque/motqot/internal/storage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubCompleter answers every call with text, or err when set.
// When gate is set, Complete signals entered and waits on gate first.
type stubCompleter struct {
	mu      sync.Mutex
	calls   int
	text    string
	err     error
	entered chan struct{}
	gate    chan struct{}
}

func (s *stubCompleter) Complete(context.Context, model.ProviderConfig, llm.Prompt) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.gate != nil {
		s.entered <- struct{}{}
		<-s.gate
	}
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

type countingRescheduler struct{ n int }

func (r *countingRescheduler) Reschedule() { r.n++ }

type testEnv struct {
	router      *gin.Engine
	prefs       *storage.Preferences
	state       *service.State
	completer   *stubCompleter
	rescheduler *countingRescheduler
}

func newTestEnv(t *testing.T, sc *stubCompleter) *testEnv {
	t.Helper()
	prefs := storage.NewPreferences(storage.NewMemoryStore())
	svc := service.NewQuoteService(prefs, sc, nil, zap.NewNop())
	guard, err := service.NewGuard("")
	require.NoError(t, err)
	state := service.NewState(svc, guard, zap.NewNop())
	rs := &countingRescheduler{}

	router := gin.New()
	qh := NewQuoteHandler(state, zap.NewNop())
	sh := NewSettingsHandler(prefs, rs, zap.NewNop())
	router.GET("/quote", qh.GetQuote)
	router.POST("/quote/generate", qh.Generate)
	router.GET("/quote/due", qh.Due)
	router.GET("/quote/events", qh.Events)
	router.GET("/settings", sh.Get)
	router.PUT("/settings", sh.Update)
	router.GET("/presets", sh.Presets)

	return &testEnv{router: router, prefs: prefs, state: state, completer: sc, rescheduler: rs}
}

func (e *testEnv) configure(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, e.prefs.SetAPIKey(ctx, "sk-test-1234567890"))
	require.NoError(t, e.prefs.SetBaseURL(ctx, "https://x/"))
	require.NoError(t, e.prefs.SetModel(ctx, "m"))
}

func (e *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}
