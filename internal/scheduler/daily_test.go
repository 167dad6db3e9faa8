package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fleveque/motqot/internal/llm"
	"github.com/fleveque/motqot/internal/model"
	"github.com/fleveque/motqot/internal/notify"
	"github.com/fleveque/motqot/internal/service"
	"github.com/fleveque/motqot/internal/storage"
)

type stubCompleter struct {
	mu    sync.Mutex
	calls int
	errs  []error // consumed one per call; nil entries succeed
}

func (s *stubCompleter) Complete(context.Context, model.ProviderConfig, llm.Prompt) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		if err != nil {
			return "", err
		}
	}
	return "Daily dose.", nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n notify.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

var today = time.Date(2024, 5, 1, 8, 0, 0, 0, time.Local)

func setup(t *testing.T, sc *stubCompleter, opts Options) (*Daily, *storage.Preferences, *recordingNotifier) {
	t.Helper()
	prefs := storage.NewPreferences(storage.NewMemoryStore())
	svc := service.NewQuoteService(prefs, sc, nil, zap.NewNop()).
		WithClock(func() time.Time { return today })
	guard, err := service.NewGuard("")
	require.NoError(t, err)
	state := service.NewState(svc, guard, zap.NewNop())
	rn := &recordingNotifier{}
	return NewDaily(state, rn, opts, zap.NewNop()), prefs, rn
}

func configure(t *testing.T, prefs *storage.Preferences) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, prefs.SetAPIKey(ctx, "k"))
	require.NoError(t, prefs.SetBaseURL(ctx, "https://x/"))
	require.NoError(t, prefs.SetModel(ctx, "m"))
}

func TestNextRun(t *testing.T) {
	loc := time.Local
	tests := []struct {
		name         string
		now          time.Time
		hour, minute int
		want         time.Time
	}{
		{"later today", time.Date(2024, 5, 1, 7, 0, 0, 0, loc), 8, 0, time.Date(2024, 5, 1, 8, 0, 0, 0, loc)},
		{"already passed", time.Date(2024, 5, 1, 9, 0, 0, 0, loc), 8, 0, time.Date(2024, 5, 2, 8, 0, 0, 0, loc)},
		{"exactly now", time.Date(2024, 5, 1, 8, 0, 0, 0, loc), 8, 0, time.Date(2024, 5, 2, 8, 0, 0, 0, loc)},
		{"month rollover", time.Date(2024, 5, 31, 23, 30, 0, 0, loc), 6, 15, time.Date(2024, 6, 1, 6, 15, 0, 0, loc)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(NextRun(tt.now, tt.hour, tt.minute)))
		})
	}
}

func TestRunOnce_NotificationsDisabled(t *testing.T) {
	sc := &stubCompleter{}
	d, prefs, rn := setup(t, sc, Options{})
	configure(t, prefs)
	require.NoError(t, prefs.SetNotificationsEnabled(context.Background(), false))

	assert.Equal(t, Skipped, d.RunOnce(context.Background()))
	assert.Equal(t, 0, sc.calls)
	assert.Empty(t, rn.sent)
}

func TestRunOnce_ConfigIncomplete(t *testing.T) {
	sc := &stubCompleter{}
	d, _, rn := setup(t, sc, Options{})

	assert.Equal(t, Failed, d.RunOnce(context.Background()))
	assert.Equal(t, 0, sc.calls)
	assert.Empty(t, rn.sent)
}

func TestRunOnce_GeneratesWhenDue(t *testing.T) {
	sc := &stubCompleter{}
	d, prefs, rn := setup(t, sc, Options{Title: "Good morning"})
	configure(t, prefs)

	assert.Equal(t, Succeeded, d.RunOnce(context.Background()))
	assert.Equal(t, 1, sc.calls)
	require.Len(t, rn.sent, 1)
	assert.Equal(t, notify.Notification{Title: "Good morning", Body: "Daily dose."}, rn.sent[0])

	// Second run the same day reuses the stored quote.
	assert.Equal(t, Succeeded, d.RunOnce(context.Background()))
	assert.Equal(t, 1, sc.calls)
	assert.Len(t, rn.sent, 2)
}

func TestRunOnce_ProviderFailureRetries(t *testing.T) {
	sc := &stubCompleter{errs: []error{&llm.HTTPError{StatusCode: 503}}}
	d, prefs, rn := setup(t, sc, Options{})
	configure(t, prefs)

	assert.Equal(t, Retry, d.RunOnce(context.Background()))
	assert.Empty(t, rn.sent)
}

func TestRun_BackoffUntilSuccess(t *testing.T) {
	sc := &stubCompleter{errs: []error{
		&llm.TransportError{Err: errors.New("reset")},
		llm.ErrMalformedResponse,
	}}
	d, prefs, rn := setup(t, sc, Options{
		RetryInitial: time.Millisecond,
		RetryMax:     2 * time.Millisecond,
		MaxAttempts:  5,
	})
	configure(t, prefs)

	assert.Equal(t, Succeeded, d.Run(context.Background()))
	assert.Equal(t, 3, sc.calls)
	assert.Len(t, rn.sent, 1)
}

func TestRun_GivesUpAfterMaxAttempts(t *testing.T) {
	fail := &llm.HTTPError{StatusCode: 500}
	sc := &stubCompleter{errs: []error{fail, fail, fail, fail}}
	d, prefs, _ := setup(t, sc, Options{
		RetryInitial: time.Millisecond,
		MaxAttempts:  2,
	})
	configure(t, prefs)

	assert.Equal(t, Retry, d.Run(context.Background()))
	assert.Equal(t, 2, sc.calls)
}

func TestStart_StopsOnCancel(t *testing.T) {
	d, _, _ := setup(t, &stubCompleter{}, Options{})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		d.Start(ctx)
		close(done)
	}()

	d.Reschedule()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
