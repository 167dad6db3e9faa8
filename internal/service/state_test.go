package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fleveque/motqot/internal/llm"
	"github.com/fleveque/motqot/internal/model"
)

func newTestState(t *testing.T, fc *fakeCompleter) (*State, *QuoteService) {
	t.Helper()
	svc, prefs := newTestService(t, fc)
	configure(t, prefs)
	guard, err := NewGuard("")
	require.NoError(t, err)
	return NewState(svc, guard, zap.NewNop()), svc
}

func TestState_OpenGeneratesWhenNothingCached(t *testing.T) {
	fc := &fakeCompleter{text: "First quote."}
	st, _ := newTestState(t, fc)

	require.NoError(t, st.Open(context.Background()))

	snap := st.Snapshot()
	require.NotNil(t, snap.Quote)
	assert.Equal(t, "First quote.", snap.Quote.Text)
	assert.False(t, snap.Loading)
	assert.Empty(t, snap.Error)
	assert.Equal(t, 1, fc.Calls())
}

func TestState_OpenUsesTodaysQuote(t *testing.T) {
	ctx := context.Background()
	fc := &fakeCompleter{text: "unused"}
	st, svc := newTestState(t, fc)
	require.NoError(t, svc.Preferences().SaveQuote(ctx, model.Quote{
		Text:        "Cached.",
		GeneratedAt: fixedNow,
		Language:    "en",
	}))

	require.NoError(t, st.Open(ctx))

	assert.Equal(t, "Cached.", st.Snapshot().Quote.Text)
	assert.Equal(t, 0, fc.Calls())
}

func TestState_OpenRefreshesStaleQuote(t *testing.T) {
	ctx := context.Background()
	fc := &fakeCompleter{text: "Fresh."}
	st, svc := newTestState(t, fc)
	require.NoError(t, svc.Preferences().SaveQuote(ctx, model.Quote{
		Text:        "Stale.",
		GeneratedAt: fixedNow.AddDate(0, 0, -2),
		Language:    "en",
	}))

	require.NoError(t, st.Open(ctx))

	assert.Equal(t, "Fresh.", st.Snapshot().Quote.Text)
	assert.Equal(t, 1, fc.Calls())
}

func TestState_FailureKeepsQuoteAndReportsError(t *testing.T) {
	ctx := context.Background()
	fc := &fakeCompleter{text: "Good one."}
	st, _ := newTestState(t, fc)
	_, err := st.Refresh(ctx, "")
	require.NoError(t, err)

	fc.err = &llm.HTTPError{StatusCode: 500}
	_, err = st.Refresh(ctx, "")
	require.Error(t, err)

	snap := st.Snapshot()
	assert.Equal(t, "Good one.", snap.Quote.Text)
	assert.Equal(t, "Quote generation failed: the provider returned HTTP 500.", snap.Error)
	assert.False(t, snap.ConfigIncomplete)
}

func TestState_ConfigIncomplete(t *testing.T) {
	fc := &fakeCompleter{text: "never"}
	svc, _ := newTestService(t, fc)
	guard, err := NewGuard("")
	require.NoError(t, err)
	st := NewState(svc, guard, zap.NewNop())

	_, err = st.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, model.ErrConfigIncomplete)
	assert.True(t, st.Snapshot().ConfigIncomplete)
	assert.Equal(t, 0, fc.Calls())
}

func TestState_ConcurrentRefreshIsRejected(t *testing.T) {
	fc := &fakeCompleter{
		text:    "Only once.",
		block:   make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	st, _ := newTestState(t, fc)

	done := make(chan error, 1)
	go func() {
		_, err := st.Refresh(context.Background(), "")
		done <- err
	}()

	select {
	case <-fc.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first refresh never reached the provider")
	}
	assert.True(t, st.Snapshot().Loading)

	_, err := st.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, ErrGenerationInFlight)

	close(fc.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, fc.Calls())
}

func TestState_Subscribe(t *testing.T) {
	fc := &fakeCompleter{text: "Observed."}
	st, _ := newTestState(t, fc)

	updates, cancel := st.Subscribe()
	defer cancel()

	initial := <-updates
	assert.Nil(t, initial.Quote)

	_, err := st.Refresh(context.Background(), "")
	require.NoError(t, err)

	// Only the newest snapshot is buffered.
	select {
	case snap := <-updates:
		require.NotNil(t, snap.Quote)
		assert.Equal(t, "Observed.", snap.Quote.Text)
		assert.False(t, snap.Loading)
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}

	cancel()
	_, err = st.Refresh(context.Background(), "")
	require.NoError(t, err)
	select {
	case <-updates:
		t.Fatal("received update after cancel")
	default:
	}
}
