// Package scheduler runs the once-a-day quote refresh and notification.
//
// The loop sleeps until the user's notification time, runs one attempt and
// goes back to sleep. Settings changes call Reschedule so a new notification
// time takes effect without waiting for the old timer.
package scheduler

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/motqot/internal/model"
	"github.com/fleveque/motqot/internal/notify"
	"github.com/fleveque/motqot/internal/service"
	"github.com/fleveque/motqot/internal/storage"
)

// Outcome is the result of one daily run.
type Outcome int

const (
	// Skipped means notifications are disabled.
	Skipped Outcome = iota
	// Failed means the run cannot succeed without user action (incomplete config).
	Failed
	// Retry means a transient failure: provider error or a generation in flight.
	Retry
	// Succeeded means the user was notified.
	Succeeded
)

func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	case Retry:
		return "retry"
	case Succeeded:
		return "succeeded"
	default:
		return "unknown"
	}
}

// Options tunes retries and the notification text.
type Options struct {
	RetryInitial time.Duration
	RetryMax     time.Duration
	MaxAttempts  int
	Title        string
}

// Daily is the periodic task.
type Daily struct {
	state    *service.State
	notifier notify.Notifier
	opts     Options
	now      func() time.Time
	logger   *zap.Logger
	wake     chan struct{}
}

func NewDaily(state *service.State, notifier notify.Notifier, opts Options, logger *zap.Logger) *Daily {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.Title == "" {
		opts.Title = "Daily Motivation"
	}
	return &Daily{
		state:    state,
		notifier: notifier,
		opts:     opts,
		now:      time.Now,
		logger:   logger,
		wake:     make(chan struct{}, 1),
	}
}

// WithClock replaces the clock used to compute the next run.
func (d *Daily) WithClock(now func() time.Time) *Daily {
	d.now = now
	return d
}

// NextRun returns today at hour:minute in now's location, or tomorrow at
// that time if it is not after now.
func NextRun(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Reschedule makes a running Start loop recompute its next run.
func (d *Daily) Reschedule() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Start runs the daily loop until ctx is cancelled. It blocks.
func (d *Daily) Start(ctx context.Context) {
	prefs := d.state.Service().Preferences()

	for {
		hour, minute, err := prefs.NotificationTime(ctx)
		if err != nil {
			d.logger.Error("reading notification time", zap.Error(err))
			hour, minute = storage.DefaultNotificationHour, storage.DefaultNotificationMinute
		}

		next := NextRun(d.now(), hour, minute)
		d.logger.Info("next daily quote", zap.Time("at", next))

		timer := time.NewTimer(next.Sub(d.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-d.wake:
			timer.Stop()
			continue
		case <-timer.C:
		}

		d.Run(ctx)
	}
}

// Run calls RunOnce, retrying Retry outcomes with exponential backoff.
func (d *Daily) Run(ctx context.Context) Outcome {
	delay := d.opts.RetryInitial
	for attempt := 1; ; attempt++ {
		out := d.RunOnce(ctx)
		if out != Retry || attempt >= d.opts.MaxAttempts {
			d.logger.Info("daily run finished",
				zap.Stringer("outcome", out),
				zap.Int("attempts", attempt),
			)
			return out
		}

		d.logger.Warn("daily run will be retried",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
		)
		select {
		case <-ctx.Done():
			return out
		case <-time.After(delay):
		}

		delay *= 2
		if d.opts.RetryMax > 0 && delay > d.opts.RetryMax {
			delay = d.opts.RetryMax
		}
	}
}

// RunOnce performs one attempt: refresh today's quote if due, then notify.
func (d *Daily) RunOnce(ctx context.Context) Outcome {
	svc := d.state.Service()
	prefs := svc.Preferences()

	enabled, err := prefs.NotificationsEnabled(ctx)
	if err != nil {
		d.logger.Error("reading notification setting", zap.Error(err))
		return Retry
	}
	if !enabled {
		return Skipped
	}

	if _, err := svc.ResolveConfig(ctx); err != nil {
		if errors.Is(err, model.ErrConfigIncomplete) {
			d.logger.Warn("daily quote skipped: provider configuration incomplete")
			return Failed
		}
		d.logger.Error("resolving provider config", zap.Error(err))
		return Retry
	}

	due, err := svc.IsDue(ctx)
	if err != nil {
		d.logger.Error("checking whether a quote is due", zap.Error(err))
		return Retry
	}

	var quote *model.Quote
	if !due {
		quote, err = svc.LastQuote(ctx)
		if err != nil {
			d.logger.Error("loading stored quote", zap.Error(err))
			return Retry
		}
	}
	if quote == nil {
		// Due, or today's date is stored but the quote itself is unreadable.
		quote, err = d.state.Refresh(ctx, "")
		switch {
		case errors.Is(err, model.ErrConfigIncomplete):
			return Failed
		case err != nil:
			d.logger.Warn("daily quote generation failed", zap.Error(err))
			return Retry
		}
	}

	n := notify.Notification{Title: d.opts.Title, Body: quote.Text}
	if err := d.notifier.Notify(ctx, n); err != nil {
		d.logger.Error("sending notification", zap.Error(err))
		return Retry
	}
	return Succeeded
}
