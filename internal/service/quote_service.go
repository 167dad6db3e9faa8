// Package service contains the quote pipeline and the state holder built on it.
//
// QuoteService is stateless: every piece of state lives in the preference
// store, so the CLI, the scheduler and the HTTP API can each build one and
// see the same "current quote". Each Generate call runs:
//
//	ConfigMissing: blank key/URL/model after preset defaults, stop without a network call
//	Ready:         resolve language, build prompt
//	InFlight:      one provider call
//	Succeeded:     persist quote, then its date
//	Failed:        return the error, persist nothing
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/motqot/internal/llm"
	"github.com/fleveque/motqot/internal/model"
	"github.com/fleveque/motqot/internal/provider"
	"github.com/fleveque/motqot/internal/storage"
)

// QuoteService resolves configuration, decides whether a quote is due and
// generates new quotes. It does no locking of its own; see Guard and State.
type QuoteService struct {
	prefs       *storage.Preferences
	completer   llm.Completer
	generations storage.GenerationRepository // nil disables call tracking
	now         func() time.Time
	logger      *zap.Logger
}

// NewQuoteService wires the pipeline. generations may be nil.
func NewQuoteService(
	prefs *storage.Preferences,
	completer llm.Completer,
	generations storage.GenerationRepository,
	logger *zap.Logger,
) *QuoteService {
	return &QuoteService{
		prefs:       prefs,
		completer:   completer,
		generations: generations,
		now:         time.Now,
		logger:      logger,
	}
}

// WithClock replaces the clock. Tests use it to pin the date.
func (s *QuoteService) WithClock(now func() time.Time) *QuoteService {
	s.now = now
	return s
}

// Preferences returns the store the service reads and writes.
func (s *QuoteService) Preferences() *storage.Preferences {
	return s.prefs
}

// Today returns the current calendar day as YYYY-MM-DD in local time.
func (s *QuoteService) Today() string {
	return s.now().Format(model.DateLayout)
}

// ResolveConfig builds the provider config from stored preferences. When both
// base URL and model are blank, the selected preset's defaults are written
// first. Any blank field yields model.ErrConfigIncomplete.
func (s *QuoteService) ResolveConfig(ctx context.Context) (model.ProviderConfig, error) {
	applied, err := provider.EnsureDefaults(ctx, s.prefs)
	if err != nil {
		return model.ProviderConfig{}, fmt.Errorf("applying preset defaults: %w", err)
	}
	if applied {
		s.logger.Info("applied provider preset defaults")
	}

	apiKey, err := s.prefs.APIKey(ctx)
	if err != nil {
		return model.ProviderConfig{}, fmt.Errorf("reading api key: %w", err)
	}
	baseURL, err := s.prefs.BaseURL(ctx)
	if err != nil {
		return model.ProviderConfig{}, fmt.Errorf("reading base url: %w", err)
	}
	modelID, err := s.prefs.Model(ctx)
	if err != nil {
		return model.ProviderConfig{}, fmt.Errorf("reading model: %w", err)
	}

	return model.NewProviderConfig(baseURL, apiKey, modelID)
}

// IsDue reports whether today's quote still has to be generated: true when
// no date is stored or the stored date is not today. It never writes.
func (s *QuoteService) IsDue(ctx context.Context) (bool, error) {
	last, ok, err := s.prefs.LastQuoteDate(ctx)
	if err != nil {
		return false, fmt.Errorf("reading last quote date: %w", err)
	}
	if !ok {
		return true, nil
	}
	return last != s.Today(), nil
}

// LastQuote returns the stored quote, or nil. A corrupt stored value is
// logged and treated as absent.
func (s *QuoteService) LastQuote(ctx context.Context) (*model.Quote, error) {
	q, err := s.prefs.LastQuote(ctx)
	if err != nil {
		s.logger.Warn("ignoring unreadable stored quote", zap.Error(err))
		return nil, nil
	}
	return q, nil
}

// Language returns the override when set, else the stored preference.
func (s *QuoteService) Language(ctx context.Context, override string) (string, error) {
	if lang := strings.TrimSpace(override); lang != "" {
		return lang, nil
	}
	return s.prefs.Language(ctx)
}

// Generate asks the provider for a new quote and persists it on success.
// On failure the previously stored quote stays current.
func (s *QuoteService) Generate(ctx context.Context, languageOverride string) (*model.Quote, error) {
	cfg, err := s.ResolveConfig(ctx)
	if err != nil {
		return nil, err
	}

	lang, err := s.Language(ctx, languageOverride)
	if err != nil {
		return nil, fmt.Errorf("reading language: %w", err)
	}

	prompt := llm.BuildPrompt(lang)

	start := time.Now()
	text, err := s.completer.Complete(ctx, cfg, prompt)
	duration := time.Since(start)

	s.recordCall(ctx, cfg, lang, err, duration)

	if err != nil {
		s.logger.Warn("quote generation failed",
			zap.String("provider", llm.ProviderHost(cfg.BaseURL)),
			zap.String("model", cfg.Model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, fmt.Errorf("generating quote: %w", err)
	}

	quote := model.Quote{
		Text:        text,
		GeneratedAt: s.now(),
		Language:    lang,
	}
	if err := s.prefs.SaveQuote(ctx, quote); err != nil {
		return nil, fmt.Errorf("saving quote: %w", err)
	}

	s.logger.Info("generated quote",
		zap.String("provider", llm.ProviderHost(cfg.BaseURL)),
		zap.String("language", lang),
		zap.Duration("duration", duration),
	)
	return &quote, nil
}

// recordCall stores one Generation row. Tracking is best effort: a failure
// here is logged and never fails the generation.
func (s *QuoteService) recordCall(ctx context.Context, cfg model.ProviderConfig, lang string, callErr error, duration time.Duration) {
	if s.generations == nil {
		return
	}

	g := &model.Generation{
		Provider:   llm.ProviderHost(cfg.BaseURL),
		Model:      cfg.Model,
		Language:   lang,
		Success:    callErr == nil,
		DurationMs: duration.Milliseconds(),
	}
	if callErr != nil {
		msg := callErr.Error()
		g.ErrorMessage = &msg
		var httpErr *llm.HTTPError
		if errors.As(callErr, &httpErr) {
			code := httpErr.StatusCode
			g.StatusCode = &code
		}
	}

	// A cancelled request context must not prevent the bookkeeping write.
	if err := s.generations.Create(context.WithoutCancel(ctx), g); err != nil {
		s.logger.Error("recording generation", zap.Error(err))
	}
}
