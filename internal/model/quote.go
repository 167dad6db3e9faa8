// Package model defines the core data types for the quote service.
// In Go, we use structs instead of classes. Struct tags (the `json:"..."` and
// `db:"..."` annotations) tell serialization libraries how to map fields.
package model

import (
	"errors"
	"strings"
	"time"
)

// DateLayout is the calendar-day format used for last_quote_date.
// Go formats dates by example: 2006-01-02 is the reference date.
const DateLayout = "2006-01-02"

// DefaultLanguage is used when no language preference is stored.
const DefaultLanguage = "en"

// ErrConfigIncomplete is returned when the API key, base URL or model is blank.
// It is a local check: no network call is ever made with an incomplete config.
var ErrConfigIncomplete = errors.New("provider configuration incomplete")

// Quote is a generated motivational quote. It is never mutated after creation;
// the next day's quote simply overwrites it in storage.
type Quote struct {
	Text        string    `json:"text"`
	GeneratedAt time.Time `json:"generated_at"`
	Language    string    `json:"language"`
}

// Day returns the calendar day the quote was generated on, in the location
// carried by GeneratedAt.
func (q Quote) Day() string {
	return q.GeneratedAt.Format(DateLayout)
}

// ProviderConfig describes one OpenAI-compatible endpoint.
// It is built per request from stored preferences and never persisted as a unit.
type ProviderConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// NewProviderConfig trims every field and normalizes the base URL.
// It returns ErrConfigIncomplete if any field is blank.
func NewProviderConfig(baseURL, apiKey, model string) (ProviderConfig, error) {
	cfg := ProviderConfig{
		BaseURL: strings.TrimSpace(baseURL),
		APIKey:  strings.TrimSpace(apiKey),
		Model:   strings.TrimSpace(model),
	}
	if !cfg.Complete() {
		return ProviderConfig{}, ErrConfigIncomplete
	}
	cfg.BaseURL = NormalizeBaseURL(cfg.BaseURL)
	return cfg, nil
}

// Complete reports whether all three fields are non-blank.
func (c ProviderConfig) Complete() bool {
	return strings.TrimSpace(c.BaseURL) != "" &&
		strings.TrimSpace(c.APIKey) != "" &&
		strings.TrimSpace(c.Model) != ""
}

// NormalizeBaseURL makes sure u ends with exactly one slash.
// normalize(normalize(u)) == normalize(u).
func NormalizeBaseURL(u string) string {
	return strings.TrimRight(strings.TrimSpace(u), "/") + "/"
}

// Generation tracks each call to a completion provider for cost and health monitoring.
type Generation struct {
	ID           int64     `db:"id" json:"id"`
	Provider     string    `db:"provider" json:"provider"`
	Model        string    `db:"model" json:"model"`
	Language     string    `db:"language" json:"language"`
	Success      bool      `db:"success" json:"success"`
	StatusCode   *int      `db:"status_code" json:"status_code,omitempty"`
	ErrorMessage *string   `db:"error_message" json:"error_message,omitempty"`
	DurationMs   int64     `db:"duration_ms" json:"duration_ms"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
