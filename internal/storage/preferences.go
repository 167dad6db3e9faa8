package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/fleveque/motqot/internal/model"
)

// Preference keys. These names are the persisted contract; changing one
// orphans the value stored under the old name.
const (
	KeyAPIKey              = "api_key"
	KeyAPIBaseURL          = "api_base_url"
	KeyAPIModel            = "api_model"
	KeyProviderPreset      = "provider_preset"
	KeyLanguage            = "language_preference"
	KeyEnableNotifications = "enable_notifications"
	KeyNotificationHour    = "notification_hour"
	KeyNotificationMinute  = "notification_minute"
	KeyLastQuote           = "last_quote"
	KeyLastQuoteDate       = "last_quote_date"
)

// Defaults for keys that have one.
const (
	DefaultPreset             = "perplexity"
	DefaultNotificationHour   = 8
	DefaultNotificationMinute = 0
)

// Preferences is a typed view over a KVStore. Absent keys yield the
// documented defaults; nothing is written on read.
type Preferences struct {
	store KVStore
}

// NewPreferences wraps a KVStore.
func NewPreferences(store KVStore) *Preferences {
	return &Preferences{store: store}
}

// Store returns the underlying key-value store.
func (p *Preferences) Store() KVStore {
	return p.store
}

func (p *Preferences) getString(ctx context.Context, key, def string) (string, error) {
	v, ok, err := p.store.Get(ctx, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return def, nil
	}
	return v, nil
}

func (p *Preferences) APIKey(ctx context.Context) (string, error) {
	return p.getString(ctx, KeyAPIKey, "")
}

func (p *Preferences) BaseURL(ctx context.Context) (string, error) {
	return p.getString(ctx, KeyAPIBaseURL, "")
}

func (p *Preferences) Model(ctx context.Context) (string, error) {
	return p.getString(ctx, KeyAPIModel, "")
}

// Preset returns the selected provider preset id, "perplexity" if unset.
func (p *Preferences) Preset(ctx context.Context) (string, error) {
	v, err := p.getString(ctx, KeyProviderPreset, DefaultPreset)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(v) == "" {
		return DefaultPreset, nil
	}
	return v, nil
}

// Language returns the stored language code, "en" if unset or blank.
func (p *Preferences) Language(ctx context.Context) (string, error) {
	v, err := p.getString(ctx, KeyLanguage, model.DefaultLanguage)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(v) == "" {
		return model.DefaultLanguage, nil
	}
	return v, nil
}

// NotificationsEnabled defaults to true.
func (p *Preferences) NotificationsEnabled(ctx context.Context) (bool, error) {
	v, ok, err := p.store.Get(ctx, KeyEnableNotifications)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	enabled, err := strconv.ParseBool(v)
	if err != nil {
		return true, nil
	}
	return enabled, nil
}

// NotificationTime returns the daily hour and minute, 08:00 if unset.
// Out-of-range values fall back to the defaults.
func (p *Preferences) NotificationTime(ctx context.Context) (hour, minute int, err error) {
	hour, err = p.getInt(ctx, KeyNotificationHour, DefaultNotificationHour)
	if err != nil {
		return 0, 0, err
	}
	minute, err = p.getInt(ctx, KeyNotificationMinute, DefaultNotificationMinute)
	if err != nil {
		return 0, 0, err
	}
	if hour < 0 || hour > 23 {
		hour = DefaultNotificationHour
	}
	if minute < 0 || minute > 59 {
		minute = DefaultNotificationMinute
	}
	return hour, minute, nil
}

func (p *Preferences) getInt(ctx context.Context, key string, def int) (int, error) {
	v, ok, err := p.store.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def, nil
	}
	return n, nil
}

// LastQuote returns the stored quote, or nil if none is stored.
// A value that no longer parses is reported as an error so the caller can log it.
func (p *Preferences) LastQuote(ctx context.Context) (*model.Quote, error) {
	v, ok, err := p.store.Get(ctx, KeyLastQuote)
	if err != nil {
		return nil, err
	}
	if !ok || v == "" {
		return nil, nil
	}
	var q model.Quote
	if err := json.Unmarshal([]byte(v), &q); err != nil {
		return nil, fmt.Errorf("parsing stored quote: %w", err)
	}
	return &q, nil
}

// LastQuoteDate returns the stored YYYY-MM-DD string and whether one exists.
func (p *Preferences) LastQuoteDate(ctx context.Context) (string, bool, error) {
	v, ok, err := p.store.Get(ctx, KeyLastQuoteDate)
	if err != nil {
		return "", false, err
	}
	if !ok || v == "" {
		return "", false, nil
	}
	return v, true, nil
}

// SaveQuote stores the quote and then its date. The date gates the daily
// refresh decision, so it is written last.
func (p *Preferences) SaveQuote(ctx context.Context, q model.Quote) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("encoding quote: %w", err)
	}
	if err := p.store.Set(ctx, KeyLastQuote, string(data)); err != nil {
		return err
	}
	return p.store.Set(ctx, KeyLastQuoteDate, q.Day())
}

// MaskAPIKey hides all but the first three and last four characters, for
// display. Short keys are hidden entirely.
func MaskAPIKey(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:3] + "..." + key[len(key)-4:]
}

func (p *Preferences) SetAPIKey(ctx context.Context, v string) error {
	return p.store.Set(ctx, KeyAPIKey, v)
}

func (p *Preferences) SetBaseURL(ctx context.Context, v string) error {
	return p.store.Set(ctx, KeyAPIBaseURL, v)
}

func (p *Preferences) SetModel(ctx context.Context, v string) error {
	return p.store.Set(ctx, KeyAPIModel, v)
}

func (p *Preferences) SetPreset(ctx context.Context, v string) error {
	return p.store.Set(ctx, KeyProviderPreset, v)
}

func (p *Preferences) SetLanguage(ctx context.Context, v string) error {
	return p.store.Set(ctx, KeyLanguage, v)
}

func (p *Preferences) SetNotificationsEnabled(ctx context.Context, enabled bool) error {
	return p.store.Set(ctx, KeyEnableNotifications, strconv.FormatBool(enabled))
}

// SetNotificationTime validates and stores the daily notification time.
func (p *Preferences) SetNotificationTime(ctx context.Context, hour, minute int) error {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return fmt.Errorf("invalid notification time %02d:%02d", hour, minute)
	}
	if err := p.store.Set(ctx, KeyNotificationHour, strconv.Itoa(hour)); err != nil {
		return err
	}
	return p.store.Set(ctx, KeyNotificationMinute, strconv.Itoa(minute))
}
