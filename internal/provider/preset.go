// Package provider holds the catalog of known OpenAI-compatible providers.
// A preset is a named default base URL + model; the user picks one and the
// catalog copies its values into the stored preferences.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fleveque/motqot/internal/storage"
)

// Preset identifiers.
const (
	PresetOpenAI     = "openai"
	PresetOpenRouter = "openrouter"
	PresetAnthropic  = "anthropic"
	PresetMistral    = "mistral"
	PresetPerplexity = "perplexity"
	// PresetCustom has no defaults: applying it leaves user-entered values alone.
	PresetCustom = "custom"
)

// ErrUnknownPreset is returned when applying an id outside the catalog.
var ErrUnknownPreset = errors.New("unknown provider preset")

// Preset is a named bundle of default base URL + model.
type Preset struct {
	ID      string `json:"id"`
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
}

var presets = map[string]Preset{
	PresetOpenAI: {
		ID:      PresetOpenAI,
		BaseURL: "https://api.openai.com/v1/",
		Model:   "gpt-4o-mini",
	},
	PresetOpenRouter: {
		ID:      PresetOpenRouter,
		BaseURL: "https://openrouter.ai/api/v1/",
		Model:   "openrouter/auto",
	},
	PresetAnthropic: {
		ID:      PresetAnthropic,
		BaseURL: "https://api.anthropic.com/v1/",
		Model:   "claude-3-5-sonnet-20241022",
	},
	PresetMistral: {
		ID:      PresetMistral,
		BaseURL: "https://api.mistral.ai/v1/",
		Model:   "mistral-large-latest",
	},
	PresetPerplexity: {
		ID:      PresetPerplexity,
		BaseURL: "https://api.perplexity.ai/",
		Model:   "sonar",
	},
}

// ids is the display order; custom is always last.
var ids = []string{
	PresetOpenAI,
	PresetOpenRouter,
	PresetAnthropic,
	PresetMistral,
	PresetPerplexity,
	PresetCustom,
}

// Get looks up a preset. Unknown ids and "custom" return false.
func Get(id string) (Preset, bool) {
	p, ok := presets[id]
	return p, ok
}

// IDs returns every selectable preset id, including "custom".
func IDs() []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// Valid reports whether id can be selected.
func Valid(id string) bool {
	return id == PresetCustom || presetExists(id)
}

func presetExists(id string) bool {
	_, ok := presets[id]
	return ok
}

// Apply overwrites the stored base URL and model with the preset's values.
// The API key is never touched. Applying "custom" is a no-op.
func Apply(ctx context.Context, id string, prefs *storage.Preferences) error {
	if id == PresetCustom {
		return nil
	}
	p, ok := Get(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPreset, id)
	}
	if err := prefs.SetBaseURL(ctx, p.BaseURL); err != nil {
		return fmt.Errorf("applying preset %s: %w", id, err)
	}
	if err := prefs.SetModel(ctx, p.Model); err != nil {
		return fmt.Errorf("applying preset %s: %w", id, err)
	}
	return nil
}

// EnsureDefaults applies the stored preset (perplexity when none is stored)
// when both the base URL and the model are blank. It reports whether it
// wrote anything.
func EnsureDefaults(ctx context.Context, prefs *storage.Preferences) (bool, error) {
	baseURL, err := prefs.BaseURL(ctx)
	if err != nil {
		return false, err
	}
	model, err := prefs.Model(ctx)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(baseURL) != "" || strings.TrimSpace(model) != "" {
		return false, nil
	}

	id, err := prefs.Preset(ctx)
	if err != nil {
		return false, err
	}
	if !presetExists(id) {
		// custom (or a stale id): nothing to seed from
		return false, nil
	}
	if err := Apply(ctx, id, prefs); err != nil {
		return false, err
	}
	return true, nil
}
