package model

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"adds slash", "https://api.example.com/v1", "https://api.example.com/v1/"},
		{"keeps slash", "https://api.example.com/v1/", "https://api.example.com/v1/"},
		{"collapses slashes", "https://api.example.com/v1///", "https://api.example.com/v1/"},
		{"trims spaces", "  https://api.perplexity.ai ", "https://api.perplexity.ai/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeBaseURL(tt.in)
			if got != tt.want {
				t.Errorf("NormalizeBaseURL(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if again := NormalizeBaseURL(got); again != got {
				t.Errorf("not idempotent: %q -> %q", got, again)
			}
			if !strings.HasSuffix(got, "/") || strings.HasSuffix(got, "//") {
				t.Errorf("expected exactly one trailing slash, got %q", got)
			}
		})
	}
}

func TestNewProviderConfig_Incomplete(t *testing.T) {
	// Every combination of missing/blank fields must be rejected.
	values := []string{"", "   "}
	full := [3]string{"https://api.example.com/v1", "k", "m"}

	for mask := 1; mask < 8; mask++ {
		for _, blank := range values {
			fields := full
			for i := 0; i < 3; i++ {
				if mask&(1<<i) != 0 {
					fields[i] = blank
				}
			}
			_, err := NewProviderConfig(fields[0], fields[1], fields[2])
			if !errors.Is(err, ErrConfigIncomplete) {
				t.Errorf("fields %q: expected ErrConfigIncomplete, got %v", fields, err)
			}
		}
	}
}

func TestNewProviderConfig_Normalizes(t *testing.T) {
	cfg, err := NewProviderConfig(" https://api.example.com/v1 ", " k ", "m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.BaseURL != "https://api.example.com/v1/" {
		t.Errorf("expected normalized base URL, got %q", cfg.BaseURL)
	}
	if cfg.APIKey != "k" {
		t.Errorf("expected trimmed key, got %q", cfg.APIKey)
	}
	if !cfg.Complete() {
		t.Error("expected config to be complete")
	}
}

func TestQuote_Day(t *testing.T) {
	q := Quote{Text: "x", GeneratedAt: time.Date(2026, 3, 9, 23, 59, 0, 0, time.Local)}
	if q.Day() != "2026-03-09" {
		t.Errorf("expected 2026-03-09, got %s", q.Day())
	}
}
