package service

import (
	"errors"
	"fmt"

	"github.com/fleveque/motqot/internal/llm"
	"github.com/fleveque/motqot/internal/model"
)

// ErrGenerationInFlight is returned when a generation is already running,
// in this process or in another one sharing the lock file.
var ErrGenerationInFlight = errors.New("quote generation already in progress")

// Describe turns a pipeline error into a message fit for a user.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var httpErr *llm.HTTPError
	var transportErr *llm.TransportError
	switch {
	case errors.Is(err, model.ErrConfigIncomplete):
		return "Provider configuration incomplete: set an API key, base URL and model."
	case errors.Is(err, ErrGenerationInFlight):
		return "A quote is already being generated."
	case errors.As(err, &httpErr):
		return fmt.Sprintf("Quote generation failed: the provider returned HTTP %d.", httpErr.StatusCode)
	case errors.Is(err, llm.ErrMalformedResponse):
		return "Quote generation failed: the provider sent an unexpected response."
	case errors.As(err, &transportErr):
		return "Quote generation failed: could not reach the provider."
	default:
		return "Quote generation failed."
	}
}
