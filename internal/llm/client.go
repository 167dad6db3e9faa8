// Package llm talks to chat-completion providers. It builds the quote prompt,
// performs exactly one request per call, and turns the reply into cleaned
// quote text or a typed failure. Retry policy belongs to the caller.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/motqot/internal/model"
)

// Completer is the interface for providers that can produce one completion.
// Both the OpenAI-compatible client and the native Anthropic client implement it.
type Completer interface {
	Complete(ctx context.Context, cfg model.ProviderConfig, prompt Prompt) (string, error)
}

// Request parameters shared by every transport.
const (
	MaxTokens   = 100
	Temperature = 0.7
)

// ErrMalformedResponse is returned for a 2xx reply that has no usable
// choices[0].message.content.
var ErrMalformedResponse = errors.New("malformed completion response")

// HTTPError is a non-2xx reply from the provider.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("provider returned HTTP %d", e.StatusCode)
}

// TransportError wraps a network-level fault: DNS, TLS, timeout, connection
// reset, or context cancellation.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Transport names accepted by NewCompleter.
const (
	TransportChatCompletions = "chat_completions"
	TransportAnthropic       = "anthropic"
	TransportAuto            = "auto"
)

// NewCompleter builds the completer selected by llm.transport.
func NewCompleter(transport string, timeout time.Duration, logger *zap.Logger) (Completer, error) {
	chat := NewChatCompletionClient(timeout, logger)
	switch transport {
	case "", TransportChatCompletions:
		return chat, nil
	case TransportAnthropic:
		return NewAnthropicClient(timeout, logger), nil
	case TransportAuto:
		return &autoCompleter{chat: chat, anthropic: NewAnthropicClient(timeout, logger)}, nil
	default:
		return nil, fmt.Errorf("unknown llm transport: %s", transport)
	}
}

// autoCompleter uses the native Anthropic API for api.anthropic.com and the
// chat-completions endpoint for everything else.
type autoCompleter struct {
	chat      Completer
	anthropic Completer
}

func (a *autoCompleter) Complete(ctx context.Context, cfg model.ProviderConfig, prompt Prompt) (string, error) {
	if ProviderHost(cfg.BaseURL) == anthropicHost {
		return a.anthropic.Complete(ctx, cfg, prompt)
	}
	return a.chat.Complete(ctx, cfg, prompt)
}
