package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/fleveque/motqot/internal/model"
)

const anthropicHost = "api.anthropic.com"

// AnthropicClient implements Completer with Claude's native Messages API.
// It sends the same prompt and sampling parameters as the chat-completions
// client and reports failures with the same error types.
type AnthropicClient struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewAnthropicClient creates a native Messages-API completer.
func NewAnthropicClient(timeout time.Duration, logger *zap.Logger) *AnthropicClient {
	return &AnthropicClient{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// anthropicBaseURL turns a preset-style base URL (".../v1/") into the root the
// SDK expects; the SDK appends "v1/messages" itself.
func anthropicBaseURL(baseURL string) string {
	return strings.TrimSuffix(model.NormalizeBaseURL(baseURL), "v1/")
}

func (a *AnthropicClient) Complete(ctx context.Context, cfg model.ProviderConfig, prompt Prompt) (string, error) {
	if !cfg.Complete() {
		return "", model.ErrConfigIncomplete
	}

	// One client per call: the config comes from user preferences and can
	// change between calls. Retries are disabled; the caller owns retry.
	client := anthropic.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(anthropicBaseURL(cfg.BaseURL)),
		option.WithHTTPClient(a.httpClient),
		option.WithMaxRetries(0),
	)

	a.logger.Debug("requesting anthropic message", zap.String("model", cfg.Model))

	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(cfg.Model),
		MaxTokens:   MaxTokens,
		Temperature: anthropic.Float(Temperature),
		System:      []anthropic.TextBlockParam{{Text: prompt.System}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt.User)),
		},
	})
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return "", &HTTPError{StatusCode: apiErr.StatusCode, Body: apiErr.RawJSON()}
		}
		return "", &TransportError{Err: err}
	}

	// Take the first text block, the Messages-API analogue of choices[0].
	for _, block := range message.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			cleaned := CleanQuote(text.Text)
			if cleaned == "" {
				return "", fmt.Errorf("%w: empty content", ErrMalformedResponse)
			}
			return cleaned, nil
		}
	}
	return "", fmt.Errorf("%w: no text content", ErrMalformedResponse)
}
