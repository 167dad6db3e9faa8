package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/fleveque/motqot/internal/model"
)

// maxResponseBytes caps how much of a reply we read; a quote is a few hundred bytes.
const maxResponseBytes = 1 << 20

// ChatCompletionClient sends one POST to {baseURL}chat/completions per call.
// The request and response bodies use go-openai's wire types, but the HTTP
// exchange is done here so that status codes, bodies and transport faults
// map onto our own error types without the SDK's retry or error handling.
type ChatCompletionClient struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewChatCompletionClient creates a client whose requests never outlive timeout.
func NewChatCompletionClient(timeout time.Duration, logger *zap.Logger) *ChatCompletionClient {
	return &ChatCompletionClient{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// NewChatCompletionClientWithHTTP uses a caller-supplied http.Client (tests, proxies).
func NewChatCompletionClientWithHTTP(httpClient *http.Client, logger *zap.Logger) *ChatCompletionClient {
	return &ChatCompletionClient{httpClient: httpClient, logger: logger}
}

// BuildRequest returns the chat-completion body for a model and prompt.
func BuildRequest(modelID string, prompt Prompt) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:       modelID,
		MaxTokens:   MaxTokens,
		Temperature: Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System},
			{Role: openai.ChatMessageRoleUser, Content: prompt.User},
		},
	}
}

func (c *ChatCompletionClient) Complete(ctx context.Context, cfg model.ProviderConfig, prompt Prompt) (string, error) {
	if !cfg.Complete() {
		return "", model.ErrConfigIncomplete
	}

	payload, err := json.Marshal(BuildRequest(cfg.Model, prompt))
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	target := ChatCompletionsURL(cfg.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "motqot/1.0")

	c.logger.Debug("requesting completion",
		zap.String("url", target),
		zap.String("model", cfg.Model),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &TransportError{Err: fmt.Errorf("reading body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return ParseCompletion(body)
}

// ParseCompletion extracts and cleans choices[0].message.content.
func ParseCompletion(body []byte) (string, error) {
	var parsed openai.ChatCompletionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}

	text := CleanQuote(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%w: empty content", ErrMalformedResponse)
	}
	return text, nil
}
