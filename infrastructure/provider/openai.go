package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Defaults for OpenAI-compatible endpoints.
const (
	DefaultChatModel     = "gpt-4o-mini"
	DefaultMaxRetries    = 3
	DefaultInitialDelay  = 2 * time.Second
	DefaultBackoffFactor = 2.0
)

// OpenAIProvider generates chat completions against an OpenAI-compatible API.
type OpenAIProvider struct {
	client        *openai.Client
	chatModel     string
	maxTokens     int
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
}

// OpenAIConfig configures an OpenAIProvider. Zero values use the defaults.
type OpenAIConfig struct {
	APIKey        string
	BaseURL       string
	ChatModel     string
	MaxTokens     int
	Timeout       time.Duration
	MaxRetries    int
	InitialDelay  time.Duration
	BackoffFactor float64
	Transport     http.RoundTripper
}

// NewOpenAIProvider creates a provider from cfg.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	if cfg.Timeout > 0 || cfg.Transport != nil {
		config.HTTPClient = &http.Client{Timeout: cfg.Timeout, Transport: cfg.Transport}
	}

	p := &OpenAIProvider{
		client:        openai.NewClientWithConfig(config),
		chatModel:     cfg.ChatModel,
		maxTokens:     cfg.MaxTokens,
		maxRetries:    cfg.MaxRetries,
		initialDelay:  cfg.InitialDelay,
		backoffFactor: cfg.BackoffFactor,
	}
	if p.chatModel == "" {
		p.chatModel = DefaultChatModel
	}
	if p.maxRetries < 0 {
		p.maxRetries = 0
	}
	if p.initialDelay <= 0 {
		p.initialDelay = DefaultInitialDelay
	}
	if p.backoffFactor <= 0 {
		p.backoffFactor = DefaultBackoffFactor
	}
	return p
}

// Model returns the chat model name.
func (p *OpenAIProvider) Model() string { return p.chatModel }

// ChatCompletion generates a chat completion, retrying transient failures
// with exponential backoff.
func (p *OpenAIProvider) ChatCompletion(ctx context.Context, req ChatCompletionRequest) (ChatCompletionResponse, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages()))
	for _, m := range req.Messages() {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role(), Content: m.Content()})
	}

	oreq := openai.ChatCompletionRequest{
		Model:    p.chatModel,
		Messages: messages,
	}
	switch {
	case req.MaxTokens() > 0:
		oreq.MaxTokens = req.MaxTokens()
	case p.maxTokens > 0:
		oreq.MaxTokens = p.maxTokens
	}
	if req.Temperature() > 0 {
		oreq.Temperature = float32(req.Temperature())
	}
	if s, ok := req.ResponseSchema(); ok {
		oreq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:        s.Name,
				Description: s.Description,
				Schema:      s.Schema,
				Strict:      s.Strict,
			},
		}
	}

	var resp openai.ChatCompletionResponse
	err := p.withRetry(ctx, func() error {
		var err error
		resp, err = p.client.CreateChatCompletion(ctx, oreq)
		return err
	})
	if err != nil {
		return ChatCompletionResponse{}, wrapError("chat_completion", err)
	}
	if len(resp.Choices) == 0 {
		return ChatCompletionResponse{}, NewProviderError("chat_completion", 0, "no choices in response", nil)
	}

	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return ChatCompletionResponse{}, NewProviderError("chat_completion", 0, "model refused: "+choice.Message.Refusal, nil)
	}
	usage := NewUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
	return NewChatCompletionResponse(choice.Message.Content, string(choice.FinishReason), usage), nil
}

func (p *OpenAIProvider) withRetry(ctx context.Context, fn func() error) error {
	delay := p.initialDelay
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		if attempt < p.maxRetries {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
				delay = time.Duration(float64(delay) * p.backoffFactor)
			}
		}
	}
	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func retryable(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	var reqErr *openai.RequestError
	return errors.As(err, &reqErr) && reqErr.HTTPStatusCode >= http.StatusInternalServerError
}

func wrapError(operation string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return NewProviderError(operation, apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return NewProviderError(operation, reqErr.HTTPStatusCode, reqErr.Error(), err)
	}
	return NewProviderError(operation, 0, err.Error(), err)
}

var _ TextGenerator = (*OpenAIProvider)(nil)
