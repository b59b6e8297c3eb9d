// Package provider talks to language models behind a small chat completion
// abstraction.
package provider

import (
	"context"
	"errors"
	"net/http"

	"github.com/goccy/go-json"
)

// ErrUnsupportedOperation indicates the provider cannot serve the request.
var ErrUnsupportedOperation = errors.New("operation not supported by this provider")

// Message is one chat message.
type Message struct {
	role    string
	content string
}

// NewMessage creates a Message.
func NewMessage(role, content string) Message {
	return Message{role: role, content: content}
}

// Role returns "system", "user" or "assistant".
func (m Message) Role() string { return m.role }

// Content returns the message text.
func (m Message) Content() string { return m.content }

// SystemMessage creates a system message.
func SystemMessage(content string) Message { return NewMessage("system", content) }

// UserMessage creates a user message.
func UserMessage(content string) Message { return NewMessage("user", content) }

// ResponseSchema constrains a completion to a JSON document.
type ResponseSchema struct {
	Name        string
	Description string
	Schema      json.Marshaler
	Strict      bool
}

// ChatCompletionRequest is a request for text generation.
type ChatCompletionRequest struct {
	messages    []Message
	maxTokens   int
	temperature float64
	schema      *ResponseSchema
}

// NewChatCompletionRequest creates a request with provider defaults.
func NewChatCompletionRequest(messages ...Message) ChatCompletionRequest {
	return ChatCompletionRequest{messages: append([]Message(nil), messages...)}
}

// WithMaxTokens returns a copy limited to n completion tokens.
func (r ChatCompletionRequest) WithMaxTokens(n int) ChatCompletionRequest {
	r.maxTokens = n
	return r
}

// WithTemperature returns a copy with the sampling temperature set.
func (r ChatCompletionRequest) WithTemperature(t float64) ChatCompletionRequest {
	r.temperature = t
	return r
}

// WithResponseSchema returns a copy whose answer must match s.
func (r ChatCompletionRequest) WithResponseSchema(s ResponseSchema) ChatCompletionRequest {
	r.schema = &s
	return r
}

// Messages returns the messages.
func (r ChatCompletionRequest) Messages() []Message {
	return append([]Message(nil), r.messages...)
}

// MaxTokens returns the token limit, or 0 for the provider default.
func (r ChatCompletionRequest) MaxTokens() int { return r.maxTokens }

// Temperature returns the temperature, or 0 for the provider default.
func (r ChatCompletionRequest) Temperature() float64 { return r.temperature }

// ResponseSchema returns the response constraint, if any.
func (r ChatCompletionRequest) ResponseSchema() (ResponseSchema, bool) {
	if r.schema == nil {
		return ResponseSchema{}, false
	}
	return *r.schema, true
}

// ChatCompletionResponse is a generated answer.
type ChatCompletionResponse struct {
	content      string
	finishReason string
	usage        Usage
}

// NewChatCompletionResponse creates a ChatCompletionResponse.
func NewChatCompletionResponse(content, finishReason string, usage Usage) ChatCompletionResponse {
	return ChatCompletionResponse{content: content, finishReason: finishReason, usage: usage}
}

// Content returns the generated text.
func (r ChatCompletionResponse) Content() string { return r.content }

// FinishReason returns why generation stopped.
func (r ChatCompletionResponse) FinishReason() string { return r.finishReason }

// Usage returns token counts.
func (r ChatCompletionResponse) Usage() Usage { return r.usage }

// Usage is token accounting for one call.
type Usage struct {
	promptTokens     int
	completionTokens int
	totalTokens      int
}

// NewUsage creates a Usage.
func NewUsage(prompt, completion, total int) Usage {
	return Usage{promptTokens: prompt, completionTokens: completion, totalTokens: total}
}

// PromptTokens returns the prompt token count.
func (u Usage) PromptTokens() int { return u.promptTokens }

// CompletionTokens returns the completion token count.
func (u Usage) CompletionTokens() int { return u.completionTokens }

// TotalTokens returns the total token count.
func (u Usage) TotalTokens() int { return u.totalTokens }

// TextGenerator generates chat completions.
type TextGenerator interface {
	ChatCompletion(ctx context.Context, req ChatCompletionRequest) (ChatCompletionResponse, error)
}

// ProviderError is a failed call to a model endpoint.
type ProviderError struct {
	operation  string
	statusCode int
	message    string
	cause      error
}

// NewProviderError creates a ProviderError.
func NewProviderError(operation string, statusCode int, message string, cause error) *ProviderError {
	return &ProviderError{operation: operation, statusCode: statusCode, message: message, cause: cause}
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.cause != nil && e.cause.Error() != e.message {
		return e.operation + ": " + e.message + ": " + e.cause.Error()
	}
	return e.operation + ": " + e.message
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error { return e.cause }

// Operation returns the failed operation.
func (e *ProviderError) Operation() string { return e.operation }

// StatusCode returns the upstream HTTP status, or 0.
func (e *ProviderError) StatusCode() int { return e.statusCode }

// Message returns the upstream message.
func (e *ProviderError) Message() string { return e.message }

// IsRateLimited reports whether the upstream rejected the call for rate.
func (e *ProviderError) IsRateLimited() bool {
	return e.statusCode == http.StatusTooManyRequests
}
