package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rawSchema string

func (s rawSchema) MarshalJSON() ([]byte, error) { return []byte(s), nil }

// fakeChatServer mimics the chat completions endpoint. It fails with status
// fail for the first failures requests and records the last request body.
func fakeChatServer(t *testing.T, counter *atomic.Int64, failures int64, fail int, last *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := counter.Add(1)
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if last != nil {
			*last = body
		}
		w.Header().Set("Content-Type", "application/json")
		if n <= failures {
			w.WriteHeader(fail)
			_, _ = w.Write([]byte(`{"error":{"message":"upstream busy","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  body["model"],
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": `{"title":"Vault"}`},
			}},
			"usage": map[string]int{"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOpenAIProvider_ChatCompletionWithSchema(t *testing.T) {
	var counter atomic.Int64
	var last map[string]any
	srv := fakeChatServer(t, &counter, 0, 0, &last)

	p := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL, ChatModel: "test-model", MaxTokens: 256})
	req := NewChatCompletionRequest(SystemMessage("extract"), UserMessage("notes")).
		WithResponseSchema(ResponseSchema{Name: "mission", Schema: rawSchema(`{"type":"object"}`), Strict: true})

	resp, err := p.ChatCompletion(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Vault"}`, resp.Content())
	assert.Equal(t, "stop", resp.FinishReason())
	assert.Equal(t, 17, resp.Usage().TotalTokens())

	assert.Equal(t, "test-model", last["model"])
	assert.EqualValues(t, 256, last["max_tokens"])
	format, ok := last["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_schema", format["type"])
	schema := format["json_schema"].(map[string]any)
	assert.Equal(t, "mission", schema["name"])
	assert.Equal(t, true, schema["strict"])
}

func TestOpenAIProvider_RetriesServerErrors(t *testing.T) {
	var counter atomic.Int64
	srv := fakeChatServer(t, &counter, 2, http.StatusServiceUnavailable, nil)

	p := NewOpenAIProvider(OpenAIConfig{
		APIKey:       "test-key",
		BaseURL:      srv.URL,
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
	})
	_, err := p.ChatCompletion(context.Background(), NewChatCompletionRequest(UserMessage("hi")))
	require.NoError(t, err)
	assert.Equal(t, int64(3), counter.Load())
}

func TestOpenAIProvider_ClientErrorsAreNotRetried(t *testing.T) {
	var counter atomic.Int64
	srv := fakeChatServer(t, &counter, 99, http.StatusBadRequest, nil)

	p := NewOpenAIProvider(OpenAIConfig{
		APIKey:       "test-key",
		BaseURL:      srv.URL,
		MaxRetries:   3,
		InitialDelay: time.Millisecond,
	})
	_, err := p.ChatCompletion(context.Background(), NewChatCompletionRequest(UserMessage("hi")))
	require.Error(t, err)

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusBadRequest, perr.StatusCode())
	assert.Equal(t, "chat_completion", perr.Operation())
	assert.Equal(t, int64(1), counter.Load())
}

func TestOpenAIProvider_CancelledContext(t *testing.T) {
	var counter atomic.Int64
	srv := fakeChatServer(t, &counter, 0, 0, nil)
	p := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.ChatCompletion(ctx, NewChatCompletionRequest(UserMessage("hi")))
	require.Error(t, err)
	assert.Zero(t, counter.Load())
}
