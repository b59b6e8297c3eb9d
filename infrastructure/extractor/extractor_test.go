package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emberline/guildhall/domain/extraction"
	"github.com/emberline/guildhall/infrastructure/provider"
)

var testSchema = extraction.Schema{
	Name:        "mission",
	Description: "A session report.",
	Fields: []extraction.Field{
		{Name: "title", Type: extraction.TypeString, Required: true},
		{Name: "xp_reward", Type: extraction.TypeInteger, Nullable: true},
		{Name: "participants", Type: extraction.TypeArray, Required: true, Items: &extraction.Field{Type: extraction.TypeString}},
		{Name: "mood", Type: extraction.TypeString, Enum: []string{"grim", "merry"}},
	},
}

type fakeGenerator struct {
	answer string
	err    error
	last   provider.ChatCompletionRequest
}

func (f *fakeGenerator) ChatCompletion(_ context.Context, req provider.ChatCompletionRequest) (provider.ChatCompletionResponse, error) {
	f.last = req
	if f.err != nil {
		return provider.ChatCompletionResponse{}, f.err
	}
	return provider.NewChatCompletionResponse(f.answer, "stop", provider.NewUsage(1, 1, 2)), nil
}

func TestExtract_SendsSchemaAndReturnsAnswer(t *testing.T) {
	gen := &fakeGenerator{answer: "<think>hmm</think>\n```json\n{\"title\":\"Vault\",\"participants\":[]}\n```"}
	e := NewProviderExtractor(gen, nil)

	raw, err := e.Extract(context.Background(), "we cracked the vault", testSchema)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Vault","participants":[]}`, string(raw))

	msgs := gen.last.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].Role())
	assert.Contains(t, msgs[0].Content(), `"mission"`)
	assert.Equal(t, "we cracked the vault", msgs[1].Content())

	rs, ok := gen.last.ResponseSchema()
	require.True(t, ok)
	assert.Equal(t, "mission", rs.Name)
}

func TestExtract_PropagatesProviderErrors(t *testing.T) {
	boom := provider.NewProviderError("chat_completion", 503, "busy", errors.New("503"))
	e := NewProviderExtractor(&fakeGenerator{err: boom}, nil)

	_, err := e.Extract(context.Background(), "text", testSchema)
	var perr *provider.ProviderError
	require.ErrorAs(t, err, &perr)
}

func TestDefinition(t *testing.T) {
	data, err := json.Marshal(Definition(testSchema))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "object", got["type"])
	assert.Equal(t, false, got["additionalProperties"])
	assert.ElementsMatch(t, []any{"title", "participants"}, got["required"])

	props := got["properties"].(map[string]any)
	assert.Equal(t, "integer", props["xp_reward"].(map[string]any)["type"])
	participants := props["participants"].(map[string]any)
	assert.Equal(t, "array", participants["type"])
	assert.Equal(t, "string", participants["items"].(map[string]any)["type"])
	assert.ElementsMatch(t, []any{"grim", "merry"}, props["mood"].(map[string]any)["enum"])
}

func TestCleanAnswer(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"<think>plan</think>{\"a\":1}", `{"a":1}`},
		{"<think>unclosed {\"a\":1}", `unclosed {"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cleanAnswer(tt.in))
	}
}
