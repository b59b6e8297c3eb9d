// Package extractor pulls structured records out of freeform text with a
// language model.
package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/goccy/go-json"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/emberline/guildhall/domain/extraction"
	"github.com/emberline/guildhall/infrastructure/provider"
)

const systemPrompt = `You extract structured data from tabletop game notes written by players.
Answer with a single JSON object that matches the %q schema: %s
Only use information present in the text. Use null for anything the text does not say.
Do not invent participants. Copy character names exactly as written.`

// ProviderExtractor asks a TextGenerator for a JSON document constrained by
// the requested schema.
type ProviderExtractor struct {
	generator   provider.TextGenerator
	maxTokens   int
	temperature float64
	logger      *slog.Logger
}

// NewProviderExtractor creates a ProviderExtractor.
func NewProviderExtractor(generator provider.TextGenerator, logger *slog.Logger) *ProviderExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProviderExtractor{
		generator: generator,
		maxTokens: 1024,
		logger:    logger,
	}
}

// WithMaxTokens sets the completion token limit.
func (e *ProviderExtractor) WithMaxTokens(n int) *ProviderExtractor {
	e.maxTokens = n
	return e
}

// WithTemperature sets the sampling temperature.
func (e *ProviderExtractor) WithTemperature(t float64) *ProviderExtractor {
	e.temperature = t
	return e
}

// Extract implements extraction.Extractor. The answer is returned as sent,
// less reasoning blocks and code fences; callers validate it.
func (e *ProviderExtractor) Extract(ctx context.Context, text string, schema extraction.Schema) (json.RawMessage, error) {
	def := Definition(schema)
	req := provider.NewChatCompletionRequest(
		provider.SystemMessage(fmt.Sprintf(systemPrompt, schema.Name, schema.Description)),
		provider.UserMessage(text),
	).WithMaxTokens(e.maxTokens).
		WithTemperature(e.temperature).
		WithResponseSchema(provider.ResponseSchema{
			Name:        schema.Name,
			Description: schema.Description,
			Schema:      def,
		})

	resp, err := e.generator.ChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	e.logger.DebugContext(ctx, "extraction complete",
		slog.String("schema", schema.Name),
		slog.String("finish_reason", resp.FinishReason()),
		slog.Int("tokens", resp.Usage().TotalTokens()),
	)
	return json.RawMessage(cleanAnswer(resp.Content())), nil
}

// Definition converts a schema into the JSON schema sent to the model.
func Definition(s extraction.Schema) *jsonschema.Definition {
	def := &jsonschema.Definition{
		Type:                 jsonschema.Object,
		Description:          s.Description,
		Properties:           make(map[string]jsonschema.Definition, len(s.Fields)),
		AdditionalProperties: false,
	}
	for _, f := range s.Fields {
		def.Properties[f.Name] = fieldDefinition(f)
		if f.Required {
			def.Required = append(def.Required, f.Name)
		}
	}
	return def
}

func fieldDefinition(f extraction.Field) jsonschema.Definition {
	d := jsonschema.Definition{
		Type:        dataType(f.Type),
		Description: f.Description,
		Enum:        f.Enum,
	}
	if f.Nullable {
		d.Nullable = true
	}
	if f.Items != nil {
		items := fieldDefinition(*f.Items)
		d.Items = &items
	}
	return d
}

func dataType(t extraction.FieldType) jsonschema.DataType {
	switch t {
	case extraction.TypeInteger:
		return jsonschema.Integer
	case extraction.TypeNumber:
		return jsonschema.Number
	case extraction.TypeBoolean:
		return jsonschema.Boolean
	case extraction.TypeArray:
		return jsonschema.Array
	default:
		return jsonschema.String
	}
}

// cleanAnswer drops <think> blocks some models emit and unwraps a fenced
// code block.
func cleanAnswer(text string) string {
	for {
		start := strings.Index(text, "<think>")
		if start == -1 {
			break
		}
		end := strings.Index(text[start:], "</think>")
		if end == -1 {
			text = text[:start] + text[start+len("<think>"):]
			continue
		}
		text = text[:start] + text[start+end+len("</think>"):]
	}
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}

var _ extraction.Extractor = (*ProviderExtractor)(nil)
