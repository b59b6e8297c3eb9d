// Package extraction describes the structured fields pulled out of freeform
// text and strictly validates what an extractor returns.
package extraction

import (
	"context"

	"github.com/goccy/go-json"
)

// FieldType is the JSON type of a field.
type FieldType string

// FieldType values.
const (
	TypeString  FieldType = "string"
	TypeInteger FieldType = "integer"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeArray   FieldType = "array"
)

// Field declares one property of the extracted object.
type Field struct {
	Name        string
	Description string
	Type        FieldType
	Enum        []string
	Nullable    bool
	Required    bool
	Items       *Field
}

// Schema declares the object an extractor must produce.
type Schema struct {
	Name        string
	Description string
	Fields      []Field
}

// Field returns the declared field with the given name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Extractor turns freeform text into a JSON object that claims to match
// schema. Callers must validate the result.
type Extractor interface {
	Extract(ctx context.Context, text string, schema Schema) (json.RawMessage, error)
}
