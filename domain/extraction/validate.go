package extraction

import (
	"bytes"
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/emberline/guildhall/internal/domain"
)

// Problem is one way a value fails its schema.
type Problem struct {
	Path    string
	Message string
}

func (p Problem) String() string {
	if p.Path == "" {
		return p.Message
	}
	return p.Path + ": " + p.Message
}

// ValidationError lists every problem found in an extracted object.
type ValidationError struct {
	Schema   string
	Problems []Problem
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = p.String()
	}
	return fmt.Sprintf("extracted %s does not match schema: %s", e.Schema, strings.Join(parts, "; "))
}

// Unwrap lets callers match domain.ErrValidation.
func (e *ValidationError) Unwrap() error { return domain.ErrValidation }

// Record is a validated extraction result. Integers are int64, numbers are
// float64, arrays are []any and absent or null fields are missing.
type Record map[string]any

// String returns a non-empty string field.
func (r Record) String(name string) (string, bool) {
	v, ok := r[name].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// Int returns an integer field.
func (r Record) Int(name string) (int64, bool) {
	v, ok := r[name].(int64)
	return v, ok
}

// Bool returns a boolean field.
func (r Record) Bool(name string) (bool, bool) {
	v, ok := r[name].(bool)
	return v, ok
}

// Strings returns the string elements of an array field.
func (r Record) Strings(name string) []string {
	items, _ := r[name].([]any)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Validate decodes raw and checks it strictly against the schema: the value
// must be an object, required fields must be present, nulls are allowed
// only on nullable fields, types and enums must match and no undeclared
// fields may appear.
func (s Schema) Validate(raw []byte) (Record, error) {
	fail := func(problems ...Problem) error {
		return &ValidationError{Schema: s.Name, Problems: problems}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, fail(Problem{Message: "invalid JSON: " + err.Error()})
	}
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, fail(Problem{Message: "expected an object, got " + kind(value)})
	}

	var problems []Problem
	record := make(Record, len(s.Fields))
	for _, f := range s.Fields {
		v, present := obj[f.Name]
		if !present {
			if f.Required {
				problems = append(problems, Problem{Path: f.Name, Message: "is required"})
			}
			continue
		}
		converted, fieldProblems := checkField(f, f.Name, v)
		problems = append(problems, fieldProblems...)
		if len(fieldProblems) == 0 && converted != nil {
			record[f.Name] = converted
		}
	}

	unknown := make([]string, 0)
	for key := range obj {
		if _, declared := s.Field(key); !declared {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		problems = append(problems, Problem{Path: key, Message: "is not a declared field"})
	}

	if len(problems) > 0 {
		return nil, fail(problems...)
	}
	return record, nil
}

func checkField(f Field, path string, v any) (any, []Problem) {
	if v == nil {
		if f.Nullable {
			return nil, nil
		}
		return nil, []Problem{{Path: path, Message: "must not be null"}}
	}

	mismatch := func() []Problem {
		return []Problem{{Path: path, Message: fmt.Sprintf("expected %s, got %s", f.Type, kind(v))}}
	}

	switch f.Type {
	case TypeString:
		s, ok := v.(string)
		if !ok {
			return nil, mismatch()
		}
		if len(f.Enum) > 0 && !slices.Contains(f.Enum, s) {
			return nil, []Problem{{Path: path, Message: fmt.Sprintf("%q is not one of %s", s, strings.Join(f.Enum, ", "))}}
		}
		return s, nil
	case TypeInteger:
		n, ok := v.(json.Number)
		if !ok {
			return nil, mismatch()
		}
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		fl, err := n.Float64()
		if err != nil || fl != math.Trunc(fl) || math.Abs(fl) > math.MaxInt64 {
			return nil, []Problem{{Path: path, Message: "expected integer, got " + n.String()}}
		}
		return int64(fl), nil
	case TypeNumber:
		n, ok := v.(json.Number)
		if !ok {
			return nil, mismatch()
		}
		fl, err := n.Float64()
		if err != nil {
			return nil, []Problem{{Path: path, Message: "expected number, got " + n.String()}}
		}
		return fl, nil
	case TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, mismatch()
		}
		return b, nil
	case TypeArray:
		items, ok := v.([]any)
		if !ok {
			return nil, mismatch()
		}
		if f.Items == nil {
			return items, nil
		}
		var problems []Problem
		out := make([]any, 0, len(items))
		for i, item := range items {
			converted, itemProblems := checkField(*f.Items, path+"["+strconv.Itoa(i)+"]", item)
			problems = append(problems, itemProblems...)
			if converted != nil {
				out = append(out, converted)
			}
		}
		return out, problems
	default:
		return nil, []Problem{{Path: path, Message: fmt.Sprintf("unsupported field type %q", f.Type)}}
	}
}

func kind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case json.Number:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
