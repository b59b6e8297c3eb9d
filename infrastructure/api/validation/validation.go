// Package validation checks API request bodies with struct tags.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/emberline/guildhall/internal/domain"
)

// MaxBodyBytes caps a JSON request body.
const MaxBodyBytes = 1 << 20

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is one problem with one request field.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// RequestError lists every field problem in a request. It matches
// domain.ErrValidation.
type RequestError struct {
	fields []FieldError
}

// NewRequestError creates a RequestError from field problems.
func NewRequestError(fields ...FieldError) *RequestError {
	return &RequestError{fields: fields}
}

// Fields returns the field problems.
func (e *RequestError) Fields() []FieldError {
	return append([]FieldError(nil), e.fields...)
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if len(e.fields) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(e.fields))
	for i, f := range e.fields {
		messages[i] = f.Message
	}
	return strings.Join(messages, "; ")
}

// Unwrap lets callers match domain.ErrValidation.
func (e *RequestError) Unwrap() error { return domain.ErrValidation }

// Validator returns the shared validator. Field names in messages are the
// JSON names.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				name, _, _ = strings.Cut(f.Tag.Get("form"), ",")
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Struct validates s against its tags.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return NewRequestError(FieldError{Field: "body", Tag: "invalid", Message: err.Error()})
	}

	fields := make([]FieldError, len(fieldErrs))
	for i, fe := range fieldErrs {
		fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: translate(fe),
		}
	}
	return NewRequestError(fields...)
}

// Decode reads a JSON body into dst and validates it.
func Decode(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	defer func() { _ = body.Close() }()

	raw, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return NewRequestError(FieldError{Field: "body", Tag: "max", Message: fmt.Sprintf("request body must be at most %d bytes", MaxBodyBytes)})
		}
		return fmt.Errorf("read request body: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return NewRequestError(FieldError{Field: "body", Tag: "required", Message: "request body is required"})
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return NewRequestError(FieldError{Field: "body", Tag: "json", Message: "request body is not valid JSON"})
	}
	return Struct(dst)
}

var messages = map[string]string{
	"required": "%s is required",
	"email":    "%s must be a valid email address",
	"url":      "%s must be a valid URL",
	"http_url": "%s must be an http or https URL",
	"uuid":     "%s must be a UUID",
	"uuid4":    "%s must be a UUID",
}

var messagesWithParam = map[string]string{
	"oneof": "%s must be one of: %s",
	"gte":   "%s must be greater than or equal to %s",
	"lte":   "%s must be less than or equal to %s",
	"gt":    "%s must be greater than %s",
	"lt":    "%s must be less than %s",
}

func translate(fe validator.FieldError) string {
	field, tag, param := fe.Field(), fe.Tag(), fe.Param()

	if msg, ok := messages[tag]; ok {
		return fmt.Sprintf(msg, field)
	}
	if msg, ok := messagesWithParam[tag]; ok {
		return fmt.Sprintf(msg, field, param)
	}

	text := fe.Kind() == reflect.String
	switch tag {
	case "min":
		if text {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if text {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
