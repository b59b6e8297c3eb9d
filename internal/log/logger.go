// Package log configures slog for the server and CLI, and carries request
// identifiers through context so every *Context log call is tagged.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/emberline/guildhall/internal/config"
)

type contextKey int

const (
	correlationIDKey contextKey = iota
	requestIDKey
	profileIDKey
)

// New creates a logger writing to w. Pretty output is coloured when colour
// is true.
func New(w io.Writer, format config.LogFormat, level string, colour bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var inner slog.Handler
	switch format {
	case config.LogFormatJSON:
		inner = slog.NewJSONHandler(w, opts)
	default:
		inner = newTerminalHandler(w, opts, colour)
	}
	return slog.New(contextHandler{inner: inner})
}

// FromConfig creates a stdout logger from cfg. Colour is disabled when the
// NO_COLOR environment variable is set.
func FromConfig(cfg config.AppConfig) *slog.Logger {
	_, noColour := os.LookupEnv("NO_COLOR")
	return New(os.Stdout, cfg.LogFormat(), cfg.LogLevel(), !noColour)
}

// Configure builds a logger from cfg and installs it as the slog default.
func Configure(cfg config.AppConfig) *slog.Logger {
	l := FromConfig(cfg)
	slog.SetDefault(l)
	return l
}

// ParseLevel maps a level name to a slog level. Unknown names are INFO.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithCorrelationID adds a correlation ID to the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// WithProfileID tags log lines with the signed-in profile.
func WithProfileID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, profileIDKey, id)
}

// CorrelationID extracts the correlation ID from context.
func CorrelationID(ctx context.Context) string { return value(ctx, correlationIDKey) }

// RequestID extracts the request ID from context.
func RequestID(ctx context.Context) string { return value(ctx, requestIDKey) }

// ProfileID extracts the profile ID from context.
func ProfileID(ctx context.Context) string { return value(ctx, profileIDKey) }

func value(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(key).(string)
	return id
}

// contextHandler copies identifiers from the record's context onto it.
type contextHandler struct {
	inner slog.Handler
}

func (h contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := CorrelationID(ctx); id != "" {
		r.AddAttrs(slog.String("correlation_id", id))
	}
	if id := RequestID(ctx); id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}
	if id := ProfileID(ctx); id != "" {
		r.AddAttrs(slog.String("profile_id", id))
	}
	return h.inner.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{inner: h.inner.WithGroup(name)}
}
