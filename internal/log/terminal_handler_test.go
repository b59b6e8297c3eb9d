package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(level slog.Level, msg string, attrs ...slog.Attr) slog.Record {
	r := slog.NewRecord(time.Date(2026, 1, 15, 10, 30, 45, 123000000, time.UTC), level, msg, 0)
	r.AddAttrs(attrs...)
	return r
}

func TestTerminalHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	h := newTerminalHandler(&buf, nil, false)

	require.NoError(t, h.Handle(context.Background(), record(slog.LevelInfo, "server started", slog.Int("port", 8080))))
	assert.Equal(t, "10:30:45.123 INF server started port=8080\n", buf.String())
}

func TestTerminalHandler_Levels(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, "DBG"},
		{slog.LevelInfo, "INF"},
		{slog.LevelWarn, "WRN"},
		{slog.LevelError, "ERR"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			var buf bytes.Buffer
			h := newTerminalHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}, false)
			require.NoError(t, h.Handle(context.Background(), record(tt.level, "msg")))
			assert.Contains(t, buf.String(), " "+tt.want+" ")
		})
	}
}

func TestTerminalHandler_Colour(t *testing.T) {
	var coloured, plain bytes.Buffer
	require.NoError(t, newTerminalHandler(&coloured, nil, true).Handle(context.Background(), record(slog.LevelError, "boom")))
	require.NoError(t, newTerminalHandler(&plain, nil, false).Handle(context.Background(), record(slog.LevelError, "boom")))

	assert.Contains(t, coloured.String(), ansiRed+"ERR"+ansiReset)
	assert.NotContains(t, plain.String(), "\033[")
}

func TestTerminalHandler_DefaultLevelIsInfo(t *testing.T) {
	h := newTerminalHandler(&bytes.Buffer{}, nil, false)
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, h.Enabled(context.Background(), slog.LevelInfo))
}

func TestTerminalHandler_WithAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newTerminalHandler(&buf, nil, false)).
		With("service", "import").
		WithGroup("mission").
		With("id", "m1")

	logger.Info("linked", slog.Group("character", slog.String("name", "Aria")), slog.Int("score", 0))

	out := buf.String()
	assert.Contains(t, out, "service=import mission.id=m1")
	assert.Contains(t, out, "mission.character.name=Aria")
	assert.Contains(t, out, "mission.score=0")
}

func TestTerminalHandler_WithAttrsDoesNotLeak(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(newTerminalHandler(&buf, nil, false))
	_ = base.With("scoped", "yes")

	base.Info("plain")
	assert.NotContains(t, buf.String(), "scoped")
}

func TestTerminalHandler_QuotesAwkwardStrings(t *testing.T) {
	var buf bytes.Buffer
	h := newTerminalHandler(&buf, nil, false)

	require.NoError(t, h.Handle(context.Background(), record(slog.LevelInfo, "m",
		slog.String("name", "Kael the Bold"),
		slog.String("empty", ""),
		slog.String("plain", "Aria"),
	)))
	line := strings.TrimSpace(buf.String())
	assert.Contains(t, line, `name="Kael the Bold"`)
	assert.Contains(t, line, `empty=""`)
	assert.Contains(t, line, "plain=Aria")
}

func TestTerminalHandler_SkipsEmptyAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := newTerminalHandler(&buf, nil, false)

	require.NoError(t, h.Handle(context.Background(), record(slog.LevelInfo, "m", slog.Attr{})))
	assert.Equal(t, "10:30:45.123 INF m\n", buf.String())
}
