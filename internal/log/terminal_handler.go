package log

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	ansiReset  = "\033[0m"
	ansiDim    = "\033[2m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
)

// terminalHandler writes one human-readable line per record:
//
//	18:04:05.000 INF mission imported linked=2 unresolved=1
//
// Attributes added with WithAttrs are rendered once and reused.
type terminalHandler struct {
	w      io.Writer
	mu     *sync.Mutex
	level  slog.Leveler
	colour bool
	prefix string
	preset []byte
}

func newTerminalHandler(w io.Writer, opts *slog.HandlerOptions, colour bool) *terminalHandler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &terminalHandler{w: w, mu: &sync.Mutex{}, level: level, colour: colour}
}

func (h *terminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *terminalHandler) Handle(_ context.Context, r slog.Record) error {
	buf := bytes.NewBuffer(make([]byte, 0, 256))

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	h.paint(buf, ansiDim, ts.Format("15:04:05.000"))
	buf.WriteByte(' ')
	colour, label := levelStyle(r.Level)
	h.paint(buf, colour, label)
	buf.WriteByte(' ')
	h.paint(buf, ansiBold, r.Message)

	buf.Write(h.preset)
	r.Attrs(func(a slog.Attr) bool {
		h.appendAttr(buf, h.prefix, a)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *terminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	buf := bytes.NewBuffer(append([]byte(nil), h.preset...))
	for _, a := range attrs {
		h.appendAttr(buf, h.prefix, a)
	}
	clone := *h
	clone.preset = buf.Bytes()
	return &clone
}

func (h *terminalHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func (h *terminalHandler) paint(buf *bytes.Buffer, colour, s string) {
	if !h.colour {
		buf.WriteString(s)
		return
	}
	buf.WriteString(colour)
	buf.WriteString(s)
	buf.WriteString(ansiReset)
}

func (h *terminalHandler) appendAttr(buf *bytes.Buffer, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		if a.Key != "" {
			prefix += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			h.appendAttr(buf, prefix, ga)
		}
		return
	}
	buf.WriteByte(' ')
	h.paint(buf, ansiDim, prefix+a.Key+"=")
	buf.WriteString(formatValue(a.Value))
}

func levelStyle(level slog.Level) (string, string) {
	switch {
	case level < slog.LevelInfo:
		return ansiCyan, "DBG"
	case level < slog.LevelWarn:
		return ansiGreen, "INF"
	case level < slog.LevelError:
		return ansiYellow, "WRN"
	default:
		return ansiRed, "ERR"
	}
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if s == "" || strings.ContainsAny(s, " \t\n\"\\=") {
			return strconv.Quote(s)
		}
		return s
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	default:
		return v.String()
	}
}
