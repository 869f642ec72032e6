package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// SystemKey is the attribute rendered as the bracketed component prefix.
const SystemKey = "system"

// ConsoleHandler is a slog.Handler for humans reading a terminal:
//
//	[LEVEL] [system] [HH:MM:SS] message key=value group.key="two words"
type ConsoleHandler struct {
	w              io.Writer
	level          slog.Leveler
	mu             *sync.Mutex
	system         string
	showTimestamps bool
	levelColors    map[slog.Level]*color.Color
	stampColor     *color.Color
	prefix         string // dotted group path for attrs added later
	attrs          []string
}

// NewConsoleHandler creates a console handler. Colors are used only when w
// is a terminal.
func NewConsoleHandler(w io.Writer, opts *slog.HandlerOptions) *ConsoleHandler {
	h := &ConsoleHandler{
		w:              w,
		level:          slog.LevelInfo,
		mu:             &sync.Mutex{},
		showTimestamps: true,
		levelColors: map[slog.Level]*color.Color{
			slog.LevelDebug: color.New(color.FgHiBlack),
			slog.LevelInfo:  color.New(color.FgCyan),
			slog.LevelWarn:  color.New(color.FgYellow),
			slog.LevelError: color.New(color.FgRed, color.Bold),
		},
		stampColor: color.New(color.FgHiBlack),
	}
	if opts != nil && opts.Level != nil {
		h.level = opts.Level
	}

	useColors := isTerminal(w)
	for _, c := range append(h.colors(), h.stampColor) {
		if useColors {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return h
}

func (h *ConsoleHandler) colors() []*color.Color {
	out := make([]*color.Color, 0, len(h.levelColors))
	for _, c := range h.levelColors {
		out = append(out, c)
	}
	return out
}

// isTerminal checks if the writer is a terminal (for color output)
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// Enabled reports whether the handler handles records at the given level.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle formats and writes a log record
func (h *ConsoleHandler) Handle(_ context.Context, r slog.Record) error {
	var buf strings.Builder

	label := "[" + levelString(r.Level) + "]"
	if c, ok := h.levelColors[r.Level]; ok {
		label = c.Sprint(label)
	}
	buf.WriteString(label)

	system := h.system
	var recordAttrs []string
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == SystemKey && h.prefix == "" {
			system = a.Value.String()
			return true
		}
		recordAttrs = appendAttr(recordAttrs, h.prefix, a)
		return true
	})

	if system != "" {
		buf.WriteString(" [")
		buf.WriteString(system)
		buf.WriteString("]")
	}
	if h.showTimestamps && !r.Time.IsZero() {
		buf.WriteString(" ")
		buf.WriteString(h.stampColor.Sprint("[" + r.Time.Format("15:04:05") + "]"))
	}

	buf.WriteString(" ")
	buf.WriteString(r.Message)
	for _, kv := range h.attrs {
		buf.WriteString(" ")
		buf.WriteString(kv)
	}
	for _, kv := range recordAttrs {
		buf.WriteString(" ")
		buf.WriteString(kv)
	}
	buf.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, buf.String())
	return err
}

// appendAttr renders a as key=value, flattening groups into dotted keys.
func appendAttr(dst []string, prefix string, a slog.Attr) []string {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return dst
	}
	key := a.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	} else if key == "" {
		key = prefix
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			dst = appendAttr(dst, key, ga)
		}
		return dst
	}
	return append(dst, key+"="+formatValue(a.Value))
}

func formatValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindString:
		s = v.String()
	case slog.KindTime:
		s = v.Time().Format(time.RFC3339)
	case slog.KindDuration:
		s = v.Duration().String()
	default:
		s = fmt.Sprint(v.Any())
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

// WithAttrs returns a new handler with the given attributes added
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := h.clone()
	for _, a := range attrs {
		if a.Key == SystemKey && h.prefix == "" {
			h2.system = a.Value.String()
			continue
		}
		h2.attrs = appendAttr(h2.attrs, h.prefix, a)
	}
	return h2
}

// WithGroup returns a new handler whose later attributes are nested under name
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := h.clone()
	if h2.prefix == "" {
		h2.prefix = name
	} else {
		h2.prefix = h2.prefix + "." + name
	}
	return h2
}

func (h *ConsoleHandler) clone() *ConsoleHandler {
	h2 := *h
	h2.attrs = append([]string(nil), h.attrs...)
	return &h2
}

// levelString returns a short, uppercase string for the log level
func levelString(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return "DEBUG"
	case slog.LevelInfo:
		return "INFO"
	case slog.LevelWarn:
		return "WARN"
	case slog.LevelError:
		return "ERROR"
	default:
		return level.String()
	}
}
