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

	"golang.org/x/term"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// Attribute keys lifted out of the key=value tail into the bracket prefix
const (
	systemKey = "system"
	runKey    = "run_id"
)

// MavenHandler is a slog.Handler that formats logs in Maven-style:
// [LEVEL] [SYSTEM] [run RUN_ID] [HH:MM:SS] message key=value key=value
//
// The run tag appears when a run_id attribute is attached, either through
// logger.With or on the record itself, so every line of one reconciliation
// can be grepped by its ID.
type MavenHandler struct {
	w              io.Writer
	level          slog.Level
	mu             *sync.Mutex
	system         string // e.g., "recon", "api", "storage"
	run            string
	showTimestamps bool
	useColors      bool
	groups         []string // Prefix for attribute keys
	attrs          []slog.Attr
}

// NewMavenHandler creates a new Maven-style handler
func NewMavenHandler(w io.Writer, opts *slog.HandlerOptions) *MavenHandler {
	h := &MavenHandler{
		w:              w,
		level:          slog.LevelInfo,
		mu:             &sync.Mutex{},
		showTimestamps: true,
		useColors:      isTerminal(w),
	}

	if opts != nil && opts.Level != nil {
		h.level = opts.Level.Level()
	}

	return h
}

// isTerminal checks if the writer is a terminal (for color output)
func isTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// Enabled reports whether the handler handles records at the given level.
func (h *MavenHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle formats and writes a log record
func (h *MavenHandler) Handle(_ context.Context, r slog.Record) error {
	prefix := groupPrefix(h.groups)
	run := h.run
	recordAttrs := make([]slog.Attr, 0, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		if prefix == "" {
			switch a.Key {
			case systemKey:
				return true
			case runKey:
				run = a.Value.String()
				return true
			}
		}
		recordAttrs = append(recordAttrs, a)
		return true
	})

	var buf strings.Builder
	h.bracket(&buf, levelString(r.Level), levelColor(r.Level))
	if h.system != "" {
		buf.WriteString(" ")
		h.bracket(&buf, h.system, "")
	}
	if run != "" {
		buf.WriteString(" ")
		h.bracket(&buf, "run "+run, colorBlue)
	}
	if h.showTimestamps {
		buf.WriteString(" ")
		h.bracket(&buf, r.Time.Format("15:04:05"), colorGray)
	}

	buf.WriteString(" ")
	buf.WriteString(r.Message)

	// Attributes from WithAttrs already carry their group prefix
	for _, attr := range h.attrs {
		h.appendAttr(&buf, "", attr)
	}
	for _, attr := range recordAttrs {
		h.appendAttr(&buf, prefix, attr)
	}
	buf.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, buf.String())
	return err
}

// bracket writes [text], colored when the output is a terminal
func (h *MavenHandler) bracket(buf *strings.Builder, text, color string) {
	if h.useColors && color != "" {
		buf.WriteString(color)
		defer buf.WriteString(colorReset)
	}
	buf.WriteString("[")
	buf.WriteString(text)
	buf.WriteString("]")
}

// appendAttr appends key=value pairs to the buffer, flattening groups into
// dotted keys.
func (h *MavenHandler) appendAttr(buf *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner = prefix + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			h.appendAttr(buf, inner, ga)
		}
		return
	}

	buf.WriteString(" ")
	buf.WriteString(prefix)
	buf.WriteString(a.Key)
	buf.WriteString("=")
	buf.WriteString(formatValue(a.Value))
}

// formatValue renders a value, quoting text that contains spaces or quotes
func formatValue(v slog.Value) string {
	var s string
	switch v.Kind() {
	case slog.KindString:
		s = v.String()
	case slog.KindDuration:
		return v.Duration().Round(time.Millisecond).String()
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	default:
		s = fmt.Sprint(v.Any())
	}

	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

func groupPrefix(groups []string) string {
	if len(groups) == 0 {
		return ""
	}
	return strings.Join(groups, ".") + "."
}

// WithAttrs returns a new handler with the given attributes added
func (h *MavenHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := h.clone()
	c.attrs = make([]slog.Attr, len(h.attrs), len(h.attrs)+len(attrs))
	copy(c.attrs, h.attrs)

	// system and run_id only qualify for the prefix when ungrouped
	prefix := groupPrefix(h.groups)
	for _, attr := range attrs {
		if prefix == "" {
			switch attr.Key {
			case systemKey:
				c.system = attr.Value.String()
				continue
			case runKey:
				c.run = attr.Value.String()
				continue
			}
		}
		attr.Key = prefix + attr.Key
		c.attrs = append(c.attrs, attr)
	}
	return c
}

// WithGroup returns a new handler with the given group name added
func (h *MavenHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := h.clone()
	c.groups = append(append(make([]string, 0, len(h.groups)+1), h.groups...), name)
	return c
}

// clone copies the handler, sharing the writer lock
func (h *MavenHandler) clone() *MavenHandler {
	c := *h
	return &c
}

// levelColor returns the ANSI color code for a log level (Maven-style)
func levelColor(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return colorRed
	case level >= slog.LevelWarn:
		return colorYellow
	case level >= slog.LevelInfo:
		return colorCyan
	default:
		return colorGray
	}
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
		return fmt.Sprintf("LEVEL(%d)", level)
	}
}
