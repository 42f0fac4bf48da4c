package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
)

// consoleHandler renders compact single-line records for interactive use:
//
//	15:04:05 INFO  opening media input=/media/a.mka kind=playback
//
// Level names are colorized when the writer is a terminal.
type consoleHandler struct {
	mu     sync.Mutex
	writer io.Writer
	level  *slog.LevelVar
	color  bool
	attrs  []slog.Attr
	groups []string
}

func newConsoleHandler(w io.Writer, level *slog.LevelVar) slog.Handler {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &consoleHandler{writer: w, level: level, color: color}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	var buf bytes.Buffer
	buf.Grow(128)

	if !record.Time.IsZero() {
		buf.WriteString(record.Time.Format("15:04:05"))
		buf.WriteByte(' ')
	}
	buf.WriteString(h.levelLabel(record.Level))
	buf.WriteByte(' ')
	buf.WriteString(record.Message)

	for _, attr := range h.attrs {
		h.appendAttr(&buf, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		h.appendAttr(&buf, attr)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

func (h *consoleHandler) appendAttr(buf *bytes.Buffer, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	key := attr.Key
	for i := len(h.groups) - 1; i >= 0; i-- {
		key = h.groups[i] + "." + key
	}
	fmt.Fprintf(buf, " %s=%v", key, attr.Value.Resolve().Any())
}

func (h *consoleHandler) levelLabel(level slog.Level) string {
	label := "INFO "
	colorCode := ""
	switch {
	case level >= slog.LevelError:
		label, colorCode = "ERROR", "\x1b[31m"
	case level >= slog.LevelWarn:
		label, colorCode = "WARN ", "\x1b[33m"
	case level < slog.LevelInfo:
		label, colorCode = "DEBUG", "\x1b[2m"
	}
	if h.color && colorCode != "" {
		return colorCode + label + "\x1b[0m"
	}
	return label
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := &consoleHandler{
		writer: h.writer,
		level:  h.level,
		color:  h.color,
		attrs:  append(append([]slog.Attr(nil), h.attrs...), attrs...),
		groups: h.groups,
	}
	return clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	clone := &consoleHandler{
		writer: h.writer,
		level:  h.level,
		color:  h.color,
		attrs:  h.attrs,
		groups: append(append([]string(nil), h.groups...), name),
	}
	return clone
}
