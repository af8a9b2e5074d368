// Package logger provides the service's slog handler.
//
// Records are written one per line:
//
//	2006-01-02T15:04:05.000Z [LEVEL] message | key=value, key2=value2
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Levels beyond the standard slog set.
const (
	LevelTrace slog.Level = -8
	LevelFail  slog.Level = 12
)

func levelName(l slog.Level) string {
	switch {
	case l <= LevelTrace:
		return "TRACE"
	case l <= slog.LevelDebug:
		return "DEBUG"
	case l <= slog.LevelInfo:
		return "INFO"
	case l <= slog.LevelWarn:
		return "WARN"
	case l <= slog.LevelError:
		return "ERROR"
	}
	return "FAIL"
}

// ParseLevel converts trace, debug, info, warn, error or fail. Anything else
// is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "fail":
		return LevelFail
	}
	return slog.LevelInfo
}

// Handler formats records as single text lines.
type Handler struct {
	w     io.Writer
	mu    *sync.Mutex
	level slog.Leveler
	attrs []slog.Attr
	group string
}

// NewHandler returns a Handler writing records at or above level to w.
func NewHandler(w io.Writer, level slog.Leveler) *Handler {
	return &Handler{w: w, level: level, mu: &sync.Mutex{}}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Time.UTC().Format("2006-01-02T15:04:05.000Z"))
	b.WriteString(" [")
	b.WriteString(levelName(r.Level))
	b.WriteString("] ")
	b.WriteString(r.Message)

	n := 0
	write := func(a slog.Attr) {
		if a.Equal(slog.Attr{}) {
			return
		}
		if n == 0 {
			b.WriteString(" | ")
		} else {
			b.WriteString(", ")
		}
		n++
		if h.group != "" {
			b.WriteString(h.group)
			b.WriteByte('.')
		}
		b.WriteString(a.Key)
		b.WriteByte('=')
		b.WriteString(a.Value.Resolve().String())
	}
	for _, a := range h.attrs {
		write(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		write(a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, b.String())
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &Handler{w: h.w, mu: h.mu, level: h.level, attrs: merged, group: h.group}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	g := name
	if h.group != "" {
		g = h.group + "." + name
	}
	return &Handler{w: h.w, mu: h.mu, level: h.level, attrs: h.attrs, group: g}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger writing to a rotating file at path, or to stderr when
// path is empty. The closer flushes the file.
func New(path string, level slog.Level, maxSizeMB int) (*slog.Logger, io.Closer) {
	if path == "" {
		return slog.New(NewHandler(os.Stderr, level)), nopCloser{}
	}
	lj := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: 3,
		MaxAge:     28,
	}
	return slog.New(NewHandler(lj, level)), lj
}

// Trace logs at LevelTrace.
func Trace(log *slog.Logger, msg string, args ...any) {
	log.Log(context.Background(), LevelTrace, msg, args...)
}

// Fail logs at LevelFail.
func Fail(log *slog.Logger, msg string, args ...any) {
	log.Log(context.Background(), LevelFail, msg, args...)
}

// Gin logs one line per request. Server errors log at error level, client
// errors at warn, the rest at debug.
func Gin(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelDebug
		switch {
		case status >= 500:
			level = slog.LevelError
		case status >= 400:
			level = slog.LevelWarn
		}
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"bytes", c.Writer.Size(),
			"elapsed", time.Since(start),
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			args = append(args, "error", errs.String())
		}
		log.Log(c.Request.Context(), level, "http request", args...)
	}
}
