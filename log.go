package co

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	zapslog "github.com/tommoulard/zap-slog"
	"go.uber.org/zap"

	"github.com/coruntime/co/internal/prettylog"
)

// logLevelFlag and logFormatFlag are a small flag.String/flag.Func pair,
// this module's co- prefixed take on the level/format tunables.
var (
	logLevelFlag = flag.String("co-log-level", "INFO", "co runtime log level")
)

type logFormatKind string

const (
	logFormatRaw      logFormatKind = "raw"
	logFormatIndented logFormatKind = "indented"
	logFormatPretty   logFormatKind = "pretty"
)

// logFormatFlag starts empty (auto): consoleWriter picks pretty or raw based
// on whether stderr is a terminal, unless -co-log-format pins it explicitly.
var logFormatFlag logFormatKind

func init() {
	flag.Func("co-log-format", "raw|indented|pretty (default: auto-detect via isatty)", func(s string) error {
		k := logFormatKind(s)
		if k != logFormatRaw && k != logFormatIndented && k != logFormatPretty {
			return fmt.Errorf("bad co-log-format %q", s)
		}
		logFormatFlag = k
		return nil
	})
}

// autoLogFormat picks pretty console output for an interactive terminal and
// raw JSON lines otherwise (piped to a file, captured by a supervisor, etc.),
// the same isatty-gated choice most CLIs in the ecosystem make for their
// default logger.
func autoLogFormat() logFormatKind {
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return logFormatPretty
	}
	return logFormatRaw
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// schedLogHandler wraps an inner handler to stamp scheduler/coroutine
// identity onto every record logged from inside a coroutine.
type schedLogHandler struct {
	inner slog.Handler
}

func (h schedLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h schedLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if c := Coroutine(); c != nil {
		r.AddAttrs(slog.Int("scheduler", c.sched.id), slog.Uint64("coroutine", c.id))
	}
	return h.inner.Handle(ctx, r)
}

func (h schedLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return schedLogHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h schedLogHandler) WithGroup(name string) slog.Handler {
	return schedLogHandler{inner: h.inner.WithGroup(name)}
}

type indentedWriter struct {
	out io.Writer
}

func (w *indentedWriter) Write(p []byte) (int, error) {
	if len(p) > 0 && p[len(p)-1] == '\n' {
		var x any
		if err := json.Unmarshal(p, &x); err == nil {
			enc := json.NewEncoder(w.out)
			enc.SetIndent("", "  ")
			enc.Encode(x)
			return len(p), nil
		}
	}
	return w.out.Write(p)
}

func consoleWriter(out io.Writer) io.Writer {
	format := logFormatFlag
	if format == "" {
		format = autoLogFormat()
	}
	switch format {
	case logFormatRaw:
		return out
	case logFormatIndented:
		return &indentedWriter{out: out}
	case logFormatPretty:
		return prettylog.NewWriter(out)
	default:
		return out
	}
}

var (
	loggerOnce sync.Once
	logger     *slog.Logger
)

// Logger returns the runtime's shared structured logger, built lazily from
// -co-log-level/-co-log-format. CO_LOG_LEVEL, when set, takes precedence
// over -co-log-level; the format has no environment variable. Every
// scheduler and coroutine helper logs through this, and callers may too.
func Logger() *slog.Logger {
	loggerOnce.Do(func() {
		level := *logLevelFlag
		if v, ok := os.LookupEnv("CO_LOG_LEVEL"); ok {
			level = v
		}
		ho := &slog.HandlerOptions{
			Level:     parseLevel(level),
			AddSource: true,
		}
		handler := slog.NewJSONHandler(consoleWriter(os.Stderr), ho)
		logger = slog.New(schedLogHandler{inner: handler})
	})
	return logger
}

// ZapLogger returns a *zap.Logger whose entries are routed through Logger's
// slog handler, for coroutine code that already speaks zap's API, using the
// same tommoulard/zap-slog bridge the corpus depends on.
func ZapLogger() (*zap.Logger, error) {
	return zap.NewProduction(zapslog.WrapCore(Logger()))
}
