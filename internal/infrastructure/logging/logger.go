package logging

import (
	"io"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/nerrad567/climate-node/internal/infrastructure/config"
)

// serviceName is attached to every log entry.
const serviceName = "climatenode"

// Logger is a *slog.Logger carrying the node's default attributes.
// Safe for concurrent use.
type Logger struct {
	*slog.Logger
}

// New builds the logger described by cfg.
//
// Output goes to stderr unless cfg.Output is "stdout". Stdout normally
// carries the command console, so mixing the two is only useful when the
// console is disabled.
//
// Parameters:
//   - cfg: Logging configuration from config.yaml
//   - version: Build version, attached to every entry
func New(cfg config.LoggingConfig, version string) *Logger {
	return NewWithWriter(cfg, version, writerFor(cfg.Output))
}

// NewWithWriter is New with an explicit destination. Tests capture entries
// with it.
func NewWithWriter(cfg config.LoggingConfig, version string, w io.Writer) *Logger {
	h := handlerFor(cfg.Format, w, &slog.HandlerOptions{Level: parseLevel(cfg.Level)})
	h = h.WithAttrs([]slog.Attr{
		slog.String("service", serviceName),
		slog.String("version", version),
	})
	return &Logger{Logger: slog.New(h)}
}

func writerFor(output string) io.Writer {
	if strings.EqualFold(output, "stdout") {
		return os.Stdout
	}
	return os.Stderr
}

// handlerFor returns a text handler for "text" and JSON for anything else.
func handlerFor(format string, w io.Writer, opts *slog.HandlerOptions) slog.Handler {
	if strings.EqualFold(format, "text") {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

// parseLevel maps debug/info/warn/error (case-insensitive) to a slog level.
// Unknown values mean info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a Logger with extra default attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Component tags entries with the emitting subsystem.
//
//	supervisorLog := log.Component("supervisor")
//	supervisorLog.Info("bus connected") // component=supervisor
func (l *Logger) Component(name string) *Logger {
	return l.With("component", name)
}

// Default is the text/info/stderr logger used until config is loaded.
func Default(version string) *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "text", Output: "stderr"}, version)
}

// Discard returns a logger that drops every entry.
func Discard() *Logger {
	// slog.DiscardHandler needs Go 1.24; this handler is disabled at every level.
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)})
	return &Logger{Logger: slog.New(h)}
}
