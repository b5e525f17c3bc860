package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/amirrezaask/highlight/errors"
	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

type Config struct {
	LogLevel     slog.Level
	Format       string // "json" or "text"
	Writer       io.Writer
	AddSource    bool
	SentryConfig sentry.ClientOptions
}

func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger that writes to c.Writer (stdout when unset) and, when a
// Sentry DSN and environment are configured, reports warnings and errors to
// Sentry as well.
func New(c Config) (*slog.Logger, error) {
	w := c.Writer
	if w == nil {
		w = os.Stdout
	}
	opts := &slog.HandlerOptions{
		Level:     c.LogLevel,
		AddSource: c.AddSource,
	}

	var primary slog.Handler
	if c.Format == "json" {
		primary = slog.NewJSONHandler(w, opts)
	} else {
		primary = slog.NewTextHandler(w, opts)
	}
	handlers := []slog.Handler{primary}

	if c.SentryConfig.Dsn != "" && c.SentryConfig.Environment != "" {
		if err := sentry.Init(c.SentryConfig); err != nil {
			return nil, errors.Wrap(err, "error in initializing sentry")
		}
		handlers = append(handlers, slogsentry.Option{
			Level:     slog.LevelWarn,
			AddSource: true,
		}.NewSentryHandler())
	}

	return slog.New(slogmulti.Fanout(handlers...)), nil
}

// Init is New followed by slog.SetDefault.
func Init(c Config) (*slog.Logger, error) {
	logger, err := New(c)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return logger, nil
}
