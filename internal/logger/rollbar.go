package logger

import (
	"context"
	"log/slog"

	"github.com/rollbar/rollbar-go"
)

var rollbarEnabled bool

// EnableRollbar forwards every error-level record to Rollbar in addition to
// the regular output. It is a no-op without a token.
func EnableRollbar(token, environment, serverHost string) {
	if token == "" {
		return
	}
	rollbar.SetToken(token)
	rollbar.SetEnvironment(environment)
	rollbar.SetServerHost(serverHost)
	rollbar.SetEnabled(true)
	rollbarEnabled = true

	defaultLogger = slog.New(&rollbarHandler{next: Get().Handler()})
	slog.SetDefault(defaultLogger)
}

// CloseRollbar flushes queued Rollbar items.
func CloseRollbar() {
	if rollbarEnabled {
		rollbar.Close()
	}
}

type rollbarHandler struct {
	next slog.Handler
}

func (h *rollbarHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *rollbarHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		rollbar.Error(rollbarArgs(r)...)
	}
	return h.next.Handle(ctx, r)
}

func (h *rollbarHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &rollbarHandler{next: h.next.WithAttrs(attrs)}
}

func (h *rollbarHandler) WithGroup(name string) slog.Handler {
	return &rollbarHandler{next: h.next.WithGroup(name)}
}

// rollbarArgs converts a record into the message, error and extras form
// rollbar.Error accepts.
func rollbarArgs(r slog.Record) []interface{} {
	args := []interface{}{r.Message}
	extras := map[string]interface{}{}

	r.Attrs(func(a slog.Attr) bool {
		if err, ok := a.Value.Any().(error); ok && a.Key == "error" {
			args = append(args, err)
			return true
		}
		extras[a.Key] = a.Value.String()
		return true
	})

	if len(extras) > 0 {
		args = append(args, extras)
	}
	return args
}
