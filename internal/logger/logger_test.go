package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	Initialize("debug", "json")
	assert.True(t, Get().Enabled(context.Background(), slog.LevelDebug))

	Initialize("bogus", "text")
	assert.False(t, Get().Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, Get().Enabled(context.Background(), slog.LevelInfo))
}

func TestSetup_AttachesAppName(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, "warn", "json")
	defer Initialize("info", "text")

	Info("dropped")
	ExternalServiceResult("sendgrid", "send", errors.New("timeout"))

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, `"app":"iotkit-rental-backend"`)
	assert.Contains(t, out, `"service":"sendgrid"`)
	assert.Contains(t, out, `"level":"WARN"`)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelWarn, ParseLevel(" Warning "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestRollbarHandler_PassesThrough(t *testing.T) {
	var buf bytes.Buffer
	h := &rollbarHandler{next: slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})}
	l := slog.New(h).With("component", "test")

	l.Info("settled", "borrowRequestID", 5)

	assert.Contains(t, buf.String(), "settled")
	assert.Contains(t, buf.String(), "component=test")
	assert.Contains(t, buf.String(), "borrowRequestID=5")
}

func TestRollbarArgs(t *testing.T) {
	boom := errors.New("boom")
	r := slog.NewRecord(time.Now(), slog.LevelError, "settlement failed", 0)
	r.AddAttrs(slog.Any("error", boom), slog.Int("borrowRequestID", 5))

	args := rollbarArgs(r)
	require.Len(t, args, 3)
	assert.Equal(t, "settlement failed", args[0])
	assert.Equal(t, boom, args[1])
	assert.Equal(t, map[string]interface{}{"borrowRequestID": "5"}, args[2])
}
