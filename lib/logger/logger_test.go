package logger_test

import (
	"bytes"
	"log/slog"
	"testing"

	"poll-voter/lib/logger"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logger.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, logger.ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, logger.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, logger.ParseLevel(""))
}

func TestNewRespectsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	l := logger.New("warn", buf).With("service", "test")

	l.Info("hidden")
	assert.Empty(t, buf.String())

	l.Warn("shown", "k", 1)
	assert.Contains(t, buf.String(), "service=test")
	assert.Contains(t, buf.String(), "shown")
}
