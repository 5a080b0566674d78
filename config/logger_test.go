package config

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "input %q", in)
	}
}

func TestNewLoggerFor_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerFor("production", "info", &buf)

	logger.Debug("hidden")
	logger.Info("event created", "event_id", "e1")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "event created", record["msg"])
	assert.Equal(t, "teamcalendar", record["service"])
	assert.Equal(t, "e1", record["event_id"])
}

func TestNewLoggerFor_DevelopmentWritesText(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerFor("development", "debug", &buf)

	logger.Debug("checking conflicts")

	assert.Contains(t, buf.String(), "msg=\"checking conflicts\"")
	assert.Contains(t, buf.String(), "service=teamcalendar")
}
