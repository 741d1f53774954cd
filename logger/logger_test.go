package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriterLevels(t *testing.T) {
	tests := []struct {
		name          string
		level         string
		expectedLevel zerolog.Level
	}{
		{name: "debug", level: "debug", expectedLevel: zerolog.DebugLevel},
		{name: "info", level: "info", expectedLevel: zerolog.InfoLevel},
		{name: "warn", level: "warn", expectedLevel: zerolog.WarnLevel},
		{name: "error", level: "error", expectedLevel: zerolog.ErrorLevel},
		{name: "invalid_defaults_to_info", level: "loud", expectedLevel: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewWithWriter(&buf, tt.level, false, nil)
			assert.Equal(t, tt.expectedLevel, log.zlog.GetLevel())
		})
	}
}

func TestNewWithWriterPretty(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", true, nil)

	log.Info().Msg("pretty output")

	out := buf.String()
	assert.Contains(t, out, "pretty output")
	assert.False(t, json.Valid([]byte(strings.TrimSpace(out))))
}

func TestCallerIsShortened(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", false, nil)

	log.Info().Msg("caller")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	caller, ok := entry["caller"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(caller, "logger/"), caller)
}

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", false, nil)

	child := log.WithFields(map[string]any{
		"service": "pterodactyl",
		"token":   "abc",
	})
	child.Info().Msg("with fields")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "pterodactyl", entry["service"])
	assert.Equal(t, DefaultMaskValue, entry["token"])
}

func TestLoggerWithContext(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info", false, nil)

	assert.Same(t, log, log.WithContext("not a context"))
	assert.Same(t, log, log.WithContext(context.Background()))

	var ctxBuf bytes.Buffer
	zl := zerolog.New(&ctxBuf)
	ctx := zl.WithContext(context.Background())

	derived := log.WithContext(ctx)
	require.NotSame(t, log, derived)
	derived.Info().Msg("from context")
	assert.Contains(t, ctxBuf.String(), "from context")
	assert.Zero(t, buf.Len())
}

func TestNop(t *testing.T) {
	log := Nop()
	assert.NotPanics(t, func() {
		log.Info().Str("k", "v").Msg("discarded")
	})
}
