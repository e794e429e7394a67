package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/Domenick1991/aeroclub/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_LevelAndFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LogConfig{Level: "warn"}, "app", &buf)

	logger.Info().Msg("hidden")
	logger.Warn().Str("aircraft", "D-EABC").Msg("shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "app", entry["service"])
	assert.Equal(t, "D-EABC", entry["aircraft"])
}

func TestNewWithWriter_BadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LogConfig{Level: "loud"}, "app", &buf)
	logger.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())
	logger.Info().Msg("shown")
	assert.NotZero(t, buf.Len())
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(config.LogConfig{Level: "info"}, "app", &buf)

	ctx := WithContext(context.Background(), logger)
	FromContext(ctx).Info().Msg("via ctx")
	assert.Contains(t, buf.String(), "via ctx")

	// no logger attached: disabled logger, no panic
	FromContext(context.Background()).Info().Msg("dropped")
}
