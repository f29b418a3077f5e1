package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"mongosink/pkg/logging"
)

func TestNew_Levels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "unknown"} {
		log, err := New(level)
		require.NoError(t, err, level)
		assert.NotNil(t, log)
	}
}

func TestBuildConfig(t *testing.T) {
	cfg := buildConfig("warn", "console")
	assert.Equal(t, "console", cfg.Encoding)
	assert.Equal(t, zapcore.WarnLevel, cfg.Level.Level())

	cfg = buildConfig("loud", "")
	assert.Equal(t, "json", cfg.Encoding)
	assert.Equal(t, zapcore.InfoLevel, cfg.Level.Level())
}

func TestWith_KeepsServiceName(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromZap(zap.New(core), "mongodb-sink").With("component", "handler")

	log.InfowCtx(context.Background(), "ready")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "handler", fields["component"])
	assert.Equal(t, "mongodb-sink", fields["service_name"])
}

func TestNewWithFormat_Console(t *testing.T) {
	log, err := NewWithFormat("info", "console")
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestInfowCtx_AddsContextFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromZap(zap.New(core), "mongodb-sink")

	ctx := logging.WithMessageID(context.Background(), "orders/1/7")
	log.InfowCtx(ctx, "stored", "matched", 2)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "orders/1/7", fields["message_id"])
	assert.Equal(t, "mongodb-sink", fields["service_name"])
	assert.EqualValues(t, 2, fields["matched"])
}

func TestNopLogger(t *testing.T) {
	log := NopLogger()
	assert.NotPanics(t, func() {
		log.InfowCtx(context.Background(), "ignored")
	})
}
