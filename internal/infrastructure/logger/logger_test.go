package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	t.Run("writes json to a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.log")
		l, err := New(&Config{Level: "debug", Format: "json", Output: path})
		require.NoError(t, err)

		l.Info("hello", zap.String("k", "v"))
		require.NoError(t, l.Sync())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"msg":"hello"`)
		assert.Contains(t, string(data), `"k":"v"`)
	})

	t.Run("fails on an unwritable output", func(t *testing.T) {
		_, err := New(&Config{Output: filepath.Join(t.TempDir(), "missing", "app.log")})
		assert.Error(t, err)
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		l, err := New(&Config{Level: "verbose", Output: "stderr"})
		require.NoError(t, err)
		assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
		assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	})

	t.Run("tees extra cores", func(t *testing.T) {
		core, logs := observer.New(zapcore.InfoLevel)
		l, err := New(&Config{Level: "info", Output: "stderr"}, core)
		require.NoError(t, err)

		l.Warn("teed")
		assert.Equal(t, 1, logs.FilterMessage("teed").Len())
	})
}

func TestL(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	t.Run("no logger on context is a no-op", func(t *testing.T) {
		assert.NotPanics(t, func() { L(context.Background()).Info("dropped") })
	})

	t.Run("adds request, user and trace fields", func(t *testing.T) {
		ctx := WithContext(context.Background(), base)
		ctx = WithRequestID(ctx, "req-1")
		ctx = WithUserID(ctx, "user-1")
		traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
		spanID, _ := trace.SpanIDFromHex("0102030405060708")
		ctx = trace.ContextWithSpanContext(ctx, trace.NewSpanContext(trace.SpanContextConfig{
			TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled,
		}))

		L(ctx).Info("enriched")

		entries := logs.FilterMessage("enriched").All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Equal(t, "req-1", fields["request_id"])
		assert.Equal(t, "user-1", fields["user_id"])
		assert.Equal(t, traceID.String(), fields["trace_id"])
		assert.Equal(t, "req-1", RequestID(ctx))
		assert.Equal(t, "user-1", UserID(ctx))
	})
}
