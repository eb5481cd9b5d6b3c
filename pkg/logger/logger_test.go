package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	appctx "pharmapos/internal/core/context"
)

func observed(level zap.AtomicLevel) (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return &Logger{zap.New(core).Sugar()}, logs
}

func TestFrom_AddsRequestFields(t *testing.T) {
	base, logs := observed(zap.NewAtomicLevelAt(zap.InfoLevel))

	ctx := appctx.WithRequest(context.Background(), appctx.Request{ID: "r-1", TraceID: "t-1", Operator: "counter-2"})
	ctx = Into(ctx, base)

	Info(ctx, "sale committed", "number", "INV-2026-00001")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "t-1", fields["trace_id"])
	assert.Equal(t, "r-1", fields["request_id"])
	assert.Equal(t, "counter-2", fields["operator"])
	assert.Equal(t, "INV-2026-00001", fields["number"])
}

func TestFrom_NoRequest(t *testing.T) {
	base, logs := observed(zap.NewAtomicLevelAt(zap.DebugLevel))
	ctx := Into(context.Background(), base.Named("worker"))

	Debug(ctx, "tick")
	Warn(ctx, "slow")
	Error(ctx, "failed")

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, "worker", entries[2].ContextMap()["component"])
	assert.NotContains(t, entries[0].ContextMap(), "request_id")
}

func TestNew_FallsBackToInfoOnBadLevel(t *testing.T) {
	l, err := New(Config{Level: "loud", OutputPaths: []string{"stderr"}})
	require.NoError(t, err)
	assert.False(t, l.Desugar().Core().Enabled(zap.DebugLevel))
	assert.True(t, l.Desugar().Core().Enabled(zap.InfoLevel))
}
