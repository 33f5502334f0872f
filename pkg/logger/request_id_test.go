package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestIDField(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := &Logger{l: zap.New(core)}

	ctx := NewRequestIDContext(context.Background(), "req-42")
	log.Info(ctx, "with id")
	log.Info(context.Background(), "without id")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-42", entries[0].ContextMap()[RequestID])
	assert.NotContains(t, entries[1].ContextMap(), RequestID)
}

func TestNewRequestIDContextGeneratesID(t *testing.T) {
	id, ok := GetRequestID(NewRequestIDContext(context.Background(), ""))
	require.True(t, ok)
	assert.Len(t, id, 36)

	_, ok = GetRequestID(context.Background())
	assert.False(t, ok)
}
