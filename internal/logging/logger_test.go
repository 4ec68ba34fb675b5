package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_ValidConfig(t *testing.T) {
	logger, err := New(NewDefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, logger)

	assert.True(t, logger.Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Enabled(zapcore.DebugLevel))
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(&Config{Level: "info", Format: "xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLogger_ContextFieldsAttached(t *testing.T) {
	logger := NewTestLogger()

	ctx := WithCollection(context.Background(), "players")
	ctx = WithRequestID(ctx, "req-42")
	logger.Info(ctx, "search started", zap.Int("initial_k", 20))

	logger.AssertLogged(t, zapcore.InfoLevel, "search started")
	logger.AssertField(t, "search started", "collection", "players")
	logger.AssertField(t, "search started", "request.id", "req-42")
}

func TestLogger_With(t *testing.T) {
	logger := NewTestLogger()

	child := logger.With(zap.String("component", "retrieval"))
	child.Warn(context.Background(), "reranker degraded")

	entries := logger.FilterMessage("reranker degraded").All()
	require.Len(t, entries, 1)
	found := false
	for _, field := range entries[0].Context {
		if field.Key == "component" && field.String == "retrieval" {
			found = true
		}
	}
	assert.True(t, found, "expected component field on child logger")
}

func TestLogger_Named(t *testing.T) {
	logger := NewTestLogger()

	named := logger.Named("vectorstore")
	named.Error(context.Background(), "collection missing")

	entries := logger.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "vectorstore", entries[0].LoggerName)
}

func TestLogger_SyncIgnoresStderrErrors(t *testing.T) {
	logger, err := New(NewDefaultConfig())
	require.NoError(t, err)

	// Sync on stderr commonly returns EINVAL/ENOTTY; both must be swallowed.
	assert.NoError(t, logger.Sync())
}

func TestFromContext_Default(t *testing.T) {
	logger := FromContext(context.Background())
	require.NotNil(t, logger)

	// Must not panic when used.
	logger.Info(context.Background(), "noop")
}

func TestFromContext_RoundTrip(t *testing.T) {
	logger := NewTestLogger()
	ctx := WithLogger(context.Background(), logger.Logger)

	got := FromContext(ctx)
	assert.Same(t, logger.Logger, got)
}
