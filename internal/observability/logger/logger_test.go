package logger

import (
	"context"
	"testing"

	obscontext "github.com/smallbiznis/apotek/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContextAddsRequestFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx := obscontext.WithRequestID(context.Background(), "req-7")
	ctx = obscontext.WithActor(ctx, "42", "staff")
	ctx = obscontext.WithUserAgent(ctx, "curl/8.4.0")

	WithContext(ctx, base).Info("medicine archived")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-7", fields["request_id"])
	assert.Equal(t, "42", fields["actor_id"])
	assert.Equal(t, "staff", fields["actor_role"])
	assert.Equal(t, "curl/8.4.0", fields["user_agent"])
}

func TestWithContextOmitsEmptyUserAgent(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	WithContext(context.Background(), zap.New(core)).Info("sweep finished")

	require.Len(t, logs.All(), 1)
	_, ok := logs.All()[0].ContextMap()["user_agent"]
	assert.False(t, ok)
}
