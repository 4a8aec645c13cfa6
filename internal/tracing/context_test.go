package tracing

import (
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetRequestID(ctx))
	assert.Zero(t, GetUserID(ctx))

	ctx = WithTraceID(ctx, "trace-1")
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithUserID(ctx, 42)

	assert.Equal(t, "trace-1", GetTraceID(ctx))
	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, int64(42), GetUserID(ctx))
}

func TestNewTraceID(t *testing.T) {
	a := NewTraceID()
	b := NewTraceID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestLoggerFromContext(t *testing.T) {
	base := zerolog.New(os.Stdout).Level(zerolog.Disabled)

	// Plain context leaves the logger untouched.
	logger := LoggerFromContext(context.Background(), base)
	assert.NotNil(t, logger)

	ctx := WithUserID(WithTraceID(context.Background(), "trace-2"), 7)
	logger = LoggerFromContext(ctx, base)
	assert.NotNil(t, logger)
}
