package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitOpenTelemetry(t *testing.T) {
	require.NoError(t, InitOpenTelemetry("recall-test"))
	// repeated init reuses the first provider
	require.NoError(t, InitOpenTelemetry("other-name"))

	// with the provider installed, spans are recorded and their trace id
	// is seeded into the context; the global no-op tracer would produce
	// an invalid span context and leave the trace id empty
	ctx, span := StartSpan(context.Background(), "recall-test", "unit.op")
	defer span.End()

	assert.True(t, span.SpanContext().IsValid())
	assert.Equal(t, span.SpanContext().TraceID().String(), GetTraceID(ctx))

	assert.NoError(t, ShutdownOpenTelemetry(context.Background()))
}
