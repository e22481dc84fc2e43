package tracer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

func TestInitWithoutEndpointIsNoop(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{ServiceName: "inspirai"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	ctx, span := Start(context.Background(), "noop")
	defer span.End()
	assert.NotNil(t, ctx)
	assert.False(t, span.SpanContext().IsSampled())
}

func TestNewResourceMergesWithSDKDefaults(t *testing.T) {
	res, err := newResource("inspirai")
	require.NoError(t, err)

	v, ok := res.Set().Value(semconv.ServiceNameKey)
	require.True(t, ok)
	assert.Equal(t, "inspirai", v.AsString())
}

func TestInitWithEndpoint(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	// The exporter connects lazily, so nothing needs to listen here.
	shutdown, err := Init(context.Background(), Config{
		ServiceName: "inspirai",
		Endpoint:    "127.0.0.1:4317",
		SampleRate:  1,
	})
	require.NoError(t, err)

	_, span := Start(context.Background(), "exported")
	assert.True(t, span.SpanContext().IsSampled())
	span.End()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_ = shutdown(ctx)
}
