package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInit_Disabled(t *testing.T) {
	p, err := Init(context.Background(), Config{ServiceName: "soap-api"})
	require.NoError(t, err)

	assert.Nil(t, p.tp)
	assert.NoError(t, p.Shutdown(context.Background()))
	assert.ElementsMatch(t, []string{"traceparent", "tracestate", "baggage"}, otel.GetTextMapPropagator().Fields())
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased")
}
