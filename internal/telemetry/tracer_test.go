package telemetry_test

import (
	"context"
	"testing"

	"github.com/farmsmart/farm-smart/internal/config"
	"github.com/farmsmart/farm-smart/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitTracerWithoutExporter(t *testing.T) {
	ctx := context.Background()

	shutdown, err := telemetry.InitTracer(ctx, config.Otel{ServiceName: "farm-smart-test", SamplerRatio: 1}, "test")
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(ctx, "checkout")
	assert.True(t, span.SpanContext().IsValid())
	assert.True(t, span.SpanContext().IsSampled())
	span.End()

	require.NoError(t, shutdown(ctx))
}

func TestInitTracerZeroRatioDropsRootSpans(t *testing.T) {
	ctx := context.Background()

	shutdown, err := telemetry.InitTracer(ctx, config.Otel{ServiceName: "farm-smart-test", SamplerRatio: 0}, "test")
	require.NoError(t, err)
	defer func() { _ = shutdown(ctx) }()

	_, span := otel.Tracer("test").Start(ctx, "checkout")
	defer span.End()

	assert.False(t, span.SpanContext().IsSampled())
}
