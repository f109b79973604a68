package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/dreamwell/internal/logging"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestSetup_DisabledWithoutEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	before := otel.GetTracerProvider()
	shutdown := Setup(context.Background(), "dreamwell-cli", logging.Discard())
	require.NotNil(t, shutdown)
	require.NoError(t, shutdown(context.Background()))
	require.Equal(t, before, otel.GetTracerProvider())
}

func TestSetup_WithEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "127.0.0.1:1")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")

	before := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(before) })

	shutdown := Setup(context.Background(), "dreamwell-cli", logging.Discard())
	require.NotEqual(t, before, otel.GetTracerProvider())

	// Nothing was exported, so shutdown does not need the collector.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = shutdown(ctx)
}
