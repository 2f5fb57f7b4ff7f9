package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupTracing(t *testing.T) {
	shutdown, err := SetupTracing(ExporterNone, "appo-test")
	require.NoError(t, err)

	_, span := Tracer().Start(context.Background(), "probe")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, shutdown(context.Background()))

	_, err = SetupTracing("jaeger", "appo-test")
	assert.Error(t, err)
}
