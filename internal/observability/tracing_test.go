package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/MicheleGuerra/SOK-Oran-Security/internal/config"
)

func TestInitTracing_Disabled(t *testing.T) {
	provider, err := InitTracing(context.Background(), config.TracingConfig{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, provider)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, ShutdownTracing(ctx, provider))
}

func TestInitTracing_ExportsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider, err := InitTracing(context.Background(),
		config.TracingConfig{Enabled: true, Endpoint: "localhost:4317", SampleRate: 1.0},
		WithExporter(exporter),
		WithSampler(sdktrace.AlwaysSample()),
		WithBatchTimeout(10*time.Millisecond),
	)
	require.NoError(t, err)

	_, span := StartSpan(context.Background(), "pipeline.append")
	EndSpan(span, errors.New("boom"))

	require.NoError(t, provider.ForceFlush(context.Background()))
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "pipeline.append", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)

	assert.NoError(t, ShutdownTracing(context.Background(), provider))
}

func TestShutdownTracing_Nil(t *testing.T) {
	assert.NoError(t, ShutdownTracing(context.Background(), nil))
}
