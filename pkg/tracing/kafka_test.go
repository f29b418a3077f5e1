package tracing

import (
	"context"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"mongosink/internal/config"
)

func TestInjectExtractTraceContext(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "produce")
	defer span.End()

	headers := InjectTraceContext(ctx, []kafka.Header{{Key: "op_type", Value: []byte("u")}})
	require.Len(t, headers, 2)
	assert.Equal(t, "op_type", headers[0].Key)
	assert.Equal(t, "traceparent", headers[1].Key)

	extracted := ExtractTraceContext(context.Background(), headers)
	assert.Equal(t, span.SpanContext().TraceID(), trace.SpanContextFromContext(extracted).TraceID())
}

func TestStartConsumerSpan_ContinuesTrace(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	otel.SetTracerProvider(tp)

	parent, span := tp.Tracer("test").Start(context.Background(), "produce")
	span.End()

	record := kafka.Message{Topic: "change_events", Partition: 2, Offset: 41}
	record.Headers = InjectTraceContext(parent, nil)

	_, consumer := StartConsumerSpan(context.Background(), record)
	defer consumer.End()

	assert.Equal(t, span.SpanContext().TraceID(), consumer.SpanContext().TraceID())
	assert.NotEqual(t, span.SpanContext().SpanID(), consumer.SpanContext().SpanID())
}

func TestInit_DisabledInstallsPropagator(t *testing.T) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator())

	tp, err := Init(context.Background(), config.TracingConfig{Enabled: false}, "")
	require.NoError(t, err)
	assert.NoError(t, tp.Shutdown(context.Background()))
	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
}

func TestNewSampler(t *testing.T) {
	for _, name := range []string{"", "always_on", "always_off", "traceidratio", "parentbased_always_on", "parentbased_traceidratio"} {
		sampler, err := NewSampler(config.SamplerConfig{Type: name, Param: 0.5})
		require.NoError(t, err, name)
		assert.NotNil(t, sampler, name)
	}

	_, err := NewSampler(config.SamplerConfig{Type: "sometimes"})
	assert.Error(t, err)
}

func TestServiceNameFor(t *testing.T) {
	assert.Equal(t, "custom", serviceNameFor(config.TracingConfig{ServiceName: "custom"}, "mongodb-sink"))
	assert.Equal(t, "sink-a", serviceNameFor(config.TracingConfig{}, "sink-a"))
	assert.Equal(t, "mongodb-sink", serviceNameFor(config.TracingConfig{}, ""))
}
