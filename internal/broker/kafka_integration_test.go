package broker

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"mongosink/internal/config"
	"mongosink/internal/logger"
	apperrors "mongosink/pkg/errors"
	"mongosink/pkg/models"
)

func setupKafka(t *testing.T) []string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping kafka container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("mongodb-sink-test"),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	return brokers
}

func TestKafkaConsumer_FatalErrorGoesToDLQ(t *testing.T) {
	brokers := setupKafka(t)

	suffix := uuid.NewString()
	inputTopic := "input-" + suffix
	dlqTopic := "dlq-" + suffix

	cfg := config.KafkaConfig{
		Brokers:    brokers,
		GroupID:    "group-" + suffix,
		InputTopic: inputTopic,
		DLQTopic:   dlqTopic,
		Retry:      config.RetryConfig{MaxAttempts: 2, InitialInterval: 10 * time.Millisecond, Multiplier: 2},
	}

	producer := NewKafkaProducer(cfg, logger.NopLogger())
	defer producer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	msg := models.NewMessageBuilder().
		WithPayload([]byte("not json")).
		WithOperation("update").
		WithKey([]byte("k1")).
		Build()
	require.NoError(t, producer.Publish(ctx, inputTopic, msg))

	consumer := NewKafkaConsumer(cfg, logger.NopLogger())
	consumer.SetServiceName("test")

	handled := make(chan *models.Message, 1)
	consumeCtx, stop := context.WithCancel(ctx)
	go func() {
		_ = consumer.Consume(consumeCtx, inputTopic, func(ctx context.Context, m *models.Message) error {
			handled <- m
			return apperrors.ErrParse.WithMessage("payload is not valid JSON")
		})
	}()

	var got *models.Message
	select {
	case got = <-handled:
	case <-ctx.Done():
		t.Fatal("message was not consumed")
	}
	assert.Equal(t, []byte("not json"), got.Payload)
	op, _ := got.HeaderString(models.HeaderOperationType)
	assert.Equal(t, "update", op)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       dlqTopic,
		StartOffset: kafka.FirstOffset,
	})
	defer reader.Close()

	dead, err := reader.ReadMessage(ctx)
	require.NoError(t, err)

	stop()
	require.NoError(t, consumer.Close())

	assert.Equal(t, []byte("k1"), dead.Key)
	assert.Equal(t, []byte("not json"), dead.Value)

	headers := FromKafkaMessage(dead).Headers
	assert.Equal(t, "update", headers[models.HeaderOperationType])
	assert.Equal(t, inputTopic, headers[models.HeaderDLQSourceTopic])
	assert.Contains(t, headers[models.HeaderDLQReason], "PARSE_ERROR")
}
