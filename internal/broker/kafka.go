package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"mongosink/internal/config"
	"mongosink/internal/constants"
	"mongosink/internal/logger"
	"mongosink/pkg/errors"
	"mongosink/pkg/logging"
	"mongosink/pkg/metrics"
	"mongosink/pkg/models"
	"mongosink/pkg/retry"
	"mongosink/pkg/tracing"
)

const dlqReasonRetriesExhausted = "max_retries_exceeded"

type KafkaProducer struct {
	writer      *kafka.Writer
	logger      logger.Logger
	serviceName string
}

func NewKafkaProducer(cfg config.KafkaConfig, log logger.Logger) *KafkaProducer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           constants.KafkaBatchTimeout,
		WriteTimeout:           constants.KafkaWriteTimeout,
		Async:                  false,
		AllowAutoTopicCreation: true,
	}
	return &KafkaProducer{writer: w, logger: log, serviceName: constants.ServiceName}
}

func (p *KafkaProducer) Publish(ctx context.Context, topic string, msg *models.Message) error {
	record, err := ToKafkaMessage(topic, msg)
	if err != nil {
		return err
	}
	record.Headers = tracing.InjectTraceContext(ctx, record.Headers)

	start := time.Now()
	err = p.writer.WriteMessages(ctx, record)
	metrics.ObserveKafkaWriteDuration(p.serviceName, topic, time.Since(start))
	if err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}

	metrics.IncKafkaMessagesWritten(p.serviceName, topic)
	metrics.ObserveKafkaMessageSize(p.serviceName, topic, "out", len(record.Value))
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

type KafkaConsumer struct {
	cfg         config.KafkaConfig
	wg          sync.WaitGroup
	reader      *kafka.Reader
	logger      logger.Logger
	dlqProducer Producer
	serviceName string
}

func NewKafkaConsumer(cfg config.KafkaConfig, log logger.Logger) *KafkaConsumer {
	consumer := &KafkaConsumer{
		cfg:         cfg,
		logger:      log.With("component", "kafka-consumer"),
		serviceName: "unknown",
	}

	if cfg.DLQTopic != "" {
		consumer.dlqProducer = NewKafkaProducer(cfg, log.With("component", "dlq-producer"))
	}

	return consumer
}

func (c *KafkaConsumer) SetServiceName(name string) {
	c.serviceName = name
}

// Consume reads topic until ctx is done, handing each record to handler one
// at a time. A record is committed only after handler returned and, on
// failure, after it was handed to the DLQ.
func (c *KafkaConsumer) Consume(ctx context.Context, topic string, handler HandlerFunc) error {
	c.logger.Infow("Creating Kafka reader",
		"topic", topic,
		"brokers", c.cfg.Brokers,
		"group_id", c.cfg.GroupID,
		"service_name", c.serviceName,
	)

	c.reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:  c.cfg.Brokers,
		GroupID:  c.cfg.GroupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		consumeCtx := logging.WithServiceName(ctx, c.serviceName)
		c.logger.InfowCtx(consumeCtx, "Started consuming",
			"topic", topic,
		)

		for {
			start := time.Now()
			m, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					c.logger.InfowCtx(consumeCtx, "Stopped consuming",
						"topic", topic,
						"reason", "context canceled",
					)
					return
				}
				c.logger.ErrorwCtx(consumeCtx, "Error fetching kafka message",
					"error", err,
					"topic", topic,
				)
				select {
				case <-ctx.Done():
				case <-time.After(time.Second):
				}
				continue
			}

			c.recordRead(m, time.Since(start))
			c.handleRecord(ctx, m, handler)
		}
	}()

	<-ctx.Done()
	return ctx.Err()
}

func (c *KafkaConsumer) recordRead(m kafka.Message, duration time.Duration) {
	metrics.IncKafkaMessagesRead(c.serviceName, m.Topic)
	metrics.ObserveKafkaReadDuration(c.serviceName, m.Topic, duration)
	metrics.ObserveKafkaMessageSize(c.serviceName, m.Topic, "in", len(m.Value))
	if m.HighWaterMark > 0 {
		metrics.SetKafkaConsumerLag(c.serviceName, m.Topic, m.Partition, m.HighWaterMark-m.Offset-1)
	}
}

func (c *KafkaConsumer) handleRecord(ctx context.Context, m kafka.Message, handler HandlerFunc) {
	msgCtx, span := tracing.StartConsumerSpan(ctx, m)
	defer span.End()

	if sc := span.SpanContext(); sc.HasTraceID() {
		msgCtx = logging.WithTraceID(msgCtx, sc.TraceID().String())
	}

	msg := FromKafkaMessage(m)
	msgCtx = logging.WithMessageID(msgCtx, msg.ID())
	msgCtx = logging.WithServiceName(msgCtx, c.serviceName)

	if err := c.processMessageWithRetry(msgCtx, msg, handler); err != nil {
		if ctx.Err() != nil {
			// Shutdown interrupted the write; leave the record uncommitted.
			return
		}

		c.logger.ErrorwCtx(msgCtx, "Failed to process message",
			"error", err,
			"code", errors.Code(err),
			"fatal", errors.IsFatal(err),
			"topic", m.Topic,
		)
		if !c.settleFailure(msgCtx, msg, err) {
			// The DLQ never accepted the record; redeliver it after restart.
			return
		}
	}

	if err := c.reader.CommitMessages(ctx, m); err != nil {
		c.logger.ErrorwCtx(msgCtx, "Failed to commit message",
			"error", err,
			"topic", m.Topic,
		)
	}
}

func (c *KafkaConsumer) Close() error {
	var err error
	if c.reader != nil {
		err = c.reader.Close()
	}
	if c.dlqProducer != nil {
		if closeErr := c.dlqProducer.Close(); closeErr != nil {
			if err == nil {
				err = closeErr
			}
		}
	}
	c.wg.Wait()
	return err
}

func (c *KafkaConsumer) retryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:     c.cfg.Retry.MaxAttempts,
		InitialInterval: c.cfg.Retry.InitialInterval,
		MaxInterval:     c.cfg.Retry.MaxInterval,
		Multiplier:      c.cfg.Retry.Multiplier,
		MaxElapsedTime:  c.cfg.Retry.MaxElapsedTime,
	}.Merge()
}

// processMessageWithRetry retries retryable failures. Fatal errors and
// recovered panics return immediately.
func (c *KafkaConsumer) processMessageWithRetry(ctx context.Context, msg *models.Message, handler HandlerFunc) error {
	policy := c.retryPolicy()

	return retry.Do(ctx, policy, func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = errors.RecoverPanic(r)
				c.logger.ErrorwCtx(ctx, "Panic recovered during message processing",
					"error", err,
					"topic", msg.Topic,
				)
			}
		}()
		return handler(ctx, msg)
	}, func(attempt int, err error, nextDelay time.Duration) {
		metrics.RetryAttemptsTotal.WithLabelValues(c.serviceName, msg.Topic).Inc()
		c.logger.WarnwCtx(ctx, "Retrying message processing",
			"attempt", attempt,
			"max_attempts", policy.MaxAttempts,
			"next_delay", nextDelay,
			"error", err,
			"topic", msg.Topic,
		)
	})
}

// settleFailure hands a failed message to the DLQ, retrying the publish until
// it succeeds or ctx ends. It reports whether the offset may be committed.
func (c *KafkaConsumer) settleFailure(ctx context.Context, msg *models.Message, cause error) bool {
	if c.dlqProducer == nil || c.cfg.DLQTopic == "" {
		c.logger.WarnwCtx(ctx, "No DLQ configured, committing message to avoid blocking",
			"topic", msg.Topic,
		)
		return true
	}

	err := retry.DoUntilDone(ctx, c.retryPolicy(), func() error {
		return c.sendToDLQ(ctx, msg, cause)
	}, func(attempt int, err error, nextDelay time.Duration) {
		c.logger.ErrorwCtx(ctx, "Failed to send message to DLQ",
			"error", err,
			"attempt", attempt,
			"next_delay", nextDelay,
			"topic", msg.Topic,
		)
	})
	if err != nil {
		c.logger.ErrorwCtx(ctx, "Giving up on DLQ publish, leaving offset uncommitted",
			"error", err,
			"topic", msg.Topic,
		)
		return false
	}
	return true
}

func (c *KafkaConsumer) sendToDLQ(ctx context.Context, msg *models.Message, originalErr error) error {
	dead := DeadLetter(msg, originalErr, time.Now())

	if err := c.dlqProducer.Publish(ctx, c.cfg.DLQTopic, dead); err != nil {
		return fmt.Errorf("failed to publish to DLQ: %w", err)
	}

	metrics.DLQMessagesTotal.WithLabelValues(c.serviceName, msg.Topic, dlqReasonLabel(originalErr)).Inc()
	c.logger.InfowCtx(ctx, "Message sent to DLQ",
		"source_topic", msg.Topic,
		"dlq_topic", c.cfg.DLQTopic,
		"reason", originalErr.Error(),
	)

	return nil
}

// DeadLetter copies msg and tags it with the failure reason, source topic and
// time of failure.
func DeadLetter(msg *models.Message, reason error, at time.Time) *models.Message {
	headers := make(map[string]interface{}, len(msg.Headers)+3)
	for name, value := range msg.Headers {
		headers[name] = value
	}
	headers[models.HeaderDLQReason] = reason.Error()
	headers[models.HeaderDLQSourceTopic] = msg.Topic
	headers[models.HeaderDLQTimestamp] = at.UTC().Format(time.RFC3339Nano)

	return &models.Message{
		Payload:   msg.Payload,
		Headers:   headers,
		Key:       msg.Key,
		Timestamp: msg.Timestamp,
	}
}

func dlqReasonLabel(err error) string {
	if errors.IsFatal(err) {
		return errors.Code(err)
	}
	return dlqReasonRetriesExhausted
}
