package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"mongosink/internal/broker"
	"mongosink/internal/config"
	"mongosink/internal/logger"
)

// Closer releases one resource during shutdown. Name appears in errors and logs.
type Closer struct {
	Name  string
	Close func(ctx context.Context) error
}

type Base struct {
	Config   *config.Config
	Logger   logger.Logger
	Consumer broker.Consumer
}

func NewBase(cfg *config.Config, log logger.Logger) *Base {
	return &Base{
		Config: cfg,
		Logger: log,
	}
}

func (b *Base) InitBroker(serviceName string) error {
	consumer, err := broker.NewConsumer(b.Config.Broker, b.Logger)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}
	if serviceName != "" {
		consumer.SetServiceName(serviceName)
	}

	kafkaCfg := b.Config.Broker.Kafka
	b.Logger.Infow("Kafka consumer created",
		"brokers", kafkaCfg.Brokers,
		"group_id", kafkaCfg.GroupID,
		"dlq_topic", kafkaCfg.DLQTopic,
	)

	b.Consumer = consumer
	return nil
}

// Shutdown closes the consumer first so no record is fetched while the
// remaining closers run in order. Every closer runs even if an earlier one fails.
func (b *Base) Shutdown(ctx context.Context, closers ...Closer) error {
	b.Logger.Info("Shutting down application...")

	all := make([]Closer, 0, len(closers)+1)
	if b.Consumer != nil {
		all = append(all, Closer{Name: "consumer", Close: func(context.Context) error { return b.Consumer.Close() }})
	}
	all = append(all, closers...)

	var errs []error
	for _, c := range all {
		if err := c.Close(ctx); err != nil {
			b.Logger.Errorw("Shutdown step failed", "step", c.Name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("shutdown errors: %w", err)
	}

	b.Logger.Info("Application exited successfully")
	return nil
}
