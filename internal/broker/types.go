package broker

import (
	"context"

	"mongosink/pkg/models"
)

type Producer interface {
	Publish(ctx context.Context, topic string, msg *models.Message) error
	Close() error
}

type Consumer interface {
	Consume(ctx context.Context, topic string, handler HandlerFunc) error
	Close() error
	SetServiceName(name string)
}

// HandlerFunc processes one message. The offset is committed once it
// returns, whether or not it failed.
type HandlerFunc func(ctx context.Context, msg *models.Message) error
