package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mongosink/internal/broker"
	"mongosink/internal/config"
	"mongosink/internal/logger"
)

type recordingConsumer struct {
	steps *[]string
	err   error
}

func (c *recordingConsumer) Consume(context.Context, string, broker.HandlerFunc) error { return nil }
func (c *recordingConsumer) SetServiceName(string)                                   {}
func (c *recordingConsumer) Close() error {
	*c.steps = append(*c.steps, "consumer")
	return c.err
}

func step(steps *[]string, name string, err error) Closer {
	return Closer{Name: name, Close: func(context.Context) error {
		*steps = append(*steps, name)
		return err
	}}
}

func TestShutdown_ClosesConsumerFirst(t *testing.T) {
	var steps []string
	base := NewBase(&config.Config{}, logger.NopLogger())
	base.Consumer = &recordingConsumer{steps: &steps}

	err := base.Shutdown(context.Background(), step(&steps, "mongodb", nil), step(&steps, "tracer provider", nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"consumer", "mongodb", "tracer provider"}, steps)
}

func TestShutdown_RunsEveryCloserAndJoinsErrors(t *testing.T) {
	var steps []string
	errClose := errors.New("connection reset")
	errDisconnect := errors.New("disconnect timed out")

	base := NewBase(&config.Config{}, logger.NopLogger())
	base.Consumer = &recordingConsumer{steps: &steps, err: errClose}

	err := base.Shutdown(context.Background(), step(&steps, "mongodb", errDisconnect))
	require.Error(t, err)
	assert.ErrorIs(t, err, errClose)
	assert.ErrorIs(t, err, errDisconnect)
	assert.Contains(t, err.Error(), "mongodb: disconnect timed out")
	assert.Equal(t, []string{"consumer", "mongodb"}, steps)
}

func TestMongoCloser_NilClient(t *testing.T) {
	closer := MongoCloser(nil)
	assert.Equal(t, "mongodb", closer.Name)
	assert.NoError(t, closer.Close(context.Background()))
}

func TestInitBroker_UnknownType(t *testing.T) {
	base := NewBase(&config.Config{Broker: config.BrokerConfig{Type: "nats"}}, logger.NopLogger())
	err := base.InitBroker("mongodb-sink")
	assert.Error(t, err)
	assert.Nil(t, base.Consumer)
}
