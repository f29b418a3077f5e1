package sink

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"mongosink/internal/config"
	"mongosink/pkg/circuitbreaker"
	"mongosink/pkg/errors"
)

const breakerName = "mongodb-sink"

// CircuitBreakerStore stops calling the database once writes keep failing.
// Fatal errors such as unparseable payloads do not count as failures.
type CircuitBreakerStore struct {
	store Store
	cb    *circuitbreaker.Breaker
}

func NewCircuitBreakerStore(store Store, cfg config.CircuitBreakerConfig) *CircuitBreakerStore {
	if !cfg.Enabled {
		return &CircuitBreakerStore{store: store}
	}

	cbConfig := circuitbreaker.DefaultConfig(breakerName)
	if cfg.MaxRequests > 0 {
		cbConfig.MaxRequests = cfg.MaxRequests
	}
	if cfg.Interval > 0 {
		cbConfig.Interval = cfg.Interval
	}
	if cfg.Timeout > 0 {
		cbConfig.Timeout = cfg.Timeout
	}
	if cfg.FailureRatio > 0 && cfg.MinRequests > 0 {
		cbConfig.ReadyToTrip = circuitbreaker.RatioTrip(cfg.MinRequests, cfg.FailureRatio)
	}
	cbConfig.IsSuccessful = func(err error) bool {
		return err == nil || errors.IsFatal(err)
	}

	return &CircuitBreakerStore{
		store: store,
		cb:    circuitbreaker.New(cbConfig),
	}
}

func (s *CircuitBreakerStore) Save(ctx context.Context, document interface{}, collection string) error {
	if s.cb == nil {
		return s.store.Save(ctx, document, collection)
	}

	_, err := circuitbreaker.Run(ctx, s.cb, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.store.Save(ctx, document, collection)
	})
	return err
}

func (s *CircuitBreakerStore) UpdateMany(ctx context.Context, filter, update bson.D, collection string) (int64, error) {
	if s.cb == nil {
		return s.store.UpdateMany(ctx, filter, update, collection)
	}

	return circuitbreaker.Run(ctx, s.cb, func(ctx context.Context) (int64, error) {
		return s.store.UpdateMany(ctx, filter, update, collection)
	})
}

func (s *CircuitBreakerStore) DeleteMany(ctx context.Context, filter bson.D, collection string) (int64, error) {
	if s.cb == nil {
		return s.store.DeleteMany(ctx, filter, collection)
	}

	return circuitbreaker.Run(ctx, s.cb, func(ctx context.Context) (int64, error) {
		return s.store.DeleteMany(ctx, filter, collection)
	})
}

func (s *CircuitBreakerStore) State() string {
	if s.cb == nil {
		return "disabled"
	}
	return s.cb.State().String()
}

func (s *CircuitBreakerStore) IsOpen() bool {
	return s.cb != nil && s.cb.IsOpen()
}
