package sink

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mongosink/internal/constants"
	"mongosink/pkg/errors"
	"mongosink/pkg/metrics"
)

// Store performs the writes. The collection is chosen per call.
type Store interface {
	Save(ctx context.Context, document interface{}, collection string) error
	UpdateMany(ctx context.Context, filter, update bson.D, collection string) (int64, error)
	DeleteMany(ctx context.Context, filter bson.D, collection string) (int64, error)
}

type MongoStore struct {
	db        *mongo.Database
	converter DocumentConverter
}

type StoreOption func(*MongoStore)

func WithConverter(converter DocumentConverter) StoreOption {
	return func(s *MongoStore) {
		if converter != nil {
			s.converter = converter
		}
	}
}

func NewMongoStore(db *mongo.Database, opts ...StoreOption) (*MongoStore, error) {
	if db == nil {
		return nil, errors.ErrConfiguration.WithMessage("mongodb database is required")
	}

	store := &MongoStore{
		db:        db,
		converter: ExtJSONConverter{},
	}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// Save inserts the converted document. A document carrying an _id replaces
// any existing document with that _id so redelivery does not fail on a
// duplicate key.
func (s *MongoStore) Save(ctx context.Context, document interface{}, collection string) error {
	doc, err := s.converter.ToDocument(document)
	if err != nil {
		return err
	}

	coll := s.db.Collection(collection)

	if id, ok := documentID(doc); ok {
		err = s.observe("replace", func() error {
			_, err := coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: id}}, doc, options.Replace().SetUpsert(true))
			return err
		})
		if err != nil {
			return driverError(err, "failed to upsert document into %s", collection)
		}
		return nil
	}

	err = s.observe("insert", func() error {
		_, err := coll.InsertOne(ctx, doc)
		return err
	})
	if err != nil {
		return driverError(err, "failed to insert document into %s", collection)
	}
	return nil
}

func (s *MongoStore) UpdateMany(ctx context.Context, filter, update bson.D, collection string) (int64, error) {
	var matched int64
	err := s.observe("update", func() error {
		result, err := s.db.Collection(collection).UpdateMany(ctx, filter, update)
		if err != nil {
			return err
		}
		matched = result.MatchedCount
		return nil
	})
	if err != nil {
		return 0, driverError(err, "failed to update documents in %s", collection)
	}
	return matched, nil
}

func (s *MongoStore) DeleteMany(ctx context.Context, filter bson.D, collection string) (int64, error) {
	var deleted int64
	err := s.observe("delete", func() error {
		result, err := s.db.Collection(collection).DeleteMany(ctx, filter)
		if err != nil {
			return err
		}
		deleted = result.DeletedCount
		return nil
	})
	if err != nil {
		return 0, driverError(err, "failed to delete documents in %s", collection)
	}
	return deleted, nil
}

func (s *MongoStore) observe(operation string, fn func() error) error {
	start := time.Now()
	err := fn()

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.IncDatabaseQuery(constants.ServiceName, s.db.Name(), operation, status)
	metrics.ObserveDatabaseQueryDuration(constants.ServiceName, s.db.Name(), operation, time.Since(start))

	return err
}

func driverError(err error, format string, args ...interface{}) error {
	return errors.ErrDriver.WithCause(err).WithMessage(format, args...)
}

func documentID(doc interface{}) (interface{}, bool) {
	switch d := doc.(type) {
	case bson.D:
		for _, elem := range d {
			if elem.Key == "_id" {
				return elem.Value, true
			}
		}
	case bson.M:
		id, ok := d["_id"]
		return id, ok
	case map[string]interface{}:
		id, ok := d["_id"]
		return id, ok
	}
	return nil, false
}
