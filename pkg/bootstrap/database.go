package bootstrap

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mongosink/internal/config"
	"mongosink/internal/constants"
	"mongosink/internal/logger"
)

type DatabaseConnector struct {
	Config *config.Config
	Logger logger.Logger
}

func NewDatabaseConnector(cfg *config.Config, log logger.Logger) *DatabaseConnector {
	return &DatabaseConnector{
		Config: cfg,
		Logger: log,
	}
}

// InitMongoDB connects and pings the configured deployment.
func (dc *DatabaseConnector) InitMongoDB(ctx context.Context) (*mongo.Client, error) {
	cfg := dc.Config.Database.MongoDB

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = constants.DefaultConnectTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	mongoOpts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout)
	mongoClient, err := mongo.Connect(connectCtx, mongoOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := mongoClient.Ping(connectCtx, nil); err != nil {
		mongoClient.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	dc.Logger.Infow("MongoDB connected successfully", "database", cfg.Database)
	return mongoClient, nil
}

// MongoCloser disconnects client during shutdown. A nil client is a no-op.
func MongoCloser(client *mongo.Client) Closer {
	return Closer{
		Name: "mongodb",
		Close: func(ctx context.Context) error {
			if client == nil {
				return nil
			}
			return client.Disconnect(ctx)
		},
	}
}
