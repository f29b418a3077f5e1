package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"mongosink/internal/config"
	"mongosink/internal/constants"
	"mongosink/internal/logger"
	"mongosink/internal/sink"
	"mongosink/pkg/bootstrap"
	"mongosink/pkg/health"
	"mongosink/pkg/logging"
	"mongosink/pkg/metrics"
	"mongosink/pkg/models"
	"mongosink/pkg/tracing"
)

type App struct {
	*bootstrap.Base
	dbConnector    *bootstrap.DatabaseConnector
	mongo          *mongo.Client
	breaker        *sink.CircuitBreakerStore
	handler        *sink.Handler
	tracerProvider *tracing.TracerProvider
	server         *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName(constants.ServiceName)
	}
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	tp, err := tracing.Init(ctx, a.Config.Tracing, constants.ServiceName)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	metrics.RegisterAll()

	client, err := a.dbConnector.InitMongoDB(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize MongoDB: %w", err)
	}
	a.mongo = client

	if err := a.initHandler(); err != nil {
		return fmt.Errorf("failed to initialize handler: %w", err)
	}

	if err := a.InitBroker(constants.ServiceName); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	a.initHTTPServer()
	return nil
}

func (a *App) initHandler() error {
	cfg := a.Config.Sink

	mongoStore, err := sink.NewMongoStore(a.mongo.Database(a.Config.Database.MongoDB.Database))
	if err != nil {
		return err
	}

	var store sink.Store = mongoStore
	if a.Config.CircuitBreaker.Enabled {
		a.breaker = sink.NewCircuitBreakerStore(mongoStore, a.Config.CircuitBreaker)
		store = a.breaker
		initCtx := logging.WithServiceName(context.Background(), constants.ServiceName)
		a.Logger.InfowCtx(initCtx, "Circuit breaker enabled for MongoDB store")
	}

	resolver, err := sink.NewResolver(cfg.Collection, cfg.CollectionExpression)
	if err != nil {
		return err
	}

	handler, err := sink.NewHandler(sink.HandlerConfig{
		Store:                   store,
		Resolver:                resolver,
		UniqueKeys:              cfg.UniqueFieldName,
		InsertFormat:            cfg.DocumentConverter,
		AllowUnboundedMutations: cfg.AllowUnboundedMutations,
		Logger:                  a.Logger.With("component", "handler"),
	})
	if err != nil {
		return err
	}
	a.handler = handler

	a.Logger.Infow("Sink handler configured",
		"collection", cfg.Collection,
		"collection_expression", cfg.CollectionExpression,
		"unique_field_name", cfg.UniqueFieldName,
		"document_converter", cfg.DocumentConverter,
		"allow_unbounded_mutations", cfg.AllowUnboundedMutations,
	)
	if cfg.UniqueFieldName == "" && cfg.AllowUnboundedMutations {
		a.Logger.Warnw("No unique fields configured; updates and deletes will match every document")
	}
	return nil
}

func (a *App) initHTTPServer() {
	mux := http.NewServeMux()

	healthRegistry := health.NewCheckerRegistry()
	if a.mongo != nil {
		healthRegistry.Register(health.NewMongoDBChecker(a.mongo))
	}
	if a.breaker != nil {
		healthRegistry.Register(health.NewBreakerChecker("circuit_breaker", a.breaker.IsOpen))
	}

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		h := healthRegistry.Check(r.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_ = json.NewEncoder(w).Encode(h)
	})

	mux.Handle("/metrics", promhttp.Handler())

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      tracing.HTTPMiddleware(constants.ServiceName, mux),
		ReadTimeout:  seconds(a.Config.Server.ReadTimeoutSeconds),
		WriteTimeout: seconds(a.Config.Server.WriteTimeoutSeconds),
	}
}

// seconds converts a whole number of seconds, falling back to the default
// HTTP timeout when unset.
func seconds(n int) time.Duration {
	if n <= 0 {
		return constants.DefaultHTTPTimeout
	}
	return time.Duration(n) * time.Second
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	if a.server != nil {
		g.Go(func() error {
			a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
			if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return fmt.Errorf("HTTP server error: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()
			return a.server.Shutdown(shutdownCtx)
		})
	}

	inputTopic := a.Config.Broker.Kafka.InputTopic
	if inputTopic == "" {
		inputTopic = constants.DefaultInputTopic
	}

	g.Go(func() error {
		return a.Consumer.Consume(gCtx, inputTopic, a.handleMessage)
	})

	return g.Wait()
}

func (a *App) handleMessage(ctx context.Context, msg *models.Message) error {
	_, err := a.handler.Handle(ctx, msg)
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx := logging.WithServiceName(ctx, constants.ServiceName)
	a.Logger.InfowCtx(shutdownCtx, "Shutting down MongoDB sink")

	closers := []bootstrap.Closer{bootstrap.MongoCloser(a.mongo)}
	if a.tracerProvider != nil {
		closers = append(closers, bootstrap.Closer{Name: "tracer provider", Close: a.tracerProvider.Shutdown})
	}

	return a.Base.Shutdown(ctx, closers...)
}
