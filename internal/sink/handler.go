package sink

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"mongosink/internal/constants"
	"mongosink/internal/logger"
	"mongosink/pkg/errors"
	"mongosink/pkg/logging"
	"mongosink/pkg/metrics"
	"mongosink/pkg/models"
	"mongosink/pkg/tracing"
)

type HandlerConfig struct {
	Store    Store
	Resolver CollectionResolver
	// UniqueKeys is the comma separated key field list used by updates and
	// deletes. A unique_field_name header overrides it per message.
	UniqueKeys string
	// InsertFormat selects what an insert stores: the payload itself
	// ("extjson") or the whole message ("envelope").
	InsertFormat            string
	AllowUnboundedMutations bool
	Logger                  logger.Logger
}

// Result describes the write performed for one message. Matched is the
// matched count for updates, the deleted count for deletes and 1 for inserts.
type Result struct {
	Operation  Operation
	Collection string
	Matched    int64
}

// Handler turns each message into exactly one Store call. It holds no
// mutable state and is safe for concurrent use.
type Handler struct {
	store     Store
	resolver  CollectionResolver
	keys      KeySet
	envelope  bool
	unbounded bool
	logger    logger.Logger
}

func NewHandler(cfg HandlerConfig) (*Handler, error) {
	if cfg.Store == nil {
		return nil, errors.ErrConfiguration.WithMessage("store is required")
	}
	if cfg.Resolver == nil {
		return nil, errors.ErrConfiguration.WithMessage("collection resolver is required")
	}

	envelope := false
	switch cfg.InsertFormat {
	case "", constants.ConverterExtJSON:
	case constants.ConverterEnvelope:
		envelope = true
	default:
		return nil, errors.ErrConfiguration.WithMessage("unknown document converter %q", cfg.InsertFormat)
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NopLogger()
	}

	return &Handler{
		store:     cfg.Store,
		resolver:  cfg.Resolver,
		keys:      ParseKeySet(cfg.UniqueKeys),
		envelope:  envelope,
		unbounded: cfg.AllowUnboundedMutations,
		logger:    log,
	}, nil
}

func (h *Handler) Handle(ctx context.Context, msg *models.Message) (Result, error) {
	if h == nil || h.store == nil || h.resolver == nil {
		return Result{}, errors.ErrInitialization
	}

	if err := models.ValidateMessage(msg); err != nil {
		return Result{}, errors.ErrValidation.WithCause(err)
	}

	op := OperationOf(msg)

	ctx, span := tracing.GetTracer(constants.ServiceName).Start(ctx, "sink.handle")
	defer span.End()
	span.SetAttributes(attribute.String("sink.operation", op.String()))

	if id := msg.ID(); id != "" {
		ctx = logging.WithMessageID(ctx, id)
	}

	start := time.Now()
	result, err := h.handle(ctx, op, msg)
	duration := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.logger.ErrorwCtx(ctx, "Failed to store message",
			"operation", op.String(),
			"collection", result.Collection,
			"error", err,
			"fatal", errors.IsFatal(err),
		)
	} else {
		span.SetAttributes(
			attribute.String("sink.collection", result.Collection),
			attribute.Int64("sink.matched", result.Matched),
		)
		metrics.AddSinkDocumentsAffected(op.String(), result.Matched)
	}

	metrics.IncSinkMessage(op.String(), status)
	metrics.ObserveSinkDuration(op.String(), status, duration)

	return result, err
}

func (h *Handler) handle(ctx context.Context, op Operation, msg *models.Message) (Result, error) {
	result := Result{Operation: op}

	collection, err := h.resolver.Resolve(ctx, msg)
	if err != nil {
		return result, err
	}
	result.Collection = collection
	ctx = logging.WithMutation(ctx, op.String(), collection)

	switch op {
	case OperationUpdate, OperationDelete:
		mutation, err := h.buildKeyed(op, collection, msg)
		if err != nil {
			return result, err
		}
		result.Matched, err = h.applyKeyed(ctx, mutation)
		return result, err
	default:
		if raw, ok := msg.HeaderString(models.HeaderOperationType); ok && !IsKnownOperation(raw) {
			h.logger.DebugwCtx(ctx, "Unknown op_type, storing as insert", "op_type", raw)
		}

		mutation := BuildInsert(collection, h.insertDocument(msg))
		if err := h.store.Save(ctx, mutation.Document, mutation.Collection); err != nil {
			return result, err
		}
		result.Matched = 1
		h.logger.DebugwCtx(ctx, "Inserted document")
		return result, nil
	}
}

func (h *Handler) insertDocument(msg *models.Message) interface{} {
	if h.envelope {
		return EnvelopeDocument(msg)
	}
	return msg.Payload
}

func (h *Handler) buildKeyed(op Operation, collection string, msg *models.Message) (Mutation, error) {
	keys := h.keysFor(msg)
	if keys.IsEmpty() && !h.unbounded {
		return Mutation{}, errors.ErrConfiguration.
			WithMessage("%s of collection %s requires unique key fields", op, collection)
	}

	doc, err := Normalize(msg.Payload)
	if err != nil {
		return Mutation{}, err
	}

	if op == OperationUpdate {
		return BuildUpdate(collection, doc, keys), nil
	}
	return BuildDelete(collection, doc, keys), nil
}

func (h *Handler) applyKeyed(ctx context.Context, mutation Mutation) (int64, error) {
	h.logger.DebugwCtx(ctx, "Applying keyed mutation", "filter", filterString(mutation.Filter))

	var (
		count int64
		err   error
	)
	if mutation.Operation == OperationUpdate {
		count, err = h.store.UpdateMany(ctx, mutation.Filter, mutation.UpdateDocument(), mutation.Collection)
	} else {
		count, err = h.store.DeleteMany(ctx, mutation.Filter, mutation.Collection)
	}
	if err != nil {
		return 0, err
	}

	h.logger.InfowCtx(ctx, "Applied keyed mutation", "affected", count)
	return count, nil
}

// keysFor returns the key set for msg, honouring a unique_field_name header.
func (h *Handler) keysFor(msg *models.Message) KeySet {
	if fields, ok := msg.HeaderString(models.HeaderUniqueFieldName); ok {
		return ParseKeySet(fields)
	}
	return h.keys
}

func filterString(filter bson.D) string {
	data, err := bson.MarshalExtJSON(filter, false, false)
	if err != nil {
		return "<unprintable>"
	}
	if len(data) > constants.DefaultTruncateLen {
		return string(data[:constants.DefaultTruncateLen]) + "..."
	}
	return string(data)
}
