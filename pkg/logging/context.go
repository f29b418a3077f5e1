package logging

import (
	"context"
)

const (
	TraceIDKey     = "trace_id"
	MessageIDKey   = "message_id"
	ServiceNameKey = "service_name"
	CollectionKey  = "collection"
	OperationKey   = "operation"
)

type contextKey string

func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, contextKey(TraceIDKey), traceID)
}

func WithMessageID(ctx context.Context, messageID string) context.Context {
	return context.WithValue(ctx, contextKey(MessageIDKey), messageID)
}

func WithServiceName(ctx context.Context, serviceName string) context.Context {
	return context.WithValue(ctx, contextKey(ServiceNameKey), serviceName)
}

// WithMutation tags ctx with the operation and target collection of the write
// in progress.
func WithMutation(ctx context.Context, operation, collection string) context.Context {
	ctx = context.WithValue(ctx, contextKey(OperationKey), operation)
	return context.WithValue(ctx, contextKey(CollectionKey), collection)
}

func GetTraceID(ctx context.Context) string {
	return stringValue(ctx, TraceIDKey)
}

func GetMessageID(ctx context.Context) string {
	return stringValue(ctx, MessageIDKey)
}

func GetServiceName(ctx context.Context) string {
	return stringValue(ctx, ServiceNameKey)
}

func stringValue(ctx context.Context, key string) string {
	if value, ok := ctx.Value(contextKey(key)).(string); ok {
		return value
	}
	return ""
}

func GetLogFields(ctx context.Context) []interface{} {
	fields := make([]interface{}, 0, 10)

	for _, key := range []string{TraceIDKey, MessageIDKey, ServiceNameKey, OperationKey, CollectionKey} {
		if value := stringValue(ctx, key); value != "" {
			fields = append(fields, key, value)
		}
	}

	return fields
}
