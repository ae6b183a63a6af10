package logger

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type contextKey string

const (
	logContextKey  contextKey = "log_context"
	correlationKey contextKey = "correlation_id"
)

const (
	FieldRequestID  = "request_id"
	FieldOperation  = "operation"
	FieldEndpointID = "endpoint_id"
	FieldEndpoint   = "endpoint"
	FieldMethod     = "method"
	FieldTargetURL  = "target_url"
	FieldStatus     = "status"
	FieldKind       = "failure_kind"
	FieldSuccess    = "success"
	FieldDuration   = "duration_ms"

	// Poller-specific field names
	FieldPollName = "poll_name"
	FieldCount    = "count"
)

// LogContext collects the fields of one canonical log line. A field added
// under a key that is already present replaces the earlier value in place.
type LogContext struct {
	mu     sync.RWMutex
	fields []zap.Field
	index  map[string]int
}

func NewLogContext() *LogContext {
	return &LogContext{
		fields: make([]zap.Field, 0, 10),
		index:  make(map[string]int, 10),
	}
}

func (lc *LogContext) AddField(field zap.Field) {
	lc.AddFields(field)
}

func (lc *LogContext) AddFields(fields ...zap.Field) {
	if lc == nil {
		return
	}
	lc.mu.Lock()
	defer lc.mu.Unlock()
	for _, f := range fields {
		if i, ok := lc.index[f.Key]; ok {
			lc.fields[i] = f
			continue
		}
		lc.index[f.Key] = len(lc.fields)
		lc.fields = append(lc.fields, f)
	}
}

// Fields returns a copy in first-added order.
func (lc *LogContext) Fields() []zap.Field {
	if lc == nil {
		return nil
	}
	lc.mu.RLock()
	defer lc.mu.RUnlock()
	return append([]zap.Field(nil), lc.fields...)
}

func WithLogContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

func GetLogContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// AddToContext is a no-op when ctx carries no LogContext.
func AddToContext(ctx context.Context, fields ...zap.Field) {
	GetLogContext(ctx).AddFields(fields...)
}

// WithCorrelationID stores the inbound request id; the dispatcher forwards it upstream.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey, id)
}

func GetCorrelationID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(correlationKey).(string)
	return id
}
