package tracing

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Kristianesp/Ordenasion-alpha-sub001/internal/shared/id"
)

// slowThreshold is the request duration above which a completed span is
// logged at warn level instead of debug.
const slowThreshold = time.Second

// spanBuffer bounds the collector queue; overflow drops spans rather
// than blocking request handling.
const spanBuffer = 1000

// Span records one traced operation.
type Span struct {
	TraceID    id.TraceID
	Name       string
	Service    string
	StartTime  time.Time
	Duration   time.Duration
	Tags       map[string]string
	StatusCode int
	Err        error
}

// Tracer collects completed spans on a background goroutine and logs
// them. It is a logging tracer, not a distributed one: the coordinator
// has no downstream services to propagate context to.
type Tracer struct {
	service string
	logger  *zap.Logger
	spans   chan *Span
}

// New creates a tracer and starts its collector.
func New(service string, logger *zap.Logger) *Tracer {
	t := &Tracer{
		service: service,
		logger:  logger,
		spans:   make(chan *Span, spanBuffer),
	}
	go t.collect()
	return t
}

// StartSpan begins a span, inheriting the trace ID already in ctx or
// minting a fresh one.
func (t *Tracer) StartSpan(ctx context.Context, name string) (*Span, context.Context) {
	traceID := GetTraceID(ctx)
	if traceID == "" {
		traceID = id.NewTraceID()
	}

	span := &Span{
		TraceID:   traceID,
		Name:      name,
		Service:   t.service,
		StartTime: time.Now(),
		Tags:      make(map[string]string),
	}

	return span, context.WithValue(ctx, traceIDKey, traceID)
}

// Finish stamps the span duration.
func (s *Span) Finish() {
	s.Duration = time.Since(s.StartTime)
}

// SetTag adds a tag to the span.
func (s *Span) SetTag(key, value string) {
	s.Tags[key] = value
}

// SetError records a failure on the span.
func (s *Span) SetError(err error) {
	s.Err = err
}

// SetStatus records the HTTP status code.
func (s *Span) SetStatus(code int) {
	s.StatusCode = code
}

// Submit queues a finished span for collection.
func (t *Tracer) Submit(span *Span) {
	select {
	case t.spans <- span:
	default:
		t.logger.Warn("span buffer full, dropping span",
			zap.String("trace_id", span.TraceID.String()),
		)
	}
}

func (t *Tracer) collect() {
	for span := range t.spans {
		t.log(span)
	}
}

func (t *Tracer) log(span *Span) {
	fields := []zap.Field{
		zap.String("trace_id", span.TraceID.String()),
		zap.String("operation", span.Name),
		zap.String("service", span.Service),
		zap.Duration("duration", span.Duration),
		zap.Int("status", span.StatusCode),
	}
	for k, v := range span.Tags {
		fields = append(fields, zap.String(k, v))
	}

	switch {
	case span.Err != nil:
		fields = append(fields, zap.Error(span.Err))
		t.logger.Error("span completed with error", fields...)
	case span.Duration > slowThreshold:
		t.logger.Warn("slow span completed", fields...)
	default:
		t.logger.Debug("span completed", fields...)
	}
}

type contextKey string

const traceIDKey contextKey = "trace_id"

// GetTraceID retrieves the trace ID from ctx, empty when absent.
func GetTraceID(ctx context.Context) id.TraceID {
	if traceID, ok := ctx.Value(traceIDKey).(id.TraceID); ok {
		return traceID
	}
	return ""
}

// WithTraceID returns ctx carrying the given trace ID.
func WithTraceID(ctx context.Context, traceID id.TraceID) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}
