package tracing

import (
	"context"
	"net/http"
	"time"

	"github.com/GriffinCanCode/homescreen/internal/shared/id"
	"go.uber.org/zap"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderParentID  = "X-Parent-ID"
)

// Span is one timed operation inside a request: a handler, an upstream fetch,
// a wallpaper compression
type Span struct {
	RequestID id.RequestID
	ParentID  id.RequestID
	Name      string
	Start     time.Time
	Duration  time.Duration
	Tags      map[string]string
	Err       error
}

// Tag records a key/value on the span
func (s *Span) Tag(key, value string) {
	if s.Tags == nil {
		s.Tags = make(map[string]string, 4)
	}
	s.Tags[key] = value
}

// Tracer logs finished spans. Spans are logged inline; the shell has no
// exporter to batch them for.
type Tracer struct {
	logger *zap.Logger
	slow   time.Duration
}

// New creates a tracer; spans slower than slow are logged at Warn
func New(logger *zap.Logger, slow time.Duration) *Tracer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracer{logger: logger.Named("trace"), slow: slow}
}

// Start opens a span under the request id carried by ctx, minting one if absent
func (t *Tracer) Start(ctx context.Context, name string) (*Span, context.Context) {
	reqID := RequestID(ctx)
	span := &Span{Name: name, Start: time.Now(), ParentID: parentID(ctx)}
	if reqID == "" {
		reqID = id.NewRequestID()
		ctx = WithRequestID(ctx, reqID)
	}
	span.RequestID = reqID
	return span, ctx
}

// Finish closes the span and logs it
func (t *Tracer) Finish(span *Span, err error) {
	span.Duration = time.Since(span.Start)
	span.Err = err

	fields := make([]zap.Field, 0, len(span.Tags)+5)
	fields = append(fields,
		zap.String("request_id", span.RequestID.String()),
		zap.String("operation", span.Name),
		zap.Duration("duration", span.Duration),
	)
	if span.ParentID != "" {
		fields = append(fields, zap.String("parent_id", span.ParentID.String()))
	}
	for k, v := range span.Tags {
		fields = append(fields, zap.String(k, v))
	}

	switch {
	case err != nil:
		t.logger.Warn("span failed", append(fields, zap.Error(err))...)
	case t.slow > 0 && span.Duration > t.slow:
		t.logger.Warn("slow span", fields...)
	default:
		t.logger.Debug("span completed", fields...)
	}
}

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	parentIDKey  contextKey = "parent_id"
)

// WithRequestID stores a request id in ctx
func WithRequestID(ctx context.Context, reqID id.RequestID) context.Context {
	return context.WithValue(ctx, requestIDKey, reqID)
}

// RequestID returns the request id carried by ctx, or ""
func RequestID(ctx context.Context) id.RequestID {
	v, _ := ctx.Value(requestIDKey).(id.RequestID)
	return v
}

func parentID(ctx context.Context) id.RequestID {
	v, _ := ctx.Value(parentIDKey).(id.RequestID)
	return v
}

// Inject copies the request id onto an outbound request
func Inject(ctx context.Context, h http.Header) {
	if reqID := RequestID(ctx); reqID != "" {
		h.Set(HeaderRequestID, reqID.String())
	}
}

// Fields returns zap fields identifying the request in ctx
func Fields(ctx context.Context) []zap.Field {
	if reqID := RequestID(ctx); reqID != "" {
		return []zap.Field{zap.String("request_id", reqID.String())}
	}
	return nil
}
