package middleware

import (
	"context"
	stderrors "errors"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tnhu/wpm/pkg/transition"
)

const defaultTracerName = "wpm"

// OTelConfig configures the OpenTelemetry middleware.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "wpm").
	TracerName string

	// IncludeURI includes the transition URI in spans. URIs carry query
	// values and may contain sensitive information. Enabled by default.
	IncludeURI bool

	// Filter determines which stages to trace.
	// If nil, all stages are traced.
	Filter func(st *transition.Stage) bool

	// AttributeExtractor adds custom attributes to stage spans.
	AttributeExtractor func(st *transition.Stage) []attribute.KeyValue

	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithIncludeURI enables or disables the URI attribute.
func WithIncludeURI(include bool) OTelOption {
	return func(c *OTelConfig) {
		c.IncludeURI = include
	}
}

// WithStageFilter sets a filter function for stages.
func WithStageFilter(filter func(st *transition.Stage) bool) OTelOption {
	return func(c *OTelConfig) {
		c.Filter = filter
	}
}

// WithAttributeExtractor sets a custom attribute extractor.
func WithAttributeExtractor(extractor func(st *transition.Stage) []attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.AttributeExtractor = extractor
	}
}

func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
		IncludeURI: true,
	}
}

// Tracer is the transition middleware returned by OpenTelemetry.
type Tracer struct {
	config OTelConfig

	mu    sync.Mutex
	spans map[*transition.Transition]context.Context
}

var (
	_ transition.Middleware = (*Tracer)(nil)
	_ transition.Settler    = (*Tracer)(nil)
)

// OpenTelemetry creates middleware that traces transitions. Each
// transition gets a span that ends when it settles; each stage is a child
// span carrying the route path and instance id.
//
// The tracer uses the global OpenTelemetry tracer provider. Configure it
// in main() before creating the engine:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
func OpenTelemetry(opts ...OTelOption) *Tracer {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)

	return &Tracer{
		config: config,
		spans:  make(map[*transition.Transition]context.Context),
	}
}

// Handle implements transition.Middleware.
func (tr *Tracer) Handle(ctx context.Context, st *transition.Stage, next func() error) error {
	if tr.config.Filter != nil && !tr.config.Filter(st) {
		return next()
	}

	attrs := []attribute.KeyValue{
		attribute.String("wpm.stage", st.Name),
	}
	if st.Instance != nil {
		attrs = append(attrs,
			attribute.String("wpm.route", st.Path()),
			attribute.String("wpm.instance", st.Instance.ID()),
			attribute.String("wpm.state", st.Instance.State().String()),
		)
	}
	if tr.config.AttributeExtractor != nil {
		attrs = append(attrs, tr.config.AttributeExtractor(st)...)
	}

	_, span := tr.config.tracer.Start(
		tr.transitionContext(ctx, st.Transition),
		"wpm."+st.Name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	defer span.End()

	err := next()
	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
	case stderrors.Is(err, transition.ErrSkipped), stderrors.Is(err, transition.ErrSuperseded):
		span.SetAttributes(attribute.Bool("wpm.superseded", true))
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// transitionContext returns the context holding the span of t, starting
// the span on the first stage.
func (tr *Tracer) transitionContext(ctx context.Context, t *transition.Transition) context.Context {
	if t == nil {
		return ctx
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if spanCtx, ok := tr.spans[t]; ok {
		return spanCtx
	}

	attrs := []attribute.KeyValue{attribute.String("wpm.mode", t.Mode.String())}
	if tr.config.IncludeURI {
		attrs = append(attrs, attribute.String("wpm.uri", t.URI))
	}
	spanCtx, _ := tr.config.tracer.Start(ctx, "wpm.transition",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
	tr.spans[t] = spanCtx
	return spanCtx
}

// Settled implements transition.Settler.
func (tr *Tracer) Settled(t *transition.Transition) {
	tr.mu.Lock()
	spanCtx, ok := tr.spans[t]
	delete(tr.spans, t)
	tr.mu.Unlock()
	if !ok {
		return
	}

	span := trace.SpanFromContext(spanCtx)
	span.SetAttributes(attribute.String("wpm.outcome", t.Outcome().String()))
	if err := t.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// Pending returns the number of transitions with an open span.
func (tr *Tracer) Pending() int {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return len(tr.spans)
}
