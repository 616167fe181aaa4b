package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Tushar-r12345/ai-code-review-analysis/consts"
)

// Tracer returns the global tracer for the application
func Tracer() trace.Tracer {
	return otel.Tracer(consts.ModulePath)
}

// StartSpan starts a new span. The caller must call span.End().
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// SetSpanError records an error on the span and sets its status to error
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanOK sets the span status to OK
func SetSpanOK(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// Common attribute keys for consistent naming
var (
	AttrTaskID      = attribute.Key("task.id")
	AttrTaskKind    = attribute.Key("task.kind")
	AttrTaskAttempt = attribute.Key("task.attempt")
	AttrRepoURL     = attribute.Key("repo.url")
	AttrPRNumber    = attribute.Key("repo.pr_number")
	AttrProvider    = attribute.Key("repo.provider")
	AttrFilename    = attribute.Key("file.name")
	AttrLLMBackend  = attribute.Key("llm.backend")
	AttrLLMModel    = attribute.Key("llm.model")
)
