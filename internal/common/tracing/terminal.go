package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const terminalTracerName = "camelot-terminal"

func terminalTracer() trace.Tracer {
	return Tracer(terminalTracerName)
}

// TraceSessionCreate starts a span covering agent resolution and PTY spawn.
// Caller must call EndSpan.
func TraceSessionCreate(ctx context.Context, sessionID, agentID string) (context.Context, trace.Span) {
	ctx, span := terminalTracer().Start(ctx, "terminal.create",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.SetAttributes(
		attribute.String("session_id", sessionID),
		attribute.String("agent_id", agentID),
	)
	return ctx, span
}

// TraceSessionKill starts a span for a kill, explicit or by the reaper.
func TraceSessionKill(ctx context.Context, sessionID, reason string) (context.Context, trace.Span) {
	ctx, span := terminalTracer().Start(ctx, "terminal.kill",
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.SetAttributes(
		attribute.String("session_id", sessionID),
		attribute.String("reason", reason),
	)
	return ctx, span
}

// EndSpan records err, if any, and ends span.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
