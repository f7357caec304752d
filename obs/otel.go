package obs

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelEmitter implements Emitter by turning each Event into a span. Adapted
// from the teacher's emit.OTelEmitter (graph/emit/otel.go): run/step/node
// attributes become run/layer/node, and cost-tracking meta keys are mapped
// to the same graphcore.llm.* attribute names the rest of this package uses.
type OTelEmitter struct {
	tracer trace.Tracer
}

// NewOTelEmitter builds an OTelEmitter from a tracer obtained via
// otel.Tracer("service-name"). Events become spans on whatever
// TracerProvider is wired into that tracer.
func NewOTelEmitter(tracer trace.Tracer) *OTelEmitter {
	return &OTelEmitter{tracer: tracer}
}

// Emit starts and immediately ends a span named after event.Msg. Events are
// points in time, not durations, so the span is always closed before Emit
// returns; a "duration_ms" value in event.Meta is recorded as an attribute
// only and does not change the span's end time.
func (o *OTelEmitter) Emit(event Event) {
	_, span := o.tracer.Start(context.Background(), event.Msg)
	o.populate(span, event)
	span.End()
}

// EmitBatch creates one span per event, reusing ctx for trace propagation.
func (o *OTelEmitter) EmitBatch(ctx context.Context, events []Event) error {
	for _, event := range events {
		_, span := o.tracer.Start(ctx, event.Msg)
		o.populate(span, event)
		span.End()
	}
	return nil
}

// Flush force-flushes the active TracerProvider if it supports it; a noop
// provider (the default before any SDK is configured) is left alone.
func (o *OTelEmitter) Flush(ctx context.Context) error {
	type flusher interface {
		ForceFlush(context.Context) error
	}
	if f, ok := otel.GetTracerProvider().(flusher); ok {
		return f.ForceFlush(ctx)
	}
	return nil
}

func (o *OTelEmitter) populate(span trace.Span, event Event) {
	span.SetAttributes(
		attribute.String("graphcore.run_id", event.RunID),
		attribute.Int("graphcore.layer", event.Layer),
		attribute.String("graphcore.node_id", event.NodeID),
	)

	for key, value := range event.Meta {
		attrKey := key
		switch key {
		case "tokens_in":
			attrKey = "graphcore.llm.tokens_in"
		case "tokens_out":
			attrKey = "graphcore.llm.tokens_out"
		case "cost_usd":
			attrKey = "graphcore.llm.cost_usd"
		case "duration_ms":
			attrKey = "graphcore.node.duration_ms"
		case "model":
			attrKey = "graphcore.llm.model"
		case "attempt":
			attrKey = "graphcore.attempt"
		}

		switch v := value.(type) {
		case string:
			span.SetAttributes(attribute.String(attrKey, v))
		case int:
			span.SetAttributes(attribute.Int(attrKey, v))
		case int64:
			span.SetAttributes(attribute.Int64(attrKey, v))
		case float64:
			span.SetAttributes(attribute.Float64(attrKey, v))
		case bool:
			span.SetAttributes(attribute.Bool(attrKey, v))
		case time.Duration:
			span.SetAttributes(attribute.Int64(attrKey, int64(v/time.Millisecond)))
		default:
			span.SetAttributes(attribute.String(attrKey, fmt.Sprintf("%v", v)))
		}
	}

	if errText, ok := event.Meta["error"].(string); ok {
		span.SetStatus(codes.Error, errText)
		span.RecordError(fmt.Errorf("%s", errText))
	}
}
