// Package pipeline ties classification, cause extraction, and dispatch into
// the single processing path both consuming services share. The two entry
// points differ only in how they route the payload into classification;
// everything downstream is identical.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/terminus-flow/terminus/pkg/catalog"
	"github.com/terminus-flow/terminus/pkg/classify"
	"github.com/terminus-flow/terminus/pkg/dispatch"
	"github.com/terminus-flow/terminus/pkg/otelhelper"
)

type classifyFunc func(ctx context.Context, payload []byte) (*classify.Classification, error)

// Pipeline processes raw event payloads to completion.
type Pipeline struct {
	classifier *classify.Classifier
	dispatcher *dispatch.Dispatcher
	tracer     trace.Tracer
	logger     *slog.Logger
}

func New(classifier *classify.Classifier, dispatcher *dispatch.Dispatcher, tracer trace.Tracer, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		classifier: classifier,
		dispatcher: dispatcher,
		tracer:     tracer,
		logger:     logger.With("module", "pipeline"),
	}
}

// ProcessExecutionEvent handles payloads from the execution event stream,
// which carry either shape.
func (p *Pipeline) ProcessExecutionEvent(ctx context.Context, payload []byte) error {
	return p.process(ctx, "pipeline.process_execution_event", payload, p.classifier.Classify)
}

// ProcessFailureEvent handles payloads from the direct failure stream, which
// are always failure reports.
func (p *Pipeline) ProcessFailureEvent(ctx context.Context, payload []byte) error {
	return p.process(ctx, "pipeline.process_failure_event", payload, p.classifier.ClassifyFailure)
}

func (p *Pipeline) process(ctx context.Context, spanName string, payload []byte, classifyPayload classifyFunc) error {
	ctx, span := otelhelper.StartSpan(ctx, p.tracer, spanName)
	defer span.End()

	classification, err := classifyPayload(ctx, payload)
	if err != nil {
		// Malformed and out-of-scope payloads are dropped so they cannot
		// wedge the consuming stream. Transient failures, such as an
		// unreachable object store, propagate for redelivery.
		if errors.Is(err, classify.ErrUnknownPayload) || errors.Is(err, catalog.ErrMalformedDocument) {
			p.logger.WarnContext(ctx, "Dropping unclassifiable payload",
				"error", err,
				"payload", string(payload))

			return nil
		}

		otelhelper.SetError(span, err)

		return fmt.Errorf("classifying payload: %w", err)
	}

	span.SetAttributes(
		attribute.String(otelhelper.StateKeyKey, classification.Catalog.ID),
		attribute.String(otelhelper.StatusKey, string(classification.Status)),
	)

	err = p.dispatcher.Dispatch(ctx, classification)
	if err != nil {
		otelhelper.SetError(span, err, attribute.String(otelhelper.StateKeyKey, classification.Catalog.ID))

		p.logger.ErrorContext(ctx, "Failed to finalize workflow outcome",
			"state_key", classification.Catalog.ID,
			"status", string(classification.Status),
			"error", err)

		return err
	}

	return nil
}
