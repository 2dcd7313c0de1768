// Package cmd provides common initialization for the service entry points.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/trace"

	"github.com/terminus-flow/terminus/pkg/awsapi"
	"github.com/terminus-flow/terminus/pkg/catalog"
	"github.com/terminus-flow/terminus/pkg/cause"
	"github.com/terminus-flow/terminus/pkg/classify"
	"github.com/terminus-flow/terminus/pkg/dispatch"
	"github.com/terminus-flow/terminus/pkg/history"
	"github.com/terminus-flow/terminus/pkg/notify"
	"github.com/terminus-flow/terminus/pkg/pipeline"
	"github.com/terminus-flow/terminus/pkg/statestore"
)

// PipelineConfig collects everything the processing pipeline needs.
type PipelineConfig struct {
	Region        string
	BatchLogGroup string
	HistoryMax    int `validate:"gte=0"`
	FailedTopic   string
	InvalidTopic  string
}

// NewPipeline assembles the classification, extraction, and dispatch chain
// on top of the AWS clients.
func NewPipeline(
	config PipelineConfig,
	store statestore.StateStore,
	notifier notify.Notifier,
	tracer trace.Tracer,
	logger *slog.Logger,
) (*pipeline.Pipeline, error) {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(config)
	if err != nil {
		return nil, fmt.Errorf("invalid pipeline config: %w", err)
	}

	sess, err := awsapi.NewSession(config.Region)
	if err != nil {
		return nil, err
	}

	catalogs, err := catalog.NewResolver(awsapi.NewS3ObjectStore(sess), logger)
	if err != nil {
		return nil, err
	}

	histories := history.NewResolver(awsapi.NewStepFunctions(sess), logger)
	if config.HistoryMax > 0 {
		histories = histories.WithMaxEvents(config.HistoryMax)
	}

	classifier := classify.NewClassifier(catalogs, histories, logger)

	extractor := cause.NewExtractor(
		cause.NewLogResolver(awsapi.NewCloudWatchLogs(sess), config.BatchLogGroup, logger),
		logger,
	)

	topics := dispatch.Topics{Failed: config.FailedTopic, Invalid: config.InvalidTopic}
	dispatcher := dispatch.NewDispatcher(store, extractor, notifier, topics, logger)

	return pipeline.New(classifier, dispatcher, tracer, logger), nil
}

// Shutdown closes a resource and logs the failure instead of propagating it.
func Shutdown(ctx context.Context, logger *slog.Logger, name string, close func() error) {
	if err := close(); err != nil {
		logger.ErrorContext(ctx, "Failed to close "+name, "error", err)
	}
}
