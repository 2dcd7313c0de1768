package classify

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/terminus-flow/terminus/pkg/models"
)

type fakeDecoder struct {
	catalog *models.Catalog
	err     error

	payload []byte
}

func (f *fakeDecoder) FromPayload(_ context.Context, payload []byte) (*models.Catalog, error) {
	f.payload = payload

	return f.catalog, f.err
}

type fakeCauseResolver struct {
	cause *models.ExecutionError

	arn string
}

func (f *fakeCauseResolver) ResolveCause(_ context.Context, executionArn string) *models.ExecutionError {
	f.arn = executionArn

	return f.cause
}

func newTestClassifier(decoder *fakeDecoder, resolver *fakeCauseResolver) *Classifier {
	return NewClassifier(decoder, resolver, slog.Default())
}

func TestClassifyDirectFailure(t *testing.T) {
	decoder := &fakeDecoder{catalog: &models.Catalog{ID: "s1/workflow-cog/item-1"}}
	c := newTestClassifier(decoder, &fakeCauseResolver{})

	payload := []byte(`{"id": "s1/workflow-cog/item-1", "error": {"Error": "States.TaskFailed", "Cause": "boom"}}`)

	got, err := c.Classify(context.Background(), payload)
	require.NoError(t, err)

	assert.Equal(t, models.StatusFailed, got.Status)
	assert.Equal(t, "s1/workflow-cog/item-1", got.Catalog.ID)
	require.NotNil(t, got.Error)
	assert.Equal(t, "States.TaskFailed", got.Error.Error)
	assert.Equal(t, "boom", got.Error.Cause)
	assert.Equal(t, payload, decoder.payload)
}

func TestClassifyExecutionEventSucceeded(t *testing.T) {
	decoder := &fakeDecoder{catalog: &models.Catalog{ID: "s1/workflow-cog/item-1"}}
	resolver := &fakeCauseResolver{}
	c := newTestClassifier(decoder, resolver)

	payload := []byte(`{
		"source": "aws.states",
		"detail": {
			"status": "SUCCEEDED",
			"executionArn": "arn:aws:states:us-west-2:123:execution:cog:run-1",
			"input": "{\"id\": \"s1/workflow-cog/item-1\"}"
		}
	}`)

	got, err := c.Classify(context.Background(), payload)
	require.NoError(t, err)

	assert.Equal(t, models.StatusSucceeded, got.Status)
	assert.Nil(t, got.Error)
	assert.Empty(t, resolver.arn, "succeeded events must not query execution history")
	assert.JSONEq(t, `{"id": "s1/workflow-cog/item-1"}`, string(decoder.payload))
}

func TestClassifyExecutionEventFailedResolvesCause(t *testing.T) {
	decoder := &fakeDecoder{catalog: &models.Catalog{ID: "s1/workflow-cog/item-1"}}
	resolver := &fakeCauseResolver{cause: &models.ExecutionError{Error: "ValueError", Cause: "bad input"}}
	c := newTestClassifier(decoder, resolver)

	payload := []byte(`{
		"source": "aws.states",
		"detail": {
			"status": "FAILED",
			"executionArn": "arn:aws:states:us-west-2:123:execution:cog:run-2",
			"input": "{\"id\": \"s1/workflow-cog/item-1\"}"
		}
	}`)

	got, err := c.Classify(context.Background(), payload)
	require.NoError(t, err)

	assert.Equal(t, models.StatusFailed, got.Status)
	require.NotNil(t, got.Error)
	assert.Equal(t, "ValueError", got.Error.Error)
	assert.Equal(t, "arn:aws:states:us-west-2:123:execution:cog:run-2", resolver.arn)
}

func TestClassifyExecutionEventUnsupportedStatusPassesThrough(t *testing.T) {
	decoder := &fakeDecoder{catalog: &models.Catalog{ID: "s1/workflow-cog/item-1"}}
	c := newTestClassifier(decoder, &fakeCauseResolver{})

	payload := []byte(`{
		"source": "aws.states",
		"detail": {
			"status": "TIMED_OUT",
			"executionArn": "arn:aws:states:us-west-2:123:execution:cog:run-3",
			"input": "{\"id\": \"s1/workflow-cog/item-1\"}"
		}
	}`)

	got, err := c.Classify(context.Background(), payload)
	require.NoError(t, err)

	assert.Equal(t, models.TerminalStatus("TIMED_OUT"), got.Status)
	assert.Nil(t, got.Error)
}

func TestClassifyUnknownShape(t *testing.T) {
	c := newTestClassifier(&fakeDecoder{}, &fakeCauseResolver{})

	_, err := c.Classify(context.Background(), []byte(`{"source": "aws.s3", "detail": {"bucket": "x"}}`))

	assert.ErrorIs(t, err, ErrUnknownPayload)
}

func TestClassifyNotJSON(t *testing.T) {
	c := newTestClassifier(&fakeDecoder{}, &fakeCauseResolver{})

	_, err := c.Classify(context.Background(), []byte("not json"))

	assert.ErrorIs(t, err, ErrUnknownPayload)
}

func TestClassifyCatalogResolutionFailure(t *testing.T) {
	decoder := &fakeDecoder{err: errors.New("document has no id")}
	c := newTestClassifier(decoder, &fakeCauseResolver{})

	_, err := c.Classify(context.Background(), []byte(`{"error": {"Error": "X"}}`))

	assert.ErrorContains(t, err, "resolving catalog")
}

func TestClassifyFailureWithoutErrorField(t *testing.T) {
	decoder := &fakeDecoder{catalog: &models.Catalog{ID: "s1/workflow-cog/item-1"}}
	c := newTestClassifier(decoder, &fakeCauseResolver{})

	got, err := c.ClassifyFailure(context.Background(), []byte(`{"id": "s1/workflow-cog/item-1"}`))
	require.NoError(t, err)

	assert.Equal(t, models.StatusFailed, got.Status)
	assert.Nil(t, got.Error)
}
