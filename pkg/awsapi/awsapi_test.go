package awsapi

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go/service/cloudwatchlogs/cloudwatchlogsiface"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/sfn"
	"github.com/aws/aws-sdk-go/service/sfn/sfniface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSFN struct {
	sfniface.SFNAPI

	historyInput *sfn.GetExecutionHistoryInput
	history      *sfn.GetExecutionHistoryOutput
	describe     *sfn.DescribeExecutionOutput
}

func (f *fakeSFN) GetExecutionHistoryWithContext(_ aws.Context, input *sfn.GetExecutionHistoryInput, _ ...request.Option) (*sfn.GetExecutionHistoryOutput, error) {
	f.historyInput = input

	return f.history, nil
}

func (f *fakeSFN) DescribeExecutionWithContext(_ aws.Context, _ *sfn.DescribeExecutionInput, _ ...request.Option) (*sfn.DescribeExecutionOutput, error) {
	return f.describe, nil
}

func TestExecutionHistoryQueriesNewestFirst(t *testing.T) {
	api := &fakeSFN{history: &sfn.GetExecutionHistoryOutput{
		Events: []*sfn.HistoryEvent{
			{StateEnteredEventDetails: &sfn.StateEnteredEventDetails{Input: aws.String(`{"error": {}}`)}},
			{},
		},
	}}

	events, err := NewStepFunctionsWithAPI(api).ExecutionHistory(context.Background(), "arn:x", 10)
	require.NoError(t, err)

	require.Len(t, events, 2)
	require.NotNil(t, events[0].StateEntered)
	assert.Nil(t, events[1].StateEntered)

	assert.Equal(t, int64(10), aws.Int64Value(api.historyInput.MaxResults))
	assert.True(t, aws.BoolValue(api.historyInput.ReverseOrder))
}

func TestDescribeExecution(t *testing.T) {
	api := &fakeSFN{describe: &sfn.DescribeExecutionOutput{
		Status: aws.String("FAILED"),
		Input:  aws.String(`{"id": "x"}`),
	}}

	status, err := NewStepFunctionsWithAPI(api).DescribeExecution(context.Background(), "arn:x")
	require.NoError(t, err)

	assert.Equal(t, "FAILED", status.Status)
	assert.Equal(t, `{"id": "x"}`, status.Input)
}

type fakeLogs struct {
	cloudwatchlogsiface.CloudWatchLogsAPI

	input *cloudwatchlogs.GetLogEventsInput
}

func (f *fakeLogs) GetLogEventsWithContext(_ aws.Context, input *cloudwatchlogs.GetLogEventsInput, _ ...request.Option) (*cloudwatchlogs.GetLogEventsOutput, error) {
	f.input = input

	return &cloudwatchlogs.GetLogEventsOutput{
		Events: []*cloudwatchlogs.OutputLogEvent{
			{Message: aws.String("first")},
			{Message: aws.String("last")},
		},
	}, nil
}

func TestLogEvents(t *testing.T) {
	api := &fakeLogs{}

	events, err := NewCloudWatchLogsWithAPI(api).LogEvents(context.Background(), "/aws/batch/job", "job/default/abc")
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, "last", events[1].Message)
	assert.Equal(t, "/aws/batch/job", aws.StringValue(api.input.LogGroupName))
	assert.True(t, aws.BoolValue(api.input.StartFromHead))
}

type fakeS3 struct {
	s3iface.S3API

	input *s3.GetObjectInput
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, input *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	f.input = input

	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewBufferString(`{"id": "s1/workflow-cog/item-1"}`)),
	}, nil
}

func TestS3ObjectStoreGetJSON(t *testing.T) {
	api := &fakeS3{}

	data, err := NewS3ObjectStoreWithAPI(api).GetJSON(context.Background(), "s3://payloads/run/input.json")
	require.NoError(t, err)

	assert.JSONEq(t, `{"id": "s1/workflow-cog/item-1"}`, string(data))
	assert.Equal(t, "payloads", aws.StringValue(api.input.Bucket))
	assert.Equal(t, "run/input.json", aws.StringValue(api.input.Key))
}

func TestParseS3URLRejectsOtherSchemes(t *testing.T) {
	_, _, err := parseS3URL("https://example.com/x.json")

	assert.Error(t, err)
}
