package awsapi

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/sfn"
	"github.com/aws/aws-sdk-go/service/sfn/sfniface"

	"github.com/terminus-flow/terminus/pkg/history"
)

// ExecutionStatus is a state machine execution's status with the input it
// started from.
type ExecutionStatus struct {
	Status string
	Input  string
}

// StepFunctions adapts the Step Functions API to the history resolver and
// reconciler interfaces.
type StepFunctions struct {
	api sfniface.SFNAPI
}

func NewStepFunctions(p client.ConfigProvider) *StepFunctions {
	return &StepFunctions{api: sfn.New(p)}
}

// NewStepFunctionsWithAPI wires an explicit client, used by tests.
func NewStepFunctionsWithAPI(api sfniface.SFNAPI) *StepFunctions {
	return &StepFunctions{api: api}
}

// ExecutionHistory returns the most recent maxEvents history events of an
// execution, newest first.
func (s *StepFunctions) ExecutionHistory(ctx context.Context, executionArn string, maxEvents int) ([]history.Event, error) {
	output, err := s.api.GetExecutionHistoryWithContext(ctx, &sfn.GetExecutionHistoryInput{
		ExecutionArn: aws.String(executionArn),
		MaxResults:   aws.Int64(int64(maxEvents)),
		ReverseOrder: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get execution history: %w", err)
	}

	events := make([]history.Event, 0, len(output.Events))

	for _, event := range output.Events {
		var converted history.Event

		if event.StateEnteredEventDetails != nil {
			converted.StateEntered = &history.StateEntered{
				Input: aws.StringValue(event.StateEnteredEventDetails.Input),
			}
		}

		events = append(events, converted)
	}

	return events, nil
}

// DescribeExecution returns the current status and original input of an
// execution.
func (s *StepFunctions) DescribeExecution(ctx context.Context, executionArn string) (*ExecutionStatus, error) {
	output, err := s.api.DescribeExecutionWithContext(ctx, &sfn.DescribeExecutionInput{
		ExecutionArn: aws.String(executionArn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to describe execution: %w", err)
	}

	return &ExecutionStatus{
		Status: aws.StringValue(output.Status),
		Input:  aws.StringValue(output.Input),
	}, nil
}
