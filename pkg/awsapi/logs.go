package awsapi

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go/service/cloudwatchlogs/cloudwatchlogsiface"

	"github.com/terminus-flow/terminus/pkg/cause"
)

// CloudWatchLogs adapts the CloudWatch Logs API to the log resolver
// interface.
type CloudWatchLogs struct {
	api cloudwatchlogsiface.CloudWatchLogsAPI
}

func NewCloudWatchLogs(p client.ConfigProvider) *CloudWatchLogs {
	return &CloudWatchLogs{api: cloudwatchlogs.New(p)}
}

// NewCloudWatchLogsWithAPI wires an explicit client, used by tests.
func NewCloudWatchLogsWithAPI(api cloudwatchlogsiface.CloudWatchLogsAPI) *CloudWatchLogs {
	return &CloudWatchLogs{api: api}
}

// LogEvents returns the events of one log stream, oldest first.
func (c *CloudWatchLogs) LogEvents(ctx context.Context, group, stream string) ([]cause.LogEvent, error) {
	output, err := c.api.GetLogEventsWithContext(ctx, &cloudwatchlogs.GetLogEventsInput{
		LogGroupName:  aws.String(group),
		LogStreamName: aws.String(stream),
		StartFromHead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get log events: %w", err)
	}

	events := make([]cause.LogEvent, 0, len(output.Events))
	for _, event := range output.Events {
		events = append(events, cause.LogEvent{Message: aws.StringValue(event.Message)})
	}

	return events, nil
}
