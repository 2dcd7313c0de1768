package cause

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// DefaultLogGroup is the log group batch task containers write to.
	DefaultLogGroup = "/aws/batch/job"

	// taskErrorPrefix is the library-qualified exception prefix batch tasks
	// put in front of their final log line. It is stripped before the
	// message is split into an error type and message.
	taskErrorPrefix = "cirruslib.errors."
)

// Fallback descriptor values when the log stream cannot be read. These are
// part of the operator-visible contract, not internal placeholders.
const (
	logFailureType    = "Exception"
	logFailureMessage = "Unable to get Error Log"
)

// LogEvent is one entry of a task's log stream.
type LogEvent struct {
	Message string
}

// LogAPI reads a log stream from a fixed log group, oldest event first.
type LogAPI interface {
	LogEvents(ctx context.Context, group, stream string) ([]LogEvent, error)
}

// LogResolver recovers an error type and message from the last entry of a
// failed container task's log stream. It never fails: any retrieval problem
// yields the fixed ("Exception", "Unable to get Error Log") pair.
type LogResolver struct {
	api    LogAPI
	group  string
	logger *slog.Logger
}

func NewLogResolver(api LogAPI, group string, logger *slog.Logger) *LogResolver {
	if group == "" {
		group = DefaultLogGroup
	}

	return &LogResolver{
		api:    api,
		group:  group,
		logger: logger.With("module", "cause"),
	}
}

// ResolveFromLog splits the most recent log message of the stream into an
// error type and message on the first colon, after stripping the
// conventional task error prefix.
func (lr *LogResolver) ResolveFromLog(ctx context.Context, stream string) (string, string) {
	events, err := lr.api.LogEvents(ctx, lr.group, stream)
	if err != nil || len(events) == 0 {
		lr.logger.WarnContext(ctx, "Unable to read task error log",
			"log_group", lr.group,
			"log_stream", stream,
			"error", err)

		return logFailureType, logFailureMessage
	}

	message := strings.TrimPrefix(events[len(events)-1].Message, taskErrorPrefix)

	parts := strings.SplitN(message, ":", 2)
	if len(parts) == 2 {
		return parts[0], strings.TrimSpace(parts[1])
	}

	return "Unknown", message
}
