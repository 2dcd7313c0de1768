// Package cause turns the raw error attached to a failed execution into a
// short descriptor suitable for state records and notifications. The raw
// cause can be a structured runtime error, a reference to a container task
// whose last log line carries the real message, or plain text.
package cause

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/terminus-flow/terminus/pkg/models"
)

// containerExitSignature marks a batch attempt whose container died before
// the task could report a structured error.
const containerExitSignature = "Essential container in task exited"

const unknownValue = "unknown"

// causeDocument is the parseable portion of a structured cause payload.
type causeDocument struct {
	ErrorMessage string `json:"errorMessage"`
	Attempts     []struct {
		StatusReason string `json:"StatusReason"`
		Container    struct {
			LogStreamName string `json:"LogStreamName"`
		} `json:"Container"`
	} `json:"Attempts"`
}

// Extractor condenses an execution error into an ErrorDescriptor. Strategies
// are tried in order: structured message, container exit log lookup, then the
// raw cause text. Extraction never fails; missing information degrades to
// "unknown".
type Extractor struct {
	logs   *LogResolver
	logger *slog.Logger
}

func NewExtractor(logs *LogResolver, logger *slog.Logger) *Extractor {
	return &Extractor{
		logs:   logs,
		logger: logger.With("module", "cause"),
	}
}

// Extract produces the descriptor for an execution error. A nil error or an
// error carrying no usable detail yields {"unknown", "unknown"}.
func (e *Extractor) Extract(ctx context.Context, execErr *models.ExecutionError) models.ErrorDescriptor {
	desc := models.ErrorDescriptor{Type: unknownValue, Message: unknownValue}
	if execErr == nil {
		return desc
	}

	if execErr.Error != "" {
		desc.Type = execErr.Error
	}

	if execErr.Cause == "" {
		return desc
	}

	var doc causeDocument
	if err := json.Unmarshal([]byte(execErr.Cause), &doc); err != nil {
		// Plain-text cause.
		desc.Message = execErr.Cause

		return desc
	}

	if doc.ErrorMessage != "" {
		desc.Message = doc.ErrorMessage

		return desc
	}

	if stream, ok := containerLogStream(&doc); ok {
		desc.Type, desc.Message = e.logs.ResolveFromLog(ctx, stream)

		return desc
	}

	e.logger.DebugContext(ctx, "Execution error cause carries no recognizable detail",
		"error_type", desc.Type)

	return desc
}

// containerLogStream reports the log stream of the last attempt when that
// attempt died from a container exit.
func containerLogStream(doc *causeDocument) (string, bool) {
	if len(doc.Attempts) == 0 {
		return "", false
	}

	last := doc.Attempts[len(doc.Attempts)-1]
	if !strings.Contains(last.StatusReason, containerExitSignature) {
		return "", false
	}

	if last.Container.LogStreamName == "" {
		return "", false
	}

	return last.Container.LogStreamName, true
}
