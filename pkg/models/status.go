package models

// TerminalStatus is the final outcome classification reported for a workflow
// execution. INVALID is never supplied by the execution engine; it is a
// refinement of FAILED discovered during error-cause extraction.
type TerminalStatus string

const (
	StatusSucceeded TerminalStatus = "SUCCEEDED"
	StatusFailed    TerminalStatus = "FAILED"
	StatusInvalid   TerminalStatus = "INVALID"
)

// RecordState is the lifecycle state of a workflow state record.
type RecordState string

const (
	RecordStateProcessing RecordState = "PROCESSING"
	RecordStateCompleted  RecordState = "COMPLETED"
	RecordStateFailed     RecordState = "FAILED"
	RecordStateInvalid    RecordState = "INVALID"
)
