package models

// InvalidInputErrorType marks a failure caused by the workflow's input data
// rather than by the processing logic. It selects the INVALID state record
// transition and the invalid-input notification channel.
const InvalidInputErrorType = "InvalidInput"

// ExecutionError is the raw error object attached to a failed workflow
// execution: an error type and a free-form cause, conventionally a
// JSON-encoded document.
type ExecutionError struct {
	Error string `json:"Error"`
	Cause string `json:"Cause"`
}

// ErrorDescriptor is the normalized, always-producible error cause shown to
// operators. Extraction degrades to placeholder values rather than failing,
// so neither field is ever empty.
type ErrorDescriptor struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (d ErrorDescriptor) String() string {
	return d.Type + ": " + d.Message
}
