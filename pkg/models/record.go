package models

import "time"

// StateRecord is one workflow execution's durable state. Records are created
// when a workflow starts processing and mutated exactly once per terminal
// event; this subsystem never deletes them.
type StateRecord struct {
	StateKey    string      `json:"state_key"`
	Collections string      `json:"collections"`
	Workflow    string      `json:"workflow"`
	Execution   string      `json:"execution,omitempty"`
	Status      RecordState `json:"status"`
	LastError   string      `json:"last_error,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewStateRecord builds a processing-state record for a catalog, deriving the
// descriptive collections and workflow attributes from the catalog ID.
func NewStateRecord(catalog *Catalog, execution string) *StateRecord {
	now := time.Now().UTC()

	return &StateRecord{
		StateKey:    catalog.ID,
		Collections: catalog.Collections(),
		Workflow:    catalog.Workflow(),
		Execution:   execution,
		Status:      RecordStateProcessing,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
