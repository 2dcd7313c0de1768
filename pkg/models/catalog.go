package models

import "strings"

const workflowSegmentPrefix = "workflow-"

// Catalog is the process payload document tracked by a state record. Its ID
// uniquely identifies one workflow execution and is immutable once assigned.
// The full document is kept for notification bodies and downstream stages.
type Catalog struct {
	ID       string         `json:"id"       validate:"required"`
	Document map[string]any `json:"-"`
}

// Collections returns the input collections encoded in the catalog ID. IDs
// follow the form "{collections}/workflow-{workflow}/{items}".
func (c *Catalog) Collections() string {
	segments := strings.Split(c.ID, "/")
	for i, segment := range segments {
		if strings.HasPrefix(segment, workflowSegmentPrefix) {
			return strings.Join(segments[:i], "/")
		}
	}

	return ""
}

// Workflow returns the workflow name encoded in the catalog ID, or "" when
// the ID does not follow the conventional form.
func (c *Catalog) Workflow() string {
	for _, segment := range strings.Split(c.ID, "/") {
		if strings.HasPrefix(segment, workflowSegmentPrefix) {
			return strings.TrimPrefix(segment, workflowSegmentPrefix)
		}
	}

	return ""
}
