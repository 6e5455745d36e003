package models

// WorkflowEvent is a transient domain event produced by the CRM layer and
// consumed once by the run orchestrator: a stage changed, a lead arrived, a
// tracked field was edited or a form was submitted.
//
// Data carries the event payload the trigger matcher inspects: "from"/"to"
// for stage changes, "source" for new leads, "field" for field edits and
// "form_id" for form submissions.
type WorkflowEvent struct {
	Type          TriggerType    `json:"type"`
	ContactID     string         `json:"contact_id,omitempty"`
	TransactionID string         `json:"transaction_id,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
}
