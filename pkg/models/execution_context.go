package models

// ExecutionContext carries the per-run entity view: the identifiers actions
// write against and the data bag conditions read from. The host assembles it
// before invoking the orchestrator; the engine never persists it.
type ExecutionContext struct {
	ContactID     string         `json:"contact_id,omitempty"`
	TransactionID string         `json:"transaction_id,omitempty"`
	EntityData    map[string]any `json:"entity_data,omitempty"`
}
