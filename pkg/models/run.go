package models

import "time"

// RunStatus is the persisted lifecycle state of a workflow run. A paused run
// is stored as running: the pause is encoded by CurrentActionIndex plus
// ResumeAt, and the scheduler re-invokes the orchestrator once ResumeAt has
// passed.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// WorkflowRun is the persisted record of one execution attempt. It is written
// only when a run pauses, fails or completes; a run whose trigger or
// conditions never matched leaves no record.
//
// CurrentActionIndex always holds the index of the next action to execute on
// resume: paused action index + 1 after a pause, the failing action's index
// after a failure, len(actions) after completion.
type WorkflowRun struct {
	ID                 string     `json:"id"`
	WorkflowID         string     `json:"workflow_id"`
	ContactID          string     `json:"contact_id,omitempty"`
	TransactionID      string     `json:"transaction_id,omitempty"`
	Status             RunStatus  `json:"status"`
	CurrentActionIndex int        `json:"current_action_index"`
	Error              string     `json:"error,omitempty"`
	ResumeAt           *time.Time `json:"resume_at,omitempty"`
	StartedAt          time.Time  `json:"started_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
}

// ActionResult is the uniform outcome of executing one action.
type ActionResult struct {
	Success    bool           `json:"success"`
	ActionKind ActionKind     `json:"action_kind"`
	Output     map[string]any `json:"output,omitempty"`
	Error      string         `json:"error,omitempty"`
	Paused     bool           `json:"paused,omitempty"`
	ResumeAt   *time.Time     `json:"resume_at,omitempty"`
}
