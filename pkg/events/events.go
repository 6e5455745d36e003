// Package events defines the event envelopes exchanged between the CRM
// surface and the workflow engine, plus the run lifecycle notifications the
// engine publishes back.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/propflow/propflow/pkg/models"
)

type EventType string

// Kafka topics.
const Topic = "propflow.events"   // Inbound CRM events that may trigger workflows
const RunsTopic = "propflow.runs" // Run lifecycle notifications published by workers

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Inbound CRM events.
	CRMEventReceivedEvent EventType = "crm.event.received"

	// Run lifecycle events.
	RunResumeRequestedEvent EventType = "run.resume_requested"
	RunCompletedEvent       EventType = "run.completed"
	RunFailedEvent          EventType = "run.failed"
	RunPausedEvent          EventType = "run.paused"
	RunResumedEvent         EventType = "run.resumed"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id,omitempty"`
	WorkerID   string         `json:"worker_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// CRMEventReceived wraps a CRM occurrence (stage change, new lead, form
// submission...) on its way to the workflow workers.
type CRMEventReceived struct {
	BaseEvent

	Event models.WorkflowEvent `json:"event"`
}

func (c CRMEventReceived) GetType() EventType {
	return CRMEventReceivedEvent
}

// RunCompleted reports a run that walked its remaining actions to the end.
type RunCompleted struct {
	BaseEvent

	RunID           string `json:"run_id"`
	ContactID       string `json:"contact_id,omitempty"`
	ActionsExecuted int    `json:"actions_executed"`
	DurationMs      int64  `json:"duration_ms"`
}

func (r RunCompleted) GetType() EventType {
	return RunCompletedEvent
}

// RunFailed reports a run stopped by its first failing action.
type RunFailed struct {
	BaseEvent

	RunID             string `json:"run_id"`
	ContactID         string `json:"contact_id,omitempty"`
	Error             string `json:"error"`
	FailedActionIndex int    `json:"failed_action_index"`
	DurationMs        int64  `json:"duration_ms"`
}

func (r RunFailed) GetType() EventType {
	return RunFailedEvent
}

// RunPaused reports a run suspended at a wait action. The external scheduler
// uses ResumeAt to know when to hand the run back to a worker.
type RunPaused struct {
	BaseEvent

	RunID           string    `json:"run_id"`
	ContactID       string    `json:"contact_id,omitempty"`
	ResumeAt        time.Time `json:"resume_at"`
	NextActionIndex int       `json:"next_action_index"`
}

func (r RunPaused) GetType() EventType {
	return RunPausedEvent
}

// RunResumeRequested asks a worker to re-enter a paused run. The external
// scheduler (or an operator via the API) publishes it once the run's resume
// time has passed.
type RunResumeRequested struct {
	BaseEvent

	RunID string `json:"run_id"`
}

func (r RunResumeRequested) GetType() EventType {
	return RunResumeRequestedEvent
}

// RunResumed reports a paused run re-entering execution.
type RunResumed struct {
	BaseEvent

	RunID            string `json:"run_id"`
	ResumedFromIndex int    `json:"resumed_from_index"`
}

func (r RunResumed) GetType() EventType {
	return RunResumedEvent
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		Metadata:   make(map[string]any),
	}
}
