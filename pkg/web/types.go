// Package web provides the HTTP handlers for workflow management and event
// injection.
package web

import (
	"encoding/json"
	"fmt"

	"github.com/propflow/propflow/pkg/models"
)

// CreateWorkflowRequest is the request body for creating a workflow. Trigger
// and actions arrive as their tagged JSON envelopes.
type CreateWorkflowRequest struct {
	Name        string             `json:"name"                  validate:"required,min=3"`
	Description string             `json:"description,omitempty"`
	AgencyID    string             `json:"agency_id,omitempty"`
	Trigger     json.RawMessage    `json:"trigger"               validate:"required"`
	Conditions  []models.Condition `json:"conditions,omitempty"`
	Actions     []json.RawMessage  `json:"actions,omitempty"`
	Active      bool               `json:"active"`
}

// ToWorkflow decodes the envelopes and builds the workflow definition.
func (r CreateWorkflowRequest) ToWorkflow() (*models.Workflow, error) {
	trigger, err := models.UnmarshalTrigger(r.Trigger)
	if err != nil {
		return nil, fmt.Errorf("invalid trigger: %w", err)
	}

	actions := make([]models.Action, 0, len(r.Actions))

	for i, raw := range r.Actions {
		action, err := models.UnmarshalAction(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid action at index %d: %w", i, err)
		}

		actions = append(actions, action)
	}

	return &models.Workflow{
		Name:        r.Name,
		Description: r.Description,
		AgencyID:    r.AgencyID,
		Trigger:     trigger,
		Conditions:  r.Conditions,
		Actions:     actions,
		Active:      r.Active,
	}, nil
}

// UpdateWorkflowRequest is the request body for updating a workflow. All
// fields are optional to support partial updates.
type UpdateWorkflowRequest struct {
	Name        *string            `json:"name,omitempty"        validate:"omitempty,min=3"`
	Description *string            `json:"description,omitempty"`
	Trigger     json.RawMessage    `json:"trigger,omitempty"`
	Conditions  []models.Condition `json:"conditions,omitempty"`
	Actions     []json.RawMessage  `json:"actions,omitempty"`
	Active      *bool              `json:"active,omitempty"`
}

// InjectEventRequest is the request body for handing a CRM event to the
// workflow workers.
type InjectEventRequest struct {
	Type          models.TriggerType `json:"type"                     validate:"required"`
	ContactID     string             `json:"contact_id,omitempty"`
	TransactionID string             `json:"transaction_id,omitempty"`
	Data          map[string]any     `json:"data,omitempty"`
}
