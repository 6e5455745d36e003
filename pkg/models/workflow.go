// Package models defines the core domain models for CRM workflow automation.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Workflow is an automation definition owned by an agency: one trigger, an
// ordered list of conditions (implicit AND) and an ordered list of actions.
// The engine treats it as read-only; action order is execution order.
type Workflow struct {
	ID          string      `json:"id"`
	AgencyID    string      `json:"agency_id"`
	Name        string      `json:"name"                  validate:"required,min=3"`
	Description string      `json:"description,omitempty"`
	Trigger     Trigger     `json:"trigger"               validate:"required"`
	Conditions  []Condition `json:"conditions,omitempty"  validate:"dive"`
	Actions     []Action    `json:"actions,omitempty"`
	Active      bool        `json:"active"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// workflowJSON mirrors Workflow with the polymorphic fields held as raw JSON
// so the trigger and action envelopes can be decoded by kind.
type workflowJSON struct {
	ID          string            `json:"id"`
	AgencyID    string            `json:"agency_id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Trigger     json.RawMessage   `json:"trigger"`
	Conditions  []Condition       `json:"conditions,omitempty"`
	Actions     []json.RawMessage `json:"actions,omitempty"`
	Active      bool              `json:"active"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

func (w *Workflow) UnmarshalJSON(data []byte) error {
	var raw workflowJSON

	err := json.Unmarshal(data, &raw)
	if err != nil {
		return fmt.Errorf("failed to decode workflow: %w", err)
	}

	w.ID = raw.ID
	w.AgencyID = raw.AgencyID
	w.Name = raw.Name
	w.Description = raw.Description
	w.Conditions = raw.Conditions
	w.Active = raw.Active
	w.CreatedAt = raw.CreatedAt
	w.UpdatedAt = raw.UpdatedAt

	if len(raw.Trigger) > 0 {
		trigger, err := UnmarshalTrigger(raw.Trigger)
		if err != nil {
			return fmt.Errorf("failed to decode workflow trigger: %w", err)
		}

		w.Trigger = trigger
	}

	w.Actions = make([]Action, 0, len(raw.Actions))

	for i, rawAction := range raw.Actions {
		action, err := UnmarshalAction(rawAction)
		if err != nil {
			return fmt.Errorf("failed to decode workflow action %d: %w", i, err)
		}

		w.Actions = append(w.Actions, action)
	}

	return nil
}

func (w Workflow) MarshalJSON() ([]byte, error) {
	raw := workflowJSON{
		ID:          w.ID,
		AgencyID:    w.AgencyID,
		Name:        w.Name,
		Description: w.Description,
		Conditions:  w.Conditions,
		Active:      w.Active,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}

	if w.Trigger != nil {
		trigger, err := MarshalTrigger(w.Trigger)
		if err != nil {
			return nil, fmt.Errorf("failed to encode workflow trigger: %w", err)
		}

		raw.Trigger = trigger
	}

	raw.Actions = make([]json.RawMessage, 0, len(w.Actions))

	for i, action := range w.Actions {
		encoded, err := MarshalAction(action)
		if err != nil {
			return nil, fmt.Errorf("failed to encode workflow action %d: %w", i, err)
		}

		raw.Actions = append(raw.Actions, encoded)
	}

	return json.Marshal(raw)
}
