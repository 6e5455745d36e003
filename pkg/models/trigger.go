package models

import (
	"encoding/json"
	"fmt"
)

// TriggerType identifies one of the closed trigger kinds.
type TriggerType string

const (
	TriggerStageChange     TriggerType = "stage_change"
	TriggerNewLead         TriggerType = "new_lead"
	TriggerTimeBased       TriggerType = "time_based"
	TriggerFieldChange     TriggerType = "field_change"
	TriggerNoActivity      TriggerType = "no_activity"
	TriggerDateApproaching TriggerType = "date_approaching"
	TriggerFormSubmitted   TriggerType = "form_submitted"
)

// Trigger is the closed set of workflow trigger kinds. The unexported method
// seals the set so the matcher can switch over every concrete type.
//
// Only stage_change, new_lead, field_change and form_submitted are matched
// against live events; time_based, no_activity and date_approaching are
// satisfied by an external scheduler that synthesizes events on its own.
type Trigger interface {
	TriggerType() TriggerType
	trigger()
}

// StageChangeTrigger fires when a transaction moves into stage To. An empty
// From matches a move from any stage.
type StageChangeTrigger struct {
	From string `json:"from,omitempty"`
	To   string `json:"to"             validate:"required"`
}

func (StageChangeTrigger) TriggerType() TriggerType { return TriggerStageChange }
func (StageChangeTrigger) trigger()                 {}

// NewLeadTrigger fires when a lead is created. An empty Source matches leads
// from any source.
type NewLeadTrigger struct {
	Source string `json:"source,omitempty"`
}

func (NewLeadTrigger) TriggerType() TriggerType { return TriggerNewLead }
func (NewLeadTrigger) trigger()                 {}

// TimeBasedTrigger carries a cron schedule evaluated by the external
// scheduler, never by the live matcher.
type TimeBasedTrigger struct {
	Schedule string `json:"schedule" validate:"required"`
}

func (TimeBasedTrigger) TriggerType() TriggerType { return TriggerTimeBased }
func (TimeBasedTrigger) trigger()                 {}

// FieldChangeTrigger fires when the named entity field is edited.
type FieldChangeTrigger struct {
	Field string `json:"field" validate:"required"`
}

func (FieldChangeTrigger) TriggerType() TriggerType { return TriggerFieldChange }
func (FieldChangeTrigger) trigger()                 {}

// NoActivityTrigger fires after Days without activity on an entity;
// scheduler-driven.
type NoActivityTrigger struct {
	Days int `json:"days" validate:"required,min=1"`
}

func (NoActivityTrigger) TriggerType() TriggerType { return TriggerNoActivity }
func (NoActivityTrigger) trigger()                 {}

// DateApproachingTrigger fires DaysBefore days ahead of the date held in
// Field; scheduler-driven.
type DateApproachingTrigger struct {
	Field      string `json:"field"       validate:"required"`
	DaysBefore int    `json:"days_before" validate:"required,min=1"`
}

func (DateApproachingTrigger) TriggerType() TriggerType { return TriggerDateApproaching }
func (DateApproachingTrigger) trigger()                 {}

// FormSubmittedTrigger fires when the named website form is submitted.
type FormSubmittedTrigger struct {
	FormID string `json:"form_id" validate:"required"`
}

func (FormSubmittedTrigger) TriggerType() TriggerType { return TriggerFormSubmitted }
func (FormSubmittedTrigger) trigger()                 {}

type triggerEnvelope struct {
	Type TriggerType `json:"type"`
}

// UnmarshalTrigger decodes a trigger envelope of the form
// {"type": "stage_change", ...} into its concrete type.
func UnmarshalTrigger(data []byte) (Trigger, error) {
	var envelope triggerEnvelope

	err := json.Unmarshal(data, &envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to decode trigger envelope: %w", err)
	}

	var trigger Trigger

	switch envelope.Type {
	case TriggerStageChange:
		trigger = &StageChangeTrigger{}
	case TriggerNewLead:
		trigger = &NewLeadTrigger{}
	case TriggerTimeBased:
		trigger = &TimeBasedTrigger{}
	case TriggerFieldChange:
		trigger = &FieldChangeTrigger{}
	case TriggerNoActivity:
		trigger = &NoActivityTrigger{}
	case TriggerDateApproaching:
		trigger = &DateApproachingTrigger{}
	case TriggerFormSubmitted:
		trigger = &FormSubmittedTrigger{}
	default:
		return nil, fmt.Errorf("unknown trigger type %q", envelope.Type)
	}

	err = json.Unmarshal(data, trigger)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s trigger: %w", envelope.Type, err)
	}

	return deref(trigger), nil
}

// MarshalTrigger encodes a trigger with its type tag.
func MarshalTrigger(trigger Trigger) ([]byte, error) {
	body, err := json.Marshal(trigger)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s trigger: %w", trigger.TriggerType(), err)
	}

	return withTypeTag(body, "type", string(trigger.TriggerType()))
}

// deref returns the value pointed at so triggers compare by value in tests.
func deref(trigger Trigger) Trigger {
	switch t := trigger.(type) {
	case *StageChangeTrigger:
		return *t
	case *NewLeadTrigger:
		return *t
	case *TimeBasedTrigger:
		return *t
	case *FieldChangeTrigger:
		return *t
	case *NoActivityTrigger:
		return *t
	case *DateApproachingTrigger:
		return *t
	case *FormSubmittedTrigger:
		return *t
	default:
		return trigger
	}
}

// withTypeTag injects a tag field into an encoded JSON object.
func withTypeTag(body []byte, key, value string) ([]byte, error) {
	var fields map[string]any

	err := json.Unmarshal(body, &fields)
	if err != nil {
		return nil, fmt.Errorf("failed to re-decode envelope body: %w", err)
	}

	fields[key] = value

	return json.Marshal(fields)
}
