package models

import (
	"encoding/json"
	"fmt"
)

// ActionKind identifies one of the closed action kinds.
type ActionKind string

const (
	ActionSendEmail      ActionKind = "send_email"
	ActionSendSMS        ActionKind = "send_sms"
	ActionCreateTask     ActionKind = "create_task"
	ActionAssignContact  ActionKind = "assign_contact"
	ActionUpdateField    ActionKind = "update_field"
	ActionAddTag         ActionKind = "add_tag"
	ActionNotifyAgent    ActionKind = "notify_agent"
	ActionPostSocial     ActionKind = "post_social"
	ActionWebhook        ActionKind = "webhook"
	ActionWait           ActionKind = "wait"
	ActionCreateFollowUp ActionKind = "create_follow_up"
)

// Action is the closed set of executable workflow action kinds. The
// unexported method seals the set so the executor can switch over every
// concrete type.
type Action interface {
	ActionKind() ActionKind
	action()
}

// SendEmailAction enqueues an outbound email referencing a message template.
// Template placeholders like {{contact.first_name}} pass through untouched;
// substitution happens in the delivery pipeline.
type SendEmailAction struct {
	TemplateID string `json:"template_id" validate:"required"`
	Subject    string `json:"subject,omitempty"`
	Body       string `json:"body,omitempty"`
}

func (SendEmailAction) ActionKind() ActionKind { return ActionSendEmail }
func (SendEmailAction) action()                {}

// SendSMSAction enqueues an outbound SMS referencing a message template.
type SendSMSAction struct {
	TemplateID string `json:"template_id" validate:"required"`
	Message    string `json:"message,omitempty"`
}

func (SendSMSAction) ActionKind() ActionKind { return ActionSendSMS }
func (SendSMSAction) action()                {}

// CreateTaskAction creates a task due DueInDays days from now.
type CreateTaskAction struct {
	Title     string `json:"title"       validate:"required"`
	DueInDays int    `json:"due_in_days" validate:"min=0"`
}

func (CreateTaskAction) ActionKind() ActionKind { return ActionCreateTask }
func (CreateTaskAction) action()                {}

// AssignContactAction sets the contact's assigned agent.
type AssignContactAction struct {
	AgentID string `json:"agent_id" validate:"required"`
}

func (AssignContactAction) ActionKind() ActionKind { return ActionAssignContact }
func (AssignContactAction) action()                {}

// UpdateFieldAction writes one named field on the contact if one is present
// in the run context, otherwise on the transaction.
type UpdateFieldAction struct {
	Field string `json:"field" validate:"required"`
	Value any    `json:"value"`
}

func (UpdateFieldAction) ActionKind() ActionKind { return ActionUpdateField }
func (UpdateFieldAction) action()                {}

// AddTagAction appends a tag to the contact's tag set, de-duplicated.
type AddTagAction struct {
	Tag string `json:"tag" validate:"required"`
}

func (AddTagAction) ActionKind() ActionKind { return ActionAddTag }
func (AddTagAction) action()                {}

// NotifyAgentAction writes an internal note addressed to an agent.
type NotifyAgentAction struct {
	AgentID string `json:"agent_id,omitempty"`
	Message string `json:"message" validate:"required"`
}

func (NotifyAgentAction) ActionKind() ActionKind { return ActionNotifyAgent }
func (NotifyAgentAction) action()                {}

// PostSocialAction schedules a post across one or more social platforms.
type PostSocialAction struct {
	Platforms []string `json:"platforms" validate:"required,min=1"`
	Content   string   `json:"content"   validate:"required"`
}

func (PostSocialAction) ActionKind() ActionKind { return ActionPostSocial }
func (PostSocialAction) action()                {}

// WebhookAction issues an HTTP POST carrying the payload plus the run's
// entity identifiers. Any non-2xx response is a failure.
type WebhookAction struct {
	URL     string         `json:"url" validate:"required,url"`
	Payload map[string]any `json:"payload,omitempty"`
}

func (WebhookAction) ActionKind() ActionKind { return ActionWebhook }
func (WebhookAction) action()                {}

// WaitAction suspends the run until now plus Duration, a compact token such
// as "30m", "2h" or "7d". It never blocks; the pause lives in the run record.
type WaitAction struct {
	Duration string `json:"duration" validate:"required"`
}

func (WaitAction) ActionKind() ActionKind { return ActionWait }
func (WaitAction) action()                {}

// CreateFollowUpAction creates a follow-up task due DueInDays days from now.
type CreateFollowUpAction struct {
	Title     string `json:"title"       validate:"required"`
	DueInDays int    `json:"due_in_days" validate:"min=0"`
}

func (CreateFollowUpAction) ActionKind() ActionKind { return ActionCreateFollowUp }
func (CreateFollowUpAction) action()                {}

type actionEnvelope struct {
	Kind ActionKind `json:"kind"`
}

// UnmarshalAction decodes an action envelope of the form
// {"kind": "send_email", ...} into its concrete type.
func UnmarshalAction(data []byte) (Action, error) {
	var envelope actionEnvelope

	err := json.Unmarshal(data, &envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to decode action envelope: %w", err)
	}

	var action Action

	switch envelope.Kind {
	case ActionSendEmail:
		action = &SendEmailAction{}
	case ActionSendSMS:
		action = &SendSMSAction{}
	case ActionCreateTask:
		action = &CreateTaskAction{}
	case ActionAssignContact:
		action = &AssignContactAction{}
	case ActionUpdateField:
		action = &UpdateFieldAction{}
	case ActionAddTag:
		action = &AddTagAction{}
	case ActionNotifyAgent:
		action = &NotifyAgentAction{}
	case ActionPostSocial:
		action = &PostSocialAction{}
	case ActionWebhook:
		action = &WebhookAction{}
	case ActionWait:
		action = &WaitAction{}
	case ActionCreateFollowUp:
		action = &CreateFollowUpAction{}
	default:
		return nil, fmt.Errorf("unknown action kind %q", envelope.Kind)
	}

	err = json.Unmarshal(data, action)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s action: %w", envelope.Kind, err)
	}

	return derefAction(action), nil
}

// MarshalAction encodes an action with its kind tag.
func MarshalAction(action Action) ([]byte, error) {
	body, err := json.Marshal(action)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s action: %w", action.ActionKind(), err)
	}

	return withTypeTag(body, "kind", string(action.ActionKind()))
}

func derefAction(action Action) Action {
	switch a := action.(type) {
	case *SendEmailAction:
		return *a
	case *SendSMSAction:
		return *a
	case *CreateTaskAction:
		return *a
	case *AssignContactAction:
		return *a
	case *UpdateFieldAction:
		return *a
	case *AddTagAction:
		return *a
	case *NotifyAgentAction:
		return *a
	case *PostSocialAction:
		return *a
	case *WebhookAction:
		return *a
	case *WaitAction:
		return *a
	case *CreateFollowUpAction:
		return *a
	default:
		return action
	}
}
