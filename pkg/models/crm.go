package models

import "time"

// CRM records the action executor writes. Persistence of the wider business
// entities lives in the host CRM; the engine only needs these shapes.

// Task is a to-do created by create_task / create_follow_up actions. Titles
// may carry opaque {{path}} placeholders resolved by the delivery layer.
type Task struct {
	ID            string    `json:"id"`
	ContactID     string    `json:"contact_id,omitempty"`
	TransactionID string    `json:"transaction_id,omitempty"`
	Title         string    `json:"title"`
	FollowUp      bool      `json:"follow_up,omitempty"`
	DueAt         time.Time `json:"due_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// Contact is the slice of a CRM contact the engine reads and writes:
// ownership, tags and the free-form field bag conditions evaluate against.
type Contact struct {
	ID         string         `json:"id"`
	AssignedTo string         `json:"assigned_to,omitempty"`
	Tags       []string       `json:"tags,omitempty"`
	Fields     map[string]any `json:"fields,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Note is an internal note written by the notify_agent action.
type Note struct {
	ID        string    `json:"id"`
	ContactID string    `json:"contact_id,omitempty"`
	AgentID   string    `json:"agent_id,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageChannel is the delivery channel of an outbound message.
type MessageChannel string

const (
	ChannelEmail MessageChannel = "email"
	ChannelSMS   MessageChannel = "sms"
)

// OutboundMessage is a queued email or SMS awaiting delivery by the outbound
// pipeline.
type OutboundMessage struct {
	ID         string         `json:"id"`
	ContactID  string         `json:"contact_id,omitempty"`
	Channel    MessageChannel `json:"channel"`
	TemplateID string         `json:"template_id"`
	Subject    string         `json:"subject,omitempty"`
	Body       string         `json:"body,omitempty"`
	QueuedAt   time.Time      `json:"queued_at"`
}

// SocialPost is a scheduled multi-platform post record.
type SocialPost struct {
	ID          string    `json:"id"`
	Platforms   []string  `json:"platforms"`
	Content     string    `json:"content"`
	ScheduledAt time.Time `json:"scheduled_at"`
	CreatedAt   time.Time `json:"created_at"`
}
