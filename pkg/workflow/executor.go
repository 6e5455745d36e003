package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/propflow/propflow/pkg/duration"
	"github.com/propflow/propflow/pkg/models"
	"github.com/propflow/propflow/pkg/otelhelper"
	"github.com/propflow/propflow/pkg/persistence"
)

// ActionExecutor performs exactly one action against the external
// collaborators (datastore, HTTP) and reports a uniform ActionResult. It
// never returns an error to the caller: every fault becomes a failed result.
type ActionExecutor struct {
	store  persistence.Datastore
	client *http.Client
	clock  clockwork.Clock
	ids    IDGenerator
	tracer trace.Tracer
	logger *slog.Logger
}

// NewActionExecutor creates an action executor. A nil client falls back to
// http.DefaultClient; webhook timeouts belong to the transport, not the engine.
func NewActionExecutor(
	store persistence.Datastore,
	client *http.Client,
	clock clockwork.Clock,
	ids IDGenerator,
	logger *slog.Logger,
) *ActionExecutor {
	if client == nil {
		client = http.DefaultClient
	}

	return &ActionExecutor{
		store:  store,
		client: client,
		clock:  clock,
		ids:    ids,
		tracer: otel.Tracer("propflow/workflow"),
		logger: logger.With("module", "action_executor"),
	}
}

// Execute runs one action and returns its result. A paused result carries
// the resume time; execution itself returns immediately.
func (e *ActionExecutor) Execute(ctx context.Context, action models.Action, ectx models.ExecutionContext) models.ActionResult {
	result := models.ActionResult{ActionKind: action.ActionKind()}

	ctx, span := e.tracer.Start(ctx, "workflow.action", trace.WithAttributes(
		attribute.String(otelhelper.ActionKindKey, string(action.ActionKind())),
		attribute.String(otelhelper.ContactIDKey, ectx.ContactID),
	))
	defer span.End()

	output, resumeAt, err := e.dispatch(ctx, action, ectx)
	if err != nil {
		otelhelper.SetError(span, err)
		e.logger.Error("Action failed",
			"action_kind", action.ActionKind(),
			"contact_id", ectx.ContactID,
			"error", err)

		result.Error = err.Error()

		return result
	}

	result.Success = true
	result.Output = output

	if resumeAt != nil {
		result.Paused = true
		result.ResumeAt = resumeAt
	}

	return result
}

// dispatch switches over every concrete action kind. The closed action set
// lives in models; a kind added there without a case here fails at run time
// with an explicit error rather than silently succeeding.
func (e *ActionExecutor) dispatch(ctx context.Context, action models.Action, ectx models.ExecutionContext) (map[string]any, *time.Time, error) {
	switch a := action.(type) {
	case models.CreateTaskAction:
		output, err := e.createTask(ctx, ectx, a.Title, a.DueInDays, false)

		return output, nil, err
	case models.CreateFollowUpAction:
		output, err := e.createTask(ctx, ectx, a.Title, a.DueInDays, true)

		return output, nil, err
	case models.AssignContactAction:
		output, err := e.assignContact(ctx, ectx, a.AgentID)

		return output, nil, err
	case models.UpdateFieldAction:
		output, err := e.updateField(ctx, ectx, a.Field, a.Value)

		return output, nil, err
	case models.AddTagAction:
		output, err := e.addTag(ctx, ectx, a.Tag)

		return output, nil, err
	case models.NotifyAgentAction:
		output, err := e.notifyAgent(ctx, ectx, a.AgentID, a.Message)

		return output, nil, err
	case models.SendEmailAction:
		output, err := e.enqueueMessage(ctx, ectx, models.ChannelEmail, a.TemplateID, a.Subject, a.Body)

		return output, nil, err
	case models.SendSMSAction:
		output, err := e.enqueueMessage(ctx, ectx, models.ChannelSMS, a.TemplateID, "", a.Message)

		return output, nil, err
	case models.PostSocialAction:
		output, err := e.postSocial(ctx, a.Platforms, a.Content)

		return output, nil, err
	case models.WebhookAction:
		output, err := e.postWebhook(ctx, ectx, a.URL, a.Payload)

		return output, nil, err
	case models.WaitAction:
		return e.wait(a.Duration)
	default:
		return nil, nil, fmt.Errorf("unhandled action kind %q", action.ActionKind())
	}
}

func (e *ActionExecutor) createTask(ctx context.Context, ectx models.ExecutionContext, title string, dueInDays int, followUp bool) (map[string]any, error) {
	now := e.clock.Now()

	task := &models.Task{
		ID:            e.ids.NewID(),
		ContactID:     ectx.ContactID,
		TransactionID: ectx.TransactionID,
		Title:         title,
		FollowUp:      followUp,
		DueAt:         now.Add(time.Duration(dueInDays) * 24 * time.Hour),
		CreatedAt:     now,
	}

	created, err := e.store.CreateTask(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return map[string]any{"task_id": created.ID, "due_at": created.DueAt}, nil
}

func (e *ActionExecutor) assignContact(ctx context.Context, ectx models.ExecutionContext, agentID string) (map[string]any, error) {
	if ectx.ContactID == "" {
		return nil, fmt.Errorf("assign_contact requires a contact in the run context")
	}

	err := e.store.AssignContact(ctx, ectx.ContactID, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to assign contact %s: %w", ectx.ContactID, err)
	}

	return map[string]any{"contact_id": ectx.ContactID, "assigned_to": agentID}, nil
}

// updateField writes the contact when one is present in the context and
// falls back to the transaction otherwise.
func (e *ActionExecutor) updateField(ctx context.Context, ectx models.ExecutionContext, field string, value any) (map[string]any, error) {
	fields := map[string]any{field: value}

	switch {
	case ectx.ContactID != "":
		err := e.store.UpdateContactFields(ctx, ectx.ContactID, fields)
		if err != nil {
			return nil, fmt.Errorf("failed to update contact field %s: %w", field, err)
		}

		return map[string]any{"entity": "contact", "field": field}, nil
	case ectx.TransactionID != "":
		err := e.store.UpdateTransactionFields(ctx, ectx.TransactionID, fields)
		if err != nil {
			return nil, fmt.Errorf("failed to update transaction field %s: %w", field, err)
		}

		return map[string]any{"entity": "transaction", "field": field}, nil
	default:
		return nil, fmt.Errorf("update_field requires a contact or transaction in the run context")
	}
}

// addTag appends the tag to the contact's tag set, de-duplicated and order
// preserving. Two concurrent runs against the same contact may still race on
// this read-modify-write; the engine provides no per-entity serialization.
func (e *ActionExecutor) addTag(ctx context.Context, ectx models.ExecutionContext, tag string) (map[string]any, error) {
	if ectx.ContactID == "" {
		return nil, fmt.Errorf("add_tag requires a contact in the run context")
	}

	contact, err := e.store.GetContact(ctx, ectx.ContactID)
	if err != nil {
		return nil, fmt.Errorf("failed to load contact %s: %w", ectx.ContactID, err)
	}

	for _, existing := range contact.Tags {
		if existing == tag {
			return map[string]any{"tags": contact.Tags}, nil
		}
	}

	tags := append(append([]string{}, contact.Tags...), tag)

	err = e.store.UpdateContactTags(ctx, ectx.ContactID, tags)
	if err != nil {
		return nil, fmt.Errorf("failed to update tags for contact %s: %w", ectx.ContactID, err)
	}

	return map[string]any{"tags": tags}, nil
}

func (e *ActionExecutor) notifyAgent(ctx context.Context, ectx models.ExecutionContext, agentID, message string) (map[string]any, error) {
	note := &models.Note{
		ID:        e.ids.NewID(),
		ContactID: ectx.ContactID,
		AgentID:   agentID,
		Body:      message,
		CreatedAt: e.clock.Now(),
	}

	created, err := e.store.CreateNote(ctx, note)
	if err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	return map[string]any{"note_id": created.ID}, nil
}

func (e *ActionExecutor) enqueueMessage(ctx context.Context, ectx models.ExecutionContext, channel models.MessageChannel, templateID, subject, body string) (map[string]any, error) {
	message := &models.OutboundMessage{
		ID:         e.ids.NewID(),
		ContactID:  ectx.ContactID,
		Channel:    channel,
		TemplateID: templateID,
		Subject:    subject,
		Body:       body,
		QueuedAt:   e.clock.Now(),
	}

	queued, err := e.store.EnqueueMessage(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue %s message: %w", channel, err)
	}

	return map[string]any{"message_id": queued.ID, "channel": string(channel)}, nil
}

func (e *ActionExecutor) postSocial(ctx context.Context, platforms []string, content string) (map[string]any, error) {
	now := e.clock.Now()

	post := &models.SocialPost{
		ID:          e.ids.NewID(),
		Platforms:   platforms,
		Content:     content,
		ScheduledAt: now,
		CreatedAt:   now,
	}

	created, err := e.store.CreateSocialPost(ctx, post)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule social post: %w", err)
	}

	return map[string]any{"post_id": created.ID, "platforms": platforms}, nil
}

// postWebhook issues a single POST with the action payload merged with the
// run's entity identifiers. Any non-2xx response is a failure.
func (e *ActionExecutor) postWebhook(ctx context.Context, ectx models.ExecutionContext, url string, payload map[string]any) (map[string]any, error) {
	body := make(map[string]any, len(payload)+2)

	for key, value := range payload {
		body[key] = value
	}

	if ectx.ContactID != "" {
		body["contact_id"] = ectx.ContactID
	}

	if ectx.TransactionID != "" {
		body["transaction_id"] = ectx.TransactionID
	}

	encoded, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("webhook request failed: %w", err)
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			e.logger.Error("failed to close webhook response body", "error", closeErr)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("webhook returned %s", resp.Status)
	}

	return map[string]any{"status_code": resp.StatusCode}, nil
}

// wait computes the resume time and returns immediately; the actual
// suspension is the orchestrator's job.
func (e *ActionExecutor) wait(token string) (map[string]any, *time.Time, error) {
	span, err := duration.Parse(token)
	if err != nil {
		return nil, nil, err
	}

	resumeAt := e.clock.Now().Add(span)

	return map[string]any{"resume_at": resumeAt}, &resumeAt, nil
}
