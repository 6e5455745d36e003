package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/propflow/propflow/pkg/models"
	"github.com/propflow/propflow/pkg/persistence"
)

const contactsTable = "contacts"

// Datastore implements the CRM write surface over PostgreSQL.
type Datastore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewDatastore creates a new CRM datastore.
func NewDatastore(db *sql.DB, logger *slog.Logger) *Datastore {
	return &Datastore{db: db, logger: logger}
}

// CreateTask inserts a task record and returns it.
func (d *Datastore) CreateTask(ctx context.Context, task *models.Task) (*models.Task, error) {
	query := `
		INSERT INTO tasks (id, contact_id, transaction_id, title, follow_up, due_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := d.db.ExecContext(ctx, query,
		task.ID,
		nullString(task.ContactID),
		nullString(task.TransactionID),
		task.Title,
		task.FollowUp,
		task.DueAt,
		task.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

// GetContact returns one contact, or persistence.ErrContactNotFound.
func (d *Datastore) GetContact(ctx context.Context, id string) (*models.Contact, error) {
	query := `SELECT id, assigned_to, tags, fields, updated_at FROM contacts WHERE id = $1`

	var (
		contact              models.Contact
		assignedTo           sql.NullString
		tagsJSON, fieldsJSON []byte
	)

	err := d.db.QueryRowContext(ctx, query, id).Scan(
		&contact.ID,
		&assignedTo,
		&tagsJSON,
		&fieldsJSON,
		&contact.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("GetContact", contactsTable, id, persistence.ErrContactNotFound)
		}

		return nil, fmt.Errorf("failed to scan contact: %w", err)
	}

	contact.AssignedTo = assignedTo.String

	err = json.Unmarshal(tagsJSON, &contact.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal contact tags: %w", err)
	}

	err = json.Unmarshal(fieldsJSON, &contact.Fields)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal contact fields: %w", err)
	}

	return &contact, nil
}

// SaveContact upserts a contact record; used by the host CRM layer to seed
// engine-visible contact state.
func (d *Datastore) SaveContact(ctx context.Context, contact *models.Contact) error {
	tags := contact.Tags
	if tags == nil {
		tags = []string{}
	}

	fields := contact.Fields
	if fields == nil {
		fields = map[string]any{}
	}

	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to marshal contact tags: %w", err)
	}

	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal contact fields: %w", err)
	}

	query := `
		INSERT INTO contacts (id, assigned_to, tags, fields, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (id) DO UPDATE SET
			assigned_to = EXCLUDED.assigned_to,
			tags = EXCLUDED.tags,
			fields = EXCLUDED.fields,
			updated_at = NOW()
	`

	_, err = d.db.ExecContext(ctx, query, contact.ID, nullString(contact.AssignedTo), tagsJSON, fieldsJSON)
	if err != nil {
		return fmt.Errorf("failed to save contact: %w", err)
	}

	return nil
}

// AssignContact sets the contact's assigned agent.
func (d *Datastore) AssignContact(ctx context.Context, id, agentID string) error {
	query := `UPDATE contacts SET assigned_to = $2, updated_at = NOW() WHERE id = $1`

	return d.updateContact(ctx, "AssignContact", id, query, agentID)
}

// UpdateContactFields merges the given fields into the contact's JSONB field
// bag without touching the other keys.
func (d *Datastore) UpdateContactFields(ctx context.Context, id string, fields map[string]any) error {
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal contact fields: %w", err)
	}

	query := `UPDATE contacts SET fields = fields || $2, updated_at = NOW() WHERE id = $1`

	return d.updateContact(ctx, "UpdateContactFields", id, query, fieldsJSON)
}

// UpdateContactTags replaces the contact's tag set.
func (d *Datastore) UpdateContactTags(ctx context.Context, id string, tags []string) error {
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to marshal contact tags: %w", err)
	}

	query := `UPDATE contacts SET tags = $2, updated_at = NOW() WHERE id = $1`

	return d.updateContact(ctx, "UpdateContactTags", id, query, tagsJSON)
}

// updateContact runs a single-row contact update and maps a missing row to
// persistence.ErrContactNotFound.
func (d *Datastore) updateContact(ctx context.Context, op, id, query string, arg any) error {
	result, err := d.db.ExecContext(ctx, query, id, arg)
	if err != nil {
		return fmt.Errorf("failed to update contact %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.NewStoreError(op, contactsTable, id, persistence.ErrContactNotFound)
	}

	return nil
}

// UpdateTransactionFields merges the given fields into a transaction record,
// creating the record when it does not exist yet.
func (d *Datastore) UpdateTransactionFields(ctx context.Context, id string, fields map[string]any) error {
	fieldsJSON, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction fields: %w", err)
	}

	query := `
		INSERT INTO transactions (id, fields)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET fields = transactions.fields || EXCLUDED.fields
	`

	_, err = d.db.ExecContext(ctx, query, id, fieldsJSON)
	if err != nil {
		return fmt.Errorf("failed to update transaction %s: %w", id, err)
	}

	return nil
}

// CreateNote inserts an internal note record and returns it.
func (d *Datastore) CreateNote(ctx context.Context, note *models.Note) (*models.Note, error) {
	query := `
		INSERT INTO notes (id, contact_id, agent_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := d.db.ExecContext(ctx, query,
		note.ID,
		nullString(note.ContactID),
		nullString(note.AgentID),
		note.Body,
		note.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}

	return note, nil
}

// EnqueueMessage inserts an outbound message record and returns it.
func (d *Datastore) EnqueueMessage(ctx context.Context, message *models.OutboundMessage) (*models.OutboundMessage, error) {
	query := `
		INSERT INTO outbound_messages (id, contact_id, channel, template_id, subject, body, queued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := d.db.ExecContext(ctx, query,
		message.ID,
		nullString(message.ContactID),
		message.Channel,
		message.TemplateID,
		message.Subject,
		message.Body,
		message.QueuedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue message: %w", err)
	}

	return message, nil
}

// CreateSocialPost inserts a scheduled social post record and returns it.
func (d *Datastore) CreateSocialPost(ctx context.Context, post *models.SocialPost) (*models.SocialPost, error) {
	platformsJSON, err := json.Marshal(post.Platforms)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal post platforms: %w", err)
	}

	query := `
		INSERT INTO social_posts (id, platforms, content, scheduled_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err = d.db.ExecContext(ctx, query,
		post.ID,
		platformsJSON,
		post.Content,
		post.ScheduledAt,
		post.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create social post: %w", err)
	}

	return post, nil
}
