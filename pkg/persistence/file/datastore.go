package file

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/propflow/propflow/pkg/models"
	"github.com/propflow/propflow/pkg/persistence"
)

const (
	contactsTable     = "contacts"
	tasksTable        = "tasks"
	notesTable        = "notes"
	messagesTable     = "outbound_messages"
	transactionsTable = "transactions"
	socialPostsTable  = "social_posts"
)

// Datastore implements the CRM write surface over JSON files.
type Datastore struct {
	persistence *Persistence
}

// Datastore returns the CRM datastore implementation for file persistence.
func (p *Persistence) Datastore() persistence.Datastore {
	return p.datastore
}

// CreateTask inserts a task record and returns it.
func (d *Datastore) CreateTask(_ context.Context, task *models.Task) (*models.Task, error) {
	err := d.persistence.writeRecord(tasksTable, task.ID, task)
	if err != nil {
		return nil, err
	}

	return task, nil
}

// GetContact returns one contact, or persistence.ErrContactNotFound.
func (d *Datastore) GetContact(_ context.Context, id string) (*models.Contact, error) {
	var contact models.Contact

	err := d.persistence.readRecord(contactsTable, id, &contact)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, persistence.NewStoreError("GetContact", contactsTable, id, persistence.ErrContactNotFound)
		}

		return nil, err
	}

	return &contact, nil
}

// SaveContact upserts a contact record; used to seed data in tests and by
// the host CRM layer.
func (d *Datastore) SaveContact(_ context.Context, contact *models.Contact) error {
	return d.persistence.writeRecord(contactsTable, contact.ID, contact)
}

// AssignContact sets the contact's assigned agent.
func (d *Datastore) AssignContact(ctx context.Context, id, agentID string) error {
	contact, err := d.GetContact(ctx, id)
	if err != nil {
		return err
	}

	contact.AssignedTo = agentID
	contact.UpdatedAt = time.Now().UTC()

	return d.persistence.writeRecord(contactsTable, id, contact)
}

// UpdateContactFields merges the given fields into the contact's field bag.
func (d *Datastore) UpdateContactFields(ctx context.Context, id string, fields map[string]any) error {
	contact, err := d.GetContact(ctx, id)
	if err != nil {
		return err
	}

	if contact.Fields == nil {
		contact.Fields = make(map[string]any, len(fields))
	}

	for key, value := range fields {
		contact.Fields[key] = value
	}

	contact.UpdatedAt = time.Now().UTC()

	return d.persistence.writeRecord(contactsTable, id, contact)
}

// UpdateContactTags replaces the contact's tag set.
func (d *Datastore) UpdateContactTags(ctx context.Context, id string, tags []string) error {
	contact, err := d.GetContact(ctx, id)
	if err != nil {
		return err
	}

	contact.Tags = tags
	contact.UpdatedAt = time.Now().UTC()

	return d.persistence.writeRecord(contactsTable, id, contact)
}

// UpdateTransactionFields merges the given fields into a transaction record.
func (d *Datastore) UpdateTransactionFields(_ context.Context, id string, fields map[string]any) error {
	record := map[string]any{"id": id}

	err := d.persistence.readRecord(transactionsTable, id, &record)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	for key, value := range fields {
		record[key] = value
	}

	return d.persistence.writeRecord(transactionsTable, id, record)
}

// CreateNote inserts an internal note record and returns it.
func (d *Datastore) CreateNote(_ context.Context, note *models.Note) (*models.Note, error) {
	err := d.persistence.writeRecord(notesTable, note.ID, note)
	if err != nil {
		return nil, err
	}

	return note, nil
}

// EnqueueMessage inserts an outbound message record and returns it.
func (d *Datastore) EnqueueMessage(_ context.Context, message *models.OutboundMessage) (*models.OutboundMessage, error) {
	err := d.persistence.writeRecord(messagesTable, message.ID, message)
	if err != nil {
		return nil, err
	}

	return message, nil
}

// CreateSocialPost inserts a scheduled social post record and returns it.
func (d *Datastore) CreateSocialPost(_ context.Context, post *models.SocialPost) (*models.SocialPost, error) {
	err := d.persistence.writeRecord(socialPostsTable, post.ID, post)
	if err != nil {
		return nil, err
	}

	return post, nil
}
