// Package persistence provides the data storage abstraction for workflows,
// runs and the CRM records workflow actions write.
package persistence

import (
	"context"

	"github.com/propflow/propflow/pkg/models"
)

// Persistence is the storage layer the engine and host binaries run against.
type Persistence interface {
	WorkflowRepository() WorkflowRepository
	RunRepository() RunRepository
	Datastore() Datastore

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// WorkflowRepository stores workflow definitions.
type WorkflowRepository interface {
	GetAll(ctx context.Context) ([]*models.Workflow, error)
	GetActive(ctx context.Context) ([]*models.Workflow, error)
	GetByID(ctx context.Context, id string) (*models.Workflow, error)
	Save(ctx context.Context, workflow *models.Workflow) error
	Delete(ctx context.Context, id string) error
}

// RunRepository stores workflow run records. Save is an upsert: the
// orchestrator writes the same run ID again when a paused run resumes.
type RunRepository interface {
	Save(ctx context.Context, run *models.WorkflowRun) error
	GetByID(ctx context.Context, id string) (*models.WorkflowRun, error)
	ListByStatus(ctx context.Context, status models.RunStatus) ([]*models.WorkflowRun, error)
}

// Datastore is the keyed-table surface workflow actions write against:
// insert a row (getting it back) or update a row by id.
type Datastore interface {
	CreateTask(ctx context.Context, task *models.Task) (*models.Task, error)

	GetContact(ctx context.Context, id string) (*models.Contact, error)
	AssignContact(ctx context.Context, id, agentID string) error
	UpdateContactFields(ctx context.Context, id string, fields map[string]any) error
	UpdateContactTags(ctx context.Context, id string, tags []string) error

	UpdateTransactionFields(ctx context.Context, id string, fields map[string]any) error

	CreateNote(ctx context.Context, note *models.Note) (*models.Note, error)
	EnqueueMessage(ctx context.Context, message *models.OutboundMessage) (*models.OutboundMessage, error)
	CreateSocialPost(ctx context.Context, post *models.SocialPost) (*models.SocialPost, error)
}
