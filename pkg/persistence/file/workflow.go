package file

import (
	"context"
	"errors"
	"os"

	"github.com/propflow/propflow/pkg/models"
	"github.com/propflow/propflow/pkg/persistence"
)

const workflowsTable = "workflows"

// WorkflowRepository stores workflow definitions as JSON files.
type WorkflowRepository struct {
	persistence *Persistence
}

// WorkflowRepository returns the workflow repository implementation for file persistence.
func (p *Persistence) WorkflowRepository() persistence.WorkflowRepository {
	return p.workflowRepo
}

// GetAll returns every stored workflow.
func (r *WorkflowRepository) GetAll(ctx context.Context) ([]*models.Workflow, error) {
	ids, err := r.persistence.listRecordIDs(workflowsTable)
	if err != nil {
		return nil, err
	}

	workflows := make([]*models.Workflow, 0, len(ids))

	for _, id := range ids {
		workflow, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		workflows = append(workflows, workflow)
	}

	return workflows, nil
}

// GetActive returns every workflow whose active flag is set.
func (r *WorkflowRepository) GetActive(ctx context.Context) ([]*models.Workflow, error) {
	workflows, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	active := make([]*models.Workflow, 0, len(workflows))

	for _, workflow := range workflows {
		if workflow.Active {
			active = append(active, workflow)
		}
	}

	return active, nil
}

// GetByID returns one workflow, or persistence.ErrWorkflowNotFound.
func (r *WorkflowRepository) GetByID(_ context.Context, id string) (*models.Workflow, error) {
	var workflow models.Workflow

	err := r.persistence.readRecord(workflowsTable, id, &workflow)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, persistence.NewStoreError("GetByID", workflowsTable, id, persistence.ErrWorkflowNotFound)
		}

		return nil, err
	}

	return &workflow, nil
}

// Save upserts a workflow definition.
func (r *WorkflowRepository) Save(_ context.Context, workflow *models.Workflow) error {
	return r.persistence.writeRecord(workflowsTable, workflow.ID, workflow)
}

// Delete removes a workflow, or reports persistence.ErrWorkflowNotFound.
func (r *WorkflowRepository) Delete(_ context.Context, id string) error {
	err := r.persistence.deleteRecord(workflowsTable, id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return persistence.NewStoreError("Delete", workflowsTable, id, persistence.ErrWorkflowNotFound)
		}

		return err
	}

	return nil
}
