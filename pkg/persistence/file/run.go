package file

import (
	"context"
	"errors"
	"os"
	"sort"

	"github.com/propflow/propflow/pkg/models"
	"github.com/propflow/propflow/pkg/persistence"
)

const runsTable = "runs"

// RunRepository stores workflow run records as JSON files.
type RunRepository struct {
	persistence *Persistence
}

// RunRepository returns the run repository implementation for file persistence.
func (p *Persistence) RunRepository() persistence.RunRepository {
	return p.runRepo
}

// Save upserts a run record.
func (r *RunRepository) Save(_ context.Context, run *models.WorkflowRun) error {
	return r.persistence.writeRecord(runsTable, run.ID, run)
}

// GetByID returns one run record, or persistence.ErrRunNotFound.
func (r *RunRepository) GetByID(_ context.Context, id string) (*models.WorkflowRun, error) {
	var run models.WorkflowRun

	err := r.persistence.readRecord(runsTable, id, &run)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, persistence.NewStoreError("GetByID", runsTable, id, persistence.ErrRunNotFound)
		}

		return nil, err
	}

	return &run, nil
}

// ListByStatus returns run records in the given status, oldest first.
func (r *RunRepository) ListByStatus(ctx context.Context, status models.RunStatus) ([]*models.WorkflowRun, error) {
	ids, err := r.persistence.listRecordIDs(runsTable)
	if err != nil {
		return nil, err
	}

	runs := make([]*models.WorkflowRun, 0, len(ids))

	for _, id := range ids {
		run, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}

		if run.Status == status {
			runs = append(runs, run)
		}
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartedAt.Before(runs[j].StartedAt)
	})

	return runs, nil
}
