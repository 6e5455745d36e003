package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/propflow/propflow/pkg/models"
	"github.com/propflow/propflow/pkg/persistence"
)

const runsTable = "workflow_runs"

// RunRepository handles workflow run record storage.
type RunRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewRunRepository creates a new run repository.
func NewRunRepository(db *sql.DB, logger *slog.Logger) *RunRepository {
	return &RunRepository{db: db, logger: logger}
}

const runColumns = `
	id
  , workflow_id
  , contact_id
  , transaction_id
  , status
  , current_action_index
  , error
  , resume_at
  , started_at
  , completed_at
`

// Save upserts a run record. The orchestrator writes the same run ID again
// when a paused run resumes.
func (r *RunRepository) Save(ctx context.Context, run *models.WorkflowRun) error {
	query := `
		INSERT INTO workflow_runs (id, workflow_id, contact_id, transaction_id, status, current_action_index, error, resume_at, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			current_action_index = EXCLUDED.current_action_index,
			error = EXCLUDED.error,
			resume_at = EXCLUDED.resume_at,
			completed_at = EXCLUDED.completed_at
	`

	_, err := r.db.ExecContext(ctx, query,
		run.ID,
		run.WorkflowID,
		nullString(run.ContactID),
		nullString(run.TransactionID),
		run.Status,
		run.CurrentActionIndex,
		nullString(run.Error),
		run.ResumeAt,
		run.StartedAt,
		run.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save workflow run: %w", err)
	}

	return nil
}

// GetByID returns one run record, or persistence.ErrRunNotFound.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*models.WorkflowRun, error) {
	query := `SELECT ` + runColumns + ` FROM workflow_runs WHERE id = $1`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("GetByID", runsTable, id, persistence.ErrRunNotFound)
		}

		return nil, fmt.Errorf("failed to scan workflow run: %w", err)
	}

	return run, nil
}

// ListByStatus returns run records in the given status, oldest first.
func (r *RunRepository) ListByStatus(ctx context.Context, status models.RunStatus) ([]*models.WorkflowRun, error) {
	query := `SELECT ` + runColumns + ` FROM workflow_runs WHERE status = $1 ORDER BY started_at ASC`

	rows, err := r.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow runs: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	runs := make([]*models.WorkflowRun, 0)

	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow run: %w", err)
		}

		runs = append(runs, run)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflow runs: %w", err)
	}

	return runs, nil
}

func scanRun(scanner interface {
	Scan(dest ...any) error
}) (*models.WorkflowRun, error) {
	var (
		run                                models.WorkflowRun
		contactID, transactionID, runError sql.NullString
		resumeAt, completedAt              sql.NullTime
	)

	err := scanner.Scan(
		&run.ID,
		&run.WorkflowID,
		&contactID,
		&transactionID,
		&run.Status,
		&run.CurrentActionIndex,
		&runError,
		&resumeAt,
		&run.StartedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	run.ContactID = contactID.String
	run.TransactionID = transactionID.String
	run.Error = runError.String

	if resumeAt.Valid {
		run.ResumeAt = &resumeAt.Time
	}

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}

	return &run, nil
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
