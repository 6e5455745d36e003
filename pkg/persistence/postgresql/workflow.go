package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/propflow/propflow/pkg/models"
	"github.com/propflow/propflow/pkg/persistence"
)

const workflowsTable = "workflows"

// WorkflowRepository handles workflow definition storage.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

const workflowColumns = `
	id
  , agency_id
  , name
  , description
  , trigger
  , conditions
  , actions
  , active
  , created_at
  , updated_at
`

// GetAll returns every stored workflow, newest first.
func (r *WorkflowRepository) GetAll(ctx context.Context) ([]*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows ORDER BY created_at DESC`

	return r.queryWorkflows(ctx, query)
}

// GetActive returns every workflow whose active flag is set, newest first.
func (r *WorkflowRepository) GetActive(ctx context.Context) ([]*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE active ORDER BY created_at DESC`

	return r.queryWorkflows(ctx, query)
}

// GetByID returns one workflow, or persistence.ErrWorkflowNotFound.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + ` FROM workflows WHERE id = $1`

	workflow, err := r.scanWorkflow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("GetByID", workflowsTable, id, persistence.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}

	return workflow, nil
}

// Save upserts a workflow definition. A missing ID is generated here.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	now := time.Now().UTC()

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	if workflow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate workflow ID: %w", err)
		}

		workflow.ID = id.String()
	}

	triggerJSON, err := models.MarshalTrigger(workflow.Trigger)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow trigger: %w", err)
	}

	conditionsJSON, err := json.Marshal(workflow.Conditions)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow conditions: %w", err)
	}

	actionsJSON, err := marshalActions(workflow.Actions)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO workflows (id, agency_id, name, description, trigger, conditions, actions, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			agency_id = EXCLUDED.agency_id,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			trigger = EXCLUDED.trigger,
			conditions = EXCLUDED.conditions,
			actions = EXCLUDED.actions,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query,
		workflow.ID,
		workflow.AgencyID,
		workflow.Name,
		workflow.Description,
		triggerJSON,
		conditionsJSON,
		actionsJSON,
		workflow.Active,
		workflow.CreatedAt,
		workflow.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save workflow: %w", err)
	}

	return nil
}

// Delete removes a workflow, or reports persistence.ErrWorkflowNotFound.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.NewStoreError("Delete", workflowsTable, id, persistence.ErrWorkflowNotFound)
	}

	return nil
}

func (r *WorkflowRepository) queryWorkflows(ctx context.Context, query string, args ...any) ([]*models.Workflow, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := r.scanWorkflow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return workflows, nil
}

func (r *WorkflowRepository) scanWorkflow(scanner interface {
	Scan(dest ...any) error
}) (*models.Workflow, error) {
	var (
		workflow                              models.Workflow
		agencyID                              sql.NullString
		triggerJSON, conditionsJSON, actsJSON []byte
	)

	err := scanner.Scan(
		&workflow.ID,
		&agencyID,
		&workflow.Name,
		&workflow.Description,
		&triggerJSON,
		&conditionsJSON,
		&actsJSON,
		&workflow.Active,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	workflow.AgencyID = agencyID.String

	workflow.Trigger, err = models.UnmarshalTrigger(triggerJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow trigger: %w", err)
	}

	err = json.Unmarshal(conditionsJSON, &workflow.Conditions)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow conditions: %w", err)
	}

	workflow.Actions, err = unmarshalActions(actsJSON)
	if err != nil {
		return nil, err
	}

	return &workflow, nil
}

func marshalActions(actions []models.Action) ([]byte, error) {
	encoded := make([]json.RawMessage, 0, len(actions))

	for i, action := range actions {
		raw, err := models.MarshalAction(action)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal workflow action %d: %w", i, err)
		}

		encoded = append(encoded, raw)
	}

	return json.Marshal(encoded)
}

func unmarshalActions(data []byte) ([]models.Action, error) {
	var raws []json.RawMessage

	err := json.Unmarshal(data, &raws)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow actions: %w", err)
	}

	actions := make([]models.Action, 0, len(raws))

	for i, raw := range raws {
		action, err := models.UnmarshalAction(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal workflow action %d: %w", i, err)
		}

		actions = append(actions, action)
	}

	return actions, nil
}
