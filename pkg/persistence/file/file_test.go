package file_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propflow/propflow/pkg/models"
	"github.com/propflow/propflow/pkg/persistence"
	"github.com/propflow/propflow/pkg/persistence/file"
)

func newPersistence(t *testing.T) *file.Persistence {
	t.Helper()

	p := file.NewPersistence(t.TempDir())
	require.NoError(t, p.HealthCheck(context.Background()))

	return p
}

func TestWorkflowRepository_SaveAndGet(t *testing.T) {
	p := newPersistence(t)
	ctx := context.Background()

	wf := &models.Workflow{
		ID:      "wf-1",
		Name:    "Hot lead tagging",
		Trigger: models.StageChangeTrigger{To: "offer_made"},
		Actions: []models.Action{
			models.AddTagAction{Tag: "hot-lead"},
			models.WaitAction{Duration: "1d"},
		},
		Active: true,
	}

	require.NoError(t, p.WorkflowRepository().Save(ctx, wf))

	loaded, err := p.WorkflowRepository().GetByID(ctx, "wf-1")
	require.NoError(t, err)
	assert.Equal(t, wf.Name, loaded.Name)
	assert.Equal(t, models.StageChangeTrigger{To: "offer_made"}, loaded.Trigger)
	require.Len(t, loaded.Actions, 2)
	assert.Equal(t, models.AddTagAction{Tag: "hot-lead"}, loaded.Actions[0])
	assert.Equal(t, models.WaitAction{Duration: "1d"}, loaded.Actions[1])
}

func TestWorkflowRepository_GetByID_NotFound(t *testing.T) {
	p := newPersistence(t)

	_, err := p.WorkflowRepository().GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestWorkflowRepository_GetActive(t *testing.T) {
	p := newPersistence(t)
	ctx := context.Background()

	active := &models.Workflow{ID: "wf-active", Name: "Active flow", Trigger: models.NewLeadTrigger{}, Active: true}
	inactive := &models.Workflow{ID: "wf-inactive", Name: "Paused flow", Trigger: models.NewLeadTrigger{}, Active: false}

	require.NoError(t, p.WorkflowRepository().Save(ctx, active))
	require.NoError(t, p.WorkflowRepository().Save(ctx, inactive))

	all, err := p.WorkflowRepository().GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := p.WorkflowRepository().GetActive(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "wf-active", got[0].ID)
}

func TestWorkflowRepository_Delete(t *testing.T) {
	p := newPersistence(t)
	ctx := context.Background()

	wf := &models.Workflow{ID: "wf-1", Name: "Short lived", Trigger: models.NewLeadTrigger{}}
	require.NoError(t, p.WorkflowRepository().Save(ctx, wf))

	require.NoError(t, p.WorkflowRepository().Delete(ctx, "wf-1"))

	err := p.WorkflowRepository().Delete(ctx, "wf-1")
	require.Error(t, err)
	assert.True(t, persistence.IsWorkflowNotFound(err))
}

func TestRunRepository_SaveAndGet(t *testing.T) {
	p := newPersistence(t)
	ctx := context.Background()

	resumeAt := time.Date(2025, time.March, 12, 9, 0, 0, 0, time.UTC)
	run := &models.WorkflowRun{
		ID:                 "run-1",
		WorkflowID:         "wf-1",
		ContactID:          "contact-1",
		Status:             models.RunStatusRunning,
		CurrentActionIndex: 2,
		ResumeAt:           &resumeAt,
		StartedAt:          time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC),
	}

	require.NoError(t, p.RunRepository().Save(ctx, run))

	loaded, err := p.RunRepository().GetByID(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusRunning, loaded.Status)
	assert.Equal(t, 2, loaded.CurrentActionIndex)
	require.NotNil(t, loaded.ResumeAt)
	assert.Equal(t, resumeAt, loaded.ResumeAt.UTC())
}

func TestRunRepository_GetByID_NotFound(t *testing.T) {
	p := newPersistence(t)

	_, err := p.RunRepository().GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsRunNotFound(err))
}

func TestRunRepository_ListByStatus(t *testing.T) {
	p := newPersistence(t)
	ctx := context.Background()

	base := time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)
	runs := []*models.WorkflowRun{
		{ID: "run-later", Status: models.RunStatusRunning, StartedAt: base.Add(time.Hour)},
		{ID: "run-earlier", Status: models.RunStatusRunning, StartedAt: base},
		{ID: "run-done", Status: models.RunStatusCompleted, StartedAt: base},
	}

	for _, run := range runs {
		require.NoError(t, p.RunRepository().Save(ctx, run))
	}

	running, err := p.RunRepository().ListByStatus(ctx, models.RunStatusRunning)
	require.NoError(t, err)
	require.Len(t, running, 2)
	assert.Equal(t, "run-earlier", running[0].ID)
	assert.Equal(t, "run-later", running[1].ID)

	failed, err := p.RunRepository().ListByStatus(ctx, models.RunStatusFailed)
	require.NoError(t, err)
	assert.Empty(t, failed)
}

func TestDatastore_ContactLifecycle(t *testing.T) {
	p := newPersistence(t)
	ctx := context.Background()

	datastore := p.Datastore().(*file.Datastore)
	require.NoError(t, datastore.SaveContact(ctx, &models.Contact{
		ID:     "contact-1",
		Tags:   []string{"buyer"},
		Fields: map[string]any{"stage": "viewing"},
	}))

	require.NoError(t, p.Datastore().AssignContact(ctx, "contact-1", "agent-7"))
	require.NoError(t, p.Datastore().UpdateContactFields(ctx, "contact-1", map[string]any{"stage": "offer_made"}))
	require.NoError(t, p.Datastore().UpdateContactTags(ctx, "contact-1", []string{"buyer", "vip"}))

	contact, err := p.Datastore().GetContact(ctx, "contact-1")
	require.NoError(t, err)
	assert.Equal(t, "agent-7", contact.AssignedTo)
	assert.Equal(t, "offer_made", contact.Fields["stage"])
	assert.Equal(t, []string{"buyer", "vip"}, contact.Tags)
	assert.False(t, contact.UpdatedAt.IsZero())
}

func TestDatastore_GetContact_NotFound(t *testing.T) {
	p := newPersistence(t)

	_, err := p.Datastore().GetContact(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, persistence.IsContactNotFound(err))
}

func TestDatastore_UpdateTransactionFields_CreatesAndMerges(t *testing.T) {
	root := t.TempDir()
	p := file.NewPersistence(root)
	ctx := context.Background()

	require.NoError(t, p.Datastore().UpdateTransactionFields(ctx, "txn-1", map[string]any{"stage": "listed"}))
	require.NoError(t, p.Datastore().UpdateTransactionFields(ctx, "txn-1", map[string]any{"settlement_date": "2025-04-01"}))

	data, err := os.ReadFile(filepath.Join(root, "transactions", "txn-1.json"))
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(data, &record))
	assert.Equal(t, "txn-1", record["id"])
	assert.Equal(t, "listed", record["stage"])
	assert.Equal(t, "2025-04-01", record["settlement_date"])
}
