package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/propflow/propflow/pkg/channels/gochannel"
	"github.com/propflow/propflow/pkg/eventbus"
	"github.com/propflow/propflow/pkg/events"
	"github.com/propflow/propflow/pkg/models"
	"github.com/propflow/propflow/pkg/persistence/file"
	"github.com/propflow/propflow/pkg/web"
)

func setupTestApp(t *testing.T) (*fiber.App, *file.Persistence, eventbus.EventBus) {
	t.Helper()

	persistence := file.NewPersistence(t.TempDir())

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() {
		assert.NoError(t, bus.Close())
	})

	validate := validator.New(validator.WithRequiredStructEnabled())
	handlers := web.NewAPIHandlers(persistence, bus, validate)

	app := fiber.New()

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Patch("/:id", handlers.UpdateWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)

	r := app.Group("/runs")
	r.Get("/", handlers.GetRuns)
	r.Get("/:id", handlers.GetRun)
	r.Post("/:id/resume", handlers.ResumeRun)

	app.Post("/events", handlers.InjectEvent)
	app.Get("/health", handlers.HealthCheck)

	return app, persistence, bus
}

func createWorkflowBody() []byte {
	return []byte(`{
		"name": "Hot lead follow-up",
		"description": "Tag and chase offers",
		"trigger": {"type": "stage_change", "to": "offer_made"},
		"conditions": [{"field": "budget_max", "operator": "greater_than", "value": 500000}],
		"actions": [
			{"kind": "add_tag", "tag": "hot-lead"},
			{"kind": "wait", "duration": "2d"},
			{"kind": "create_task", "title": "Call about the offer", "due_in_days": 1}
		],
		"active": true
	}`)
}

func TestCreateWorkflow(t *testing.T) {
	app, _, _ := setupTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/workflows", bytes.NewBuffer(createWorkflowBody()))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var workflow models.Workflow
	require.NoError(t, json.Unmarshal(body, &workflow))
	assert.NotEmpty(t, workflow.ID)
	assert.Equal(t, "Hot lead follow-up", workflow.Name)
	assert.Equal(t, models.StageChangeTrigger{To: "offer_made"}, workflow.Trigger)
	require.Len(t, workflow.Actions, 3)
	assert.Equal(t, models.WaitAction{Duration: "2d"}, workflow.Actions[1])
	assert.True(t, workflow.Active)
}

func TestCreateWorkflow_Invalid(t *testing.T) {
	app, _, _ := setupTestApp(t)

	tests := []struct {
		name string
		body string
	}{
		{
			"name too short",
			`{"name": "ab", "trigger": {"type": "new_lead"}}`,
		},
		{
			"missing trigger",
			`{"name": "No trigger here"}`,
		},
		{
			"unknown trigger type",
			`{"name": "Bad trigger", "trigger": {"type": "telepathy"}}`,
		},
		{
			"unknown action kind",
			`{"name": "Bad action", "trigger": {"type": "new_lead"}, "actions": [{"kind": "mind_control"}]}`,
		},
		{
			"invalid cron schedule",
			`{"name": "Bad schedule", "trigger": {"type": "time_based", "schedule": "not a cron"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/workflows", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestGetWorkflow(t *testing.T) {
	app, persistence, _ := setupTestApp(t)

	wf := &models.Workflow{
		ID:      "wf-1",
		Name:    "Existing workflow",
		Trigger: models.NewLeadTrigger{Source: "domain"},
	}
	require.NoError(t, persistence.WorkflowRepository().Save(context.Background(), wf))

	req := httptest.NewRequest(http.MethodGet, "/workflows/wf-1", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var got models.Workflow
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, models.NewLeadTrigger{Source: "domain"}, got.Trigger)
}

func TestGetWorkflow_NotFound(t *testing.T) {
	app, _, _ := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/workflows/missing", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateWorkflow_TogglesActive(t *testing.T) {
	app, persistence, _ := setupTestApp(t)

	wf := &models.Workflow{
		ID:      "wf-1",
		Name:    "Toggling workflow",
		Trigger: models.NewLeadTrigger{},
		Active:  true,
	}
	require.NoError(t, persistence.WorkflowRepository().Save(context.Background(), wf))

	req := httptest.NewRequest(http.MethodPatch, "/workflows/wf-1", bytes.NewBufferString(`{"active": false}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	updated, err := persistence.WorkflowRepository().GetByID(context.Background(), "wf-1")
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Equal(t, "Toggling workflow", updated.Name)
}

func TestDeleteWorkflow(t *testing.T) {
	app, persistence, _ := setupTestApp(t)

	wf := &models.Workflow{ID: "wf-1", Name: "Doomed workflow", Trigger: models.NewLeadTrigger{}}
	require.NoError(t, persistence.WorkflowRepository().Save(context.Background(), wf))

	req := httptest.NewRequest(http.MethodDelete, "/workflows/wf-1", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	req = httptest.NewRequest(http.MethodDelete, "/workflows/wf-1", nil)

	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetRuns(t *testing.T) {
	app, persistence, _ := setupTestApp(t)

	run := &models.WorkflowRun{
		ID:         "run-1",
		WorkflowID: "wf-1",
		Status:     models.RunStatusFailed,
		Error:      "webhook returned 502 Bad Gateway",
	}
	require.NoError(t, persistence.RunRepository().Save(context.Background(), run))

	req := httptest.NewRequest(http.MethodGet, "/runs/?status=failed", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var result struct {
		Runs       []*models.WorkflowRun `json:"runs"`
		TotalCount int                   `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(body, &result))
	require.Equal(t, 1, result.TotalCount)
	assert.Equal(t, "run-1", result.Runs[0].ID)

	req = httptest.NewRequest(http.MethodGet, "/runs/?status=exploded", nil)

	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestResumeRun(t *testing.T) {
	app, persistence, _ := setupTestApp(t)

	resumeAt := time.Now().UTC().Add(-time.Minute)
	paused := &models.WorkflowRun{
		ID:                 "run-1",
		WorkflowID:         "wf-1",
		Status:             models.RunStatusRunning,
		CurrentActionIndex: 2,
		ResumeAt:           &resumeAt,
	}
	require.NoError(t, persistence.RunRepository().Save(context.Background(), paused))

	req := httptest.NewRequest(http.MethodPost, "/runs/run-1/resume", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}

func TestResumeRun_NotPaused(t *testing.T) {
	app, persistence, _ := setupTestApp(t)

	completed := &models.WorkflowRun{
		ID:         "run-1",
		WorkflowID: "wf-1",
		Status:     models.RunStatusCompleted,
	}
	require.NoError(t, persistence.RunRepository().Save(context.Background(), completed))

	req := httptest.NewRequest(http.MethodPost, "/runs/run-1/resume", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInjectEvent(t *testing.T) {
	app, _, bus := setupTestApp(t)

	received := make(chan *events.CRMEventReceived, 1)

	err := bus.Handle(events.CRMEventReceivedEvent, func(_ context.Context, event interface{}) error {
		received <- event.(*events.CRMEventReceived)

		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	body := `{
		"type": "stage_change",
		"contact_id": "contact-1",
		"data": {"from": "viewing", "to": "offer_made"}
	}`

	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	select {
	case got := <-received:
		assert.Equal(t, models.TriggerStageChange, got.Event.Type)
		assert.Equal(t, "contact-1", got.Event.ContactID)
		assert.Equal(t, "offer_made", got.Event.Data["to"])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for injected event")
	}
}

func TestHealthCheck(t *testing.T) {
	app, _, _ := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
