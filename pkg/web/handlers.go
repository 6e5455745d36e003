package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/propflow/propflow/pkg/eventbus"
	"github.com/propflow/propflow/pkg/events"
	"github.com/propflow/propflow/pkg/models"
	"github.com/propflow/propflow/pkg/persistence"
)

type APIHandlers struct {
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	validator   *validator.Validate
}

func NewAPIHandlers(
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		persistence: persistence,
		eventBus:    eventBus,
		validator:   validator,
	}
}

func (h *APIHandlers) GetWorkflows(c fiber.Ctx) error {
	var (
		workflows []*models.Workflow
		err       error
	)

	if c.Query("active") == "true" {
		workflows, err = h.persistence.WorkflowRepository().GetActive(c.Context())
	} else {
		workflows, err = h.persistence.WorkflowRepository().GetAll(c.Context())
	}

	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"workflows":   workflows,
		"total_count": len(workflows),
	})
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.persistence.WorkflowRepository().GetByID(c.Context(), id)
	if err != nil {
		return handlePersistenceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var req CreateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow, err := req.ToWorkflow()
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := models.ValidateWorkflow(h.validator, workflow); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.persistence.WorkflowRepository().Save(c.Context(), workflow); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(workflow)
}

func (h *APIHandlers) UpdateWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req UpdateWorkflowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.persistence.WorkflowRepository().GetByID(c.Context(), id)
	if err != nil {
		return handlePersistenceError(c, err)
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.Description != nil {
		existing.Description = *req.Description
	}

	if req.Trigger != nil {
		trigger, err := models.UnmarshalTrigger(req.Trigger)
		if err != nil {
			return badRequest(c, "invalid trigger: "+err.Error())
		}

		existing.Trigger = trigger
	}

	if req.Conditions != nil {
		existing.Conditions = req.Conditions
	}

	if req.Actions != nil {
		actions := make([]models.Action, 0, len(req.Actions))

		for _, raw := range req.Actions {
			action, err := models.UnmarshalAction(raw)
			if err != nil {
				return badRequest(c, "invalid action: "+err.Error())
			}

			actions = append(actions, action)
		}

		existing.Actions = actions
	}

	if req.Active != nil {
		existing.Active = *req.Active
	}

	if err := models.ValidateWorkflow(h.validator, existing); err != nil {
		return badRequest(c, err.Error())
	}

	if err := h.persistence.WorkflowRepository().Save(c.Context(), existing); err != nil {
		return internalError(c, err)
	}

	return c.JSON(existing)
}

func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	err := h.persistence.WorkflowRepository().Delete(c.Context(), id)
	if err != nil {
		return handlePersistenceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetRuns lists run records, optionally filtered by status.
func (h *APIHandlers) GetRuns(c fiber.Ctx) error {
	status := models.RunStatus(c.Query("status", string(models.RunStatusRunning)))

	switch status {
	case models.RunStatusRunning, models.RunStatusCompleted, models.RunStatusFailed:
	default:
		return badRequest(c, "unknown run status: "+string(status))
	}

	runs, err := h.persistence.RunRepository().ListByStatus(c.Context(), status)
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"runs":        runs,
		"total_count": len(runs),
	})
}

func (h *APIHandlers) GetRun(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Run ID is required")
	}

	run, err := h.persistence.RunRepository().GetByID(c.Context(), id)
	if err != nil {
		return handlePersistenceError(c, err)
	}

	return c.JSON(run)
}

// ResumeRun asks the workers to re-enter a paused run. The external scheduler
// calls this once the run's resume time has passed; resuming early is allowed
// but skips the remaining wait.
func (h *APIHandlers) ResumeRun(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Run ID is required")
	}

	run, err := h.persistence.RunRepository().GetByID(c.Context(), id)
	if err != nil {
		return handlePersistenceError(c, err)
	}

	if run.Status != models.RunStatusRunning || run.ResumeAt == nil {
		return badRequest(c, "run is not paused")
	}

	event := events.RunResumeRequested{
		BaseEvent: events.NewBaseEvent(events.RunResumeRequestedEvent, run.WorkflowID),
		RunID:     run.ID,
	}

	if err := h.eventBus.Publish(c.Context(), run.ID, event); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"event_id": event.ID})
}

// InjectEvent accepts a CRM event and hands it to the workflow workers via
// the event bus.
func (h *APIHandlers) InjectEvent(c fiber.Ctx) error {
	var req InjectEventRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	event := events.CRMEventReceived{
		BaseEvent: events.NewBaseEvent(events.CRMEventReceivedEvent, ""),
		Event: models.WorkflowEvent{
			Type:          req.Type,
			ContactID:     req.ContactID,
			TransactionID: req.TransactionID,
			Data:          req.Data,
		},
	}

	err := h.eventBus.Publish(c.Context(), req.ContactID, event)
	if err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"event_id": event.ID})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	err := h.persistence.HealthCheck(c.Context())

	status := "healthy"
	message := "Propflow API is healthy"
	httpStatus := http.StatusOK

	if err != nil {
		status = "unhealthy"
		message = "Propflow API is unhealthy"
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"message":   message,
		"timestamp": time.Now().UTC(),
	})
}
