package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/propflow/propflow/pkg/eventbus"
	"github.com/propflow/propflow/pkg/events"
	"github.com/propflow/propflow/pkg/models"
	"github.com/propflow/propflow/pkg/persistence"
	"github.com/propflow/propflow/pkg/workflow"
)

// WorkerManager consumes CRM events and resume requests from the event bus
// and drives the run orchestrator against every active workflow, publishing
// run lifecycle events back.
type WorkerManager struct {
	id          string
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	runner      *workflow.Runner
	clock       clockwork.Clock
}

func NewWorkerManager(
	id string,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	logger *slog.Logger,
) *WorkerManager {
	clock := clockwork.NewRealClock()
	ids := workflow.UUIDGenerator{}
	executor := workflow.NewActionExecutor(persistence.Datastore(), nil, clock, ids, logger)

	return &WorkerManager{
		id:          id,
		logger:      logger.With("module", "propflow-worker", "worker_id", id),
		persistence: persistence,
		eventBus:    eventBus,
		runner:      workflow.NewRunner(persistence.RunRepository(), executor, clock, ids, logger),
		clock:       clock,
	}
}

func (w *WorkerManager) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker manager")

	err := w.eventBus.Handle(events.CRMEventReceivedEvent, w.handleCRMEvent)
	if err != nil {
		return err
	}

	err = w.eventBus.Handle(events.RunResumeRequestedEvent, w.handleResumeRequested)
	if err != nil {
		return err
	}

	err = w.eventBus.Subscribe(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	w.logger.InfoContext(ctx, "Shutting down worker...")

	return nil
}

func (w *WorkerManager) handleCRMEvent(ctx context.Context, event any) error {
	received, ok := event.(*events.CRMEventReceived)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for CRMEventReceived")

		return nil
	}

	logger := w.logger.With(
		"event_id", received.ID,
		"event_type", received.Event.Type,
		"contact_id", received.Event.ContactID,
	)
	logger.InfoContext(ctx, "Processing CRM event")

	workflows, err := w.persistence.WorkflowRepository().GetActive(ctx)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load active workflows", "error", err)

		return err
	}

	ectx := w.buildExecutionContext(ctx, logger, received.Event)

	for _, wf := range workflows {
		startedAt := w.clock.Now()
		result := w.runner.Execute(ctx, wf, received.Event, ectx)
		w.publishResult(ctx, logger, wf.ID, ectx.ContactID, result, startedAt)
	}

	return nil
}

func (w *WorkerManager) handleResumeRequested(ctx context.Context, event any) error {
	request, ok := event.(*events.RunResumeRequested)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for RunResumeRequested")

		return nil
	}

	logger := w.logger.With("run_id", request.RunID)
	logger.InfoContext(ctx, "Processing resume request")

	run, err := w.persistence.RunRepository().GetByID(ctx, request.RunID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load run", "error", err)

		return err
	}

	if run.Status != models.RunStatusRunning || run.ResumeAt == nil {
		logger.WarnContext(ctx, "Run is not paused, ignoring resume request", "status", run.Status)

		return nil
	}

	wf, err := w.persistence.WorkflowRepository().GetByID(ctx, run.WorkflowID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load workflow for run", "workflow_id", run.WorkflowID, "error", err)

		return err
	}

	ectx := w.buildExecutionContext(ctx, logger, models.WorkflowEvent{
		ContactID:     run.ContactID,
		TransactionID: run.TransactionID,
	})

	resumedEvent := events.RunResumed{
		BaseEvent:        events.NewBaseEvent(events.RunResumedEvent, wf.ID),
		RunID:            run.ID,
		ResumedFromIndex: run.CurrentActionIndex,
	}
	resumedEvent.WorkerID = w.id
	w.publish(ctx, logger, run.ID, resumedEvent)

	startedAt := w.clock.Now()
	result := w.runner.Resume(ctx, wf, ectx, run.ID, run.CurrentActionIndex)
	w.publishResult(ctx, logger, wf.ID, ectx.ContactID, result, startedAt)

	return nil
}

// buildExecutionContext assembles the entity view a run reads from: the
// contact's stored fields overlaid with the event payload. A missing contact
// is not fatal; the run proceeds with the event data alone.
func (w *WorkerManager) buildExecutionContext(ctx context.Context, logger *slog.Logger, event models.WorkflowEvent) models.ExecutionContext {
	entityData := make(map[string]any)

	if event.ContactID != "" {
		contact, err := w.persistence.Datastore().GetContact(ctx, event.ContactID)
		if err != nil {
			logger.WarnContext(ctx, "Failed to load contact for execution context", "error", err)
		} else {
			for k, v := range contact.Fields {
				entityData[k] = v
			}
		}
	}

	for k, v := range event.Data {
		entityData[k] = v
	}

	return models.ExecutionContext{
		ContactID:     event.ContactID,
		TransactionID: event.TransactionID,
		EntityData:    entityData,
	}
}

func (w *WorkerManager) publishResult(ctx context.Context, logger *slog.Logger, workflowID, contactID string, result *workflow.Result, startedAt time.Time) {
	// Soft mismatches leave no run record and publish nothing.
	if result.Note != "" {
		logger.DebugContext(ctx, "Workflow skipped", "workflow_id", workflowID, "note", result.Note)

		return
	}

	durationMs := w.clock.Since(startedAt).Milliseconds()

	switch result.Status {
	case workflow.StatusCompleted:
		event := events.RunCompleted{
			BaseEvent:       events.NewBaseEvent(events.RunCompletedEvent, workflowID),
			RunID:           result.RunID,
			ContactID:       contactID,
			ActionsExecuted: result.ActionsExecuted(),
			DurationMs:      durationMs,
		}
		event.WorkerID = w.id
		w.publish(ctx, logger, result.RunID, event)
	case workflow.StatusFailed:
		event := events.RunFailed{
			BaseEvent:         events.NewBaseEvent(events.RunFailedEvent, workflowID),
			RunID:             result.RunID,
			ContactID:         contactID,
			Error:             result.Error,
			FailedActionIndex: result.NextAction,
			DurationMs:        durationMs,
		}
		event.WorkerID = w.id
		w.publish(ctx, logger, result.RunID, event)
	case workflow.StatusPaused:
		event := events.RunPaused{
			BaseEvent:       events.NewBaseEvent(events.RunPausedEvent, workflowID),
			RunID:           result.RunID,
			ContactID:       contactID,
			ResumeAt:        *result.ResumeAt,
			NextActionIndex: result.NextAction,
		}
		event.WorkerID = w.id
		w.publish(ctx, logger, result.RunID, event)
	}
}

func (w *WorkerManager) publish(ctx context.Context, logger *slog.Logger, key string, event eventbus.Event) {
	err := w.eventBus.Publish(ctx, key, event)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to publish run event", "event_type", event.GetType(), "error", err)
	}
}
