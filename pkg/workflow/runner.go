package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/propflow/propflow/pkg/models"
	"github.com/propflow/propflow/pkg/otelhelper"
	"github.com/propflow/propflow/pkg/persistence"
)

// Status is the in-memory outcome of a run, the authoritative contract to
// the caller regardless of whether the run record was persisted.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusPaused    Status = "paused"
)

// Result reports one invocation of the orchestrator. A soft mismatch
// (trigger did not fire, conditions not met) is a completed result with zero
// action results and a Note; it leaves no run record.
type Result struct {
	Status     Status
	RunID      string
	Results    []models.ActionResult
	Error      string
	ResumeAt   *time.Time
	NextAction int
	Note       string
}

// ActionsExecuted returns how many actions ran during this invocation.
func (r *Result) ActionsExecuted() int {
	return len(r.Results)
}

// Runner is the run orchestrator: it matches the trigger, evaluates the
// conditions and walks the action list sequentially, stopping on the first
// pause or failure. Pausing is pure data (a resume index plus a resume
// time), never a parked goroutine.
//
// The runner holds no locks: two concurrent runs touching the same entity
// may interleave their writes.
type Runner struct {
	runs     persistence.RunRepository
	matcher  *TriggerMatcher
	executor *ActionExecutor
	clock    clockwork.Clock
	ids      IDGenerator
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewRunner creates a run orchestrator.
func NewRunner(
	runs persistence.RunRepository,
	executor *ActionExecutor,
	clock clockwork.Clock,
	ids IDGenerator,
	logger *slog.Logger,
) *Runner {
	return &Runner{
		runs:     runs,
		matcher:  NewTriggerMatcher(logger),
		executor: executor,
		clock:    clock,
		ids:      ids,
		tracer:   otel.Tracer("propflow/workflow"),
		logger:   logger.With("module", "workflow_runner"),
	}
}

// Execute starts a fresh run of the workflow against one event and context.
func (r *Runner) Execute(ctx context.Context, wf *models.Workflow, event models.WorkflowEvent, ectx models.ExecutionContext) *Result {
	logger := r.logger.With("workflow_id", wf.ID, "event_type", event.Type)

	ctx, span := r.tracer.Start(ctx, "workflow.execute", trace.WithAttributes(
		attribute.String(otelhelper.WorkflowIDKey, wf.ID),
		attribute.String(otelhelper.TriggerTypeKey, string(event.Type)),
	))
	defer span.End()

	if !r.matcher.Matches(wf.Trigger, event) {
		logger.Debug("Trigger did not match event")

		return &Result{Status: StatusCompleted, Note: "trigger did not match"}
	}

	if !EvaluateConditions(wf.Conditions, ectx.EntityData) {
		logger.Debug("Workflow conditions not met")

		return &Result{Status: StatusCompleted, Note: "conditions not met"}
	}

	return r.runActions(ctx, logger, wf, ectx, r.ids.NewID(), 0)
}

// Resume re-enters a paused run at the recorded action index. Trigger and
// condition checks are skipped: they were satisfied when the run first
// started. The caller (the external scheduler) is responsible for invoking
// Resume no earlier than the recorded resume time.
func (r *Runner) Resume(ctx context.Context, wf *models.Workflow, ectx models.ExecutionContext, runID string, from int) *Result {
	logger := r.logger.With("workflow_id", wf.ID, "run_id", runID, "resume_from", from)

	ctx, span := r.tracer.Start(ctx, "workflow.resume", trace.WithAttributes(
		attribute.String(otelhelper.WorkflowIDKey, wf.ID),
		attribute.String(otelhelper.RunIDKey, runID),
		attribute.Int("propflow.run.resume_from", from),
	))
	defer span.End()

	logger.Info("Resuming paused workflow run")

	return r.runActions(ctx, logger, wf, ectx, runID, from)
}

func (r *Runner) runActions(ctx context.Context, logger *slog.Logger, wf *models.Workflow, ectx models.ExecutionContext, runID string, from int) *Result {
	// A workflow edited while a run was paused can leave the recorded resume
	// index past the end of a shortened action list; the run completes with
	// nothing left to do.
	if from > len(wf.Actions) {
		logger.Warn("Resume index past end of action list", "resume_from", from, "actions", len(wf.Actions))

		from = len(wf.Actions)
	}

	startedAt := r.clock.Now()
	if from > 0 {
		// Keep the original start time when re-entering a paused run.
		if prev, err := r.runs.GetByID(ctx, runID); err == nil {
			startedAt = prev.StartedAt
		}
	}

	results := make([]models.ActionResult, 0, len(wf.Actions)-from)

	run := &models.WorkflowRun{
		ID:            runID,
		WorkflowID:    wf.ID,
		ContactID:     ectx.ContactID,
		TransactionID: ectx.TransactionID,
		StartedAt:     startedAt,
	}

	for i := from; i < len(wf.Actions); i++ {
		action := wf.Actions[i]

		logger.Debug("Executing action", "index", i, "action_kind", action.ActionKind())

		result := r.executor.Execute(ctx, action, ectx)
		results = append(results, result)

		if !result.Success {
			run.Status = models.RunStatusFailed
			run.CurrentActionIndex = i
			run.Error = result.Error
			completedAt := r.clock.Now()
			run.CompletedAt = &completedAt
			r.saveRun(ctx, logger, run)

			return &Result{
				Status:     StatusFailed,
				RunID:      runID,
				Results:    results,
				Error:      result.Error,
				NextAction: i,
			}
		}

		if result.Paused {
			// A paused run stays "running" in storage; the pause itself is
			// the resume index plus the resume timestamp.
			run.Status = models.RunStatusRunning
			run.CurrentActionIndex = i + 1
			run.ResumeAt = result.ResumeAt
			r.saveRun(ctx, logger, run)

			return &Result{
				Status:     StatusPaused,
				RunID:      runID,
				Results:    results,
				ResumeAt:   result.ResumeAt,
				NextAction: i + 1,
			}
		}
	}

	run.Status = models.RunStatusCompleted
	run.CurrentActionIndex = len(wf.Actions)
	completedAt := r.clock.Now()
	run.CompletedAt = &completedAt
	r.saveRun(ctx, logger, run)

	return &Result{
		Status:     StatusCompleted,
		RunID:      runID,
		Results:    results,
		NextAction: len(wf.Actions),
	}
}

// saveRun persists the run record best-effort. The in-memory result is the
// contract to the caller, so a bookkeeping failure is logged and swallowed.
func (r *Runner) saveRun(ctx context.Context, logger *slog.Logger, run *models.WorkflowRun) {
	err := r.runs.Save(ctx, run)
	if err != nil {
		logger.Error("Failed to persist workflow run", "run_id", run.ID, "status", run.Status, "error", err)
	}
}
