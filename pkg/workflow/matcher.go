// Package workflow implements the automation engine core: trigger matching,
// condition evaluation, action execution and the run orchestrator.
package workflow

import (
	"log/slog"

	"github.com/propflow/propflow/pkg/models"
)

// TriggerMatcher decides whether an inbound domain event satisfies a
// workflow's declared trigger.
type TriggerMatcher struct {
	logger *slog.Logger
}

// NewTriggerMatcher creates a new trigger matcher.
func NewTriggerMatcher(logger *slog.Logger) *TriggerMatcher {
	return &TriggerMatcher{
		logger: logger.With("module", "trigger_matcher"),
	}
}

// Matches is a pure predicate over (trigger, event). Scheduler-driven trigger
// kinds (time_based, no_activity, date_approaching) never match a live event;
// the scheduler synthesizes one of the other event types when they fire.
func (tm *TriggerMatcher) Matches(trigger models.Trigger, event models.WorkflowEvent) bool {
	switch t := trigger.(type) {
	case models.StageChangeTrigger:
		if event.Type != models.TriggerStageChange {
			return false
		}

		if eventText(event, "to") != t.To {
			return false
		}

		// An empty From on the trigger means "from any stage".
		return t.From == "" || eventText(event, "from") == t.From

	case models.NewLeadTrigger:
		if event.Type != models.TriggerNewLead {
			return false
		}

		return t.Source == "" || eventText(event, "source") == t.Source

	case models.FieldChangeTrigger:
		return event.Type == models.TriggerFieldChange && eventText(event, "field") == t.Field

	case models.FormSubmittedTrigger:
		return event.Type == models.TriggerFormSubmitted && eventText(event, "form_id") == t.FormID

	case models.TimeBasedTrigger, models.NoActivityTrigger, models.DateApproachingTrigger:
		return false

	default:
		tm.logger.Warn("Unknown trigger type", "type", trigger.TriggerType())

		return false
	}
}

func eventText(event models.WorkflowEvent, key string) string {
	value, ok := event.Data[key]
	if !ok {
		return ""
	}

	return asText(value)
}
