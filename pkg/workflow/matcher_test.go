package workflow

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/propflow/propflow/pkg/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestTriggerMatcher_StageChange(t *testing.T) {
	matcher := NewTriggerMatcher(testLogger())

	tests := []struct {
		name     string
		trigger  models.Trigger
		event    models.WorkflowEvent
		expected bool
	}{
		{
			"to matches, no from declared",
			models.StageChangeTrigger{To: "offer_made"},
			models.WorkflowEvent{Type: models.TriggerStageChange, Data: map[string]any{"from": "viewing", "to": "offer_made"}},
			true,
		},
		{
			"to matches regardless of event from",
			models.StageChangeTrigger{To: "offer_made"},
			models.WorkflowEvent{Type: models.TriggerStageChange, Data: map[string]any{"from": "listed", "to": "offer_made"}},
			true,
		},
		{
			"declared from must match exactly",
			models.StageChangeTrigger{From: "viewing", To: "offer_made"},
			models.WorkflowEvent{Type: models.TriggerStageChange, Data: map[string]any{"from": "listed", "to": "offer_made"}},
			false,
		},
		{
			"declared from matching",
			models.StageChangeTrigger{From: "viewing", To: "offer_made"},
			models.WorkflowEvent{Type: models.TriggerStageChange, Data: map[string]any{"from": "viewing", "to": "offer_made"}},
			true,
		},
		{
			"to mismatch",
			models.StageChangeTrigger{To: "settled"},
			models.WorkflowEvent{Type: models.TriggerStageChange, Data: map[string]any{"to": "offer_made"}},
			false,
		},
		{
			"wrong event type",
			models.StageChangeTrigger{To: "offer_made"},
			models.WorkflowEvent{Type: models.TriggerNewLead, Data: map[string]any{"to": "offer_made"}},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, matcher.Matches(tt.trigger, tt.event))
		})
	}
}

func TestTriggerMatcher_NewLead(t *testing.T) {
	matcher := NewTriggerMatcher(testLogger())

	trigger := models.NewLeadTrigger{Source: "domain"}

	rea := models.WorkflowEvent{Type: models.TriggerNewLead, Data: map[string]any{"source": "rea"}}
	domain := models.WorkflowEvent{Type: models.TriggerNewLead, Data: map[string]any{"source": "domain"}}

	assert.False(t, matcher.Matches(trigger, rea))
	assert.True(t, matcher.Matches(trigger, domain))

	anySource := models.NewLeadTrigger{}
	assert.True(t, matcher.Matches(anySource, rea))
	assert.True(t, matcher.Matches(anySource, domain))
}

func TestTriggerMatcher_FieldChange(t *testing.T) {
	matcher := NewTriggerMatcher(testLogger())

	trigger := models.FieldChangeTrigger{Field: "budget_max"}

	assert.True(t, matcher.Matches(trigger, models.WorkflowEvent{
		Type: models.TriggerFieldChange,
		Data: map[string]any{"field": "budget_max"},
	}))
	assert.False(t, matcher.Matches(trigger, models.WorkflowEvent{
		Type: models.TriggerFieldChange,
		Data: map[string]any{"field": "suburb"},
	}))
	assert.False(t, matcher.Matches(trigger, models.WorkflowEvent{
		Type: models.TriggerFormSubmitted,
		Data: map[string]any{"field": "budget_max"},
	}))
}

func TestTriggerMatcher_FormSubmitted(t *testing.T) {
	matcher := NewTriggerMatcher(testLogger())

	trigger := models.FormSubmittedTrigger{FormID: "appraisal-request"}

	assert.True(t, matcher.Matches(trigger, models.WorkflowEvent{
		Type: models.TriggerFormSubmitted,
		Data: map[string]any{"form_id": "appraisal-request"},
	}))
	assert.False(t, matcher.Matches(trigger, models.WorkflowEvent{
		Type: models.TriggerFormSubmitted,
		Data: map[string]any{"form_id": "contact-us"},
	}))
}

func TestTriggerMatcher_SchedulerDrivenTriggersNeverMatch(t *testing.T) {
	matcher := NewTriggerMatcher(testLogger())

	triggers := []models.Trigger{
		models.TimeBasedTrigger{Schedule: "0 9 * * 1"},
		models.NoActivityTrigger{Days: 14},
		models.DateApproachingTrigger{Field: "settlement_date", DaysBefore: 7},
	}

	events := []models.WorkflowEvent{
		{Type: models.TriggerTimeBased},
		{Type: models.TriggerNoActivity, Data: map[string]any{"days": 14}},
		{Type: models.TriggerDateApproaching, Data: map[string]any{"field": "settlement_date"}},
		{Type: models.TriggerStageChange, Data: map[string]any{"to": "offer_made"}},
	}

	for _, trigger := range triggers {
		for _, event := range events {
			assert.False(t, matcher.Matches(trigger, event),
				"trigger %s should never match live events", trigger.TriggerType())
		}
	}
}
