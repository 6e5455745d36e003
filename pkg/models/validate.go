package models

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// ErrNoTrigger indicates a workflow definition without a trigger.
var ErrNoTrigger = errors.New("workflow has no trigger")

// ValidateWorkflow checks a workflow definition: struct tags on the workflow
// and on each trigger/condition/action, plus the time_based schedule
// expression. It validates configuration only; the scheduler that evaluates
// the schedule stays external.
func ValidateWorkflow(validate *validator.Validate, workflow *Workflow) error {
	err := validate.Struct(workflow)
	if err != nil {
		return fmt.Errorf("invalid workflow: %w", err)
	}

	if workflow.Trigger == nil {
		return ErrNoTrigger
	}

	err = validate.Struct(workflow.Trigger)
	if err != nil {
		return fmt.Errorf("invalid %s trigger: %w", workflow.Trigger.TriggerType(), err)
	}

	if timeBased, ok := workflow.Trigger.(TimeBasedTrigger); ok {
		_, err := cron.ParseStandard(timeBased.Schedule)
		if err != nil {
			return fmt.Errorf("invalid time_based schedule %q: %w", timeBased.Schedule, err)
		}
	}

	for i, action := range workflow.Actions {
		err := validate.Struct(action)
		if err != nil {
			return fmt.Errorf("invalid %s action at index %d: %w", action.ActionKind(), i, err)
		}
	}

	return nil
}
