// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkflowNotFound indicates a workflow was not found by the given identifier.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrRunNotFound indicates a workflow run was not found by the given identifier.
	ErrRunNotFound = errors.New("workflow run not found")

	// ErrContactNotFound indicates a contact was not found by the given identifier.
	ErrContactNotFound = errors.New("contact not found")

	// ErrTransactionNotFound indicates a transaction was not found by the given identifier.
	ErrTransactionNotFound = errors.New("transaction not found")
)

// StoreError wraps persistence errors with the operation and record context.
type StoreError struct {
	Op       string // Operation being performed (e.g., "GetByID", "Save")
	Table    string // Logical table (workflows, runs, contacts, ...)
	RecordID string // Record identifier if applicable
	Err      error  // Underlying error
}

func (e *StoreError) Error() string {
	if e.RecordID != "" {
		return fmt.Sprintf("%s on %s %s: %v", e.Op, e.Table, e.RecordID, e.Err)
	}

	return fmt.Sprintf("%s on %s: %v", e.Op, e.Table, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for store errors.
func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStoreError creates a new store error with context.
func NewStoreError(op, table, recordID string, err error) *StoreError {
	return &StoreError{
		Op:       op,
		Table:    table,
		RecordID: recordID,
		Err:      err,
	}
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsRunNotFound checks if an error indicates a workflow run was not found.
func IsRunNotFound(err error) bool {
	return errors.Is(err, ErrRunNotFound)
}

// IsContactNotFound checks if an error indicates a contact was not found.
func IsContactNotFound(err error) bool {
	return errors.Is(err, ErrContactNotFound)
}
