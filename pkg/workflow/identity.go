package workflow

import "github.com/google/uuid"

// IDGenerator supplies identifiers for runs and the records actions create.
// Injecting it keeps run IDs deterministic under test.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator is the production IDGenerator.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.New().String()
}
