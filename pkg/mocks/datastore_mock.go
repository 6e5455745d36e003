// Package mocks provides testify mock implementations of the persistence
// interfaces for engine tests.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/propflow/propflow/pkg/models"
)

// MockDatastore is a mock implementation of the persistence.Datastore interface.
type MockDatastore struct {
	mock.Mock
}

func (m *MockDatastore) CreateTask(ctx context.Context, task *models.Task) (*models.Task, error) {
	args := m.Called(ctx, task)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockDatastore) GetContact(ctx context.Context, id string) (*models.Contact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Contact), args.Error(1)
}

func (m *MockDatastore) AssignContact(ctx context.Context, id, agentID string) error {
	args := m.Called(ctx, id, agentID)

	return args.Error(0)
}

func (m *MockDatastore) UpdateContactFields(ctx context.Context, id string, fields map[string]any) error {
	args := m.Called(ctx, id, fields)

	return args.Error(0)
}

func (m *MockDatastore) UpdateContactTags(ctx context.Context, id string, tags []string) error {
	args := m.Called(ctx, id, tags)

	return args.Error(0)
}

func (m *MockDatastore) UpdateTransactionFields(ctx context.Context, id string, fields map[string]any) error {
	args := m.Called(ctx, id, fields)

	return args.Error(0)
}

func (m *MockDatastore) CreateNote(ctx context.Context, note *models.Note) (*models.Note, error) {
	args := m.Called(ctx, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Note), args.Error(1)
}

func (m *MockDatastore) EnqueueMessage(ctx context.Context, message *models.OutboundMessage) (*models.OutboundMessage, error) {
	args := m.Called(ctx, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.OutboundMessage), args.Error(1)
}

func (m *MockDatastore) CreateSocialPost(ctx context.Context, post *models.SocialPost) (*models.SocialPost, error) {
	args := m.Called(ctx, post)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.SocialPost), args.Error(1)
}
