package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"sandman-server/internal/model"
	"sandman-server/internal/repository"
)

// MockStoryRepository is a mock type for the StoryRepository type
type MockStoryRepository struct {
	mock.Mock
}

// Insert provides a mock function with given fields: ctx, record
func (_m *MockStoryRepository) Insert(ctx context.Context, record *model.StoryRecord) error {
	ret := _m.Called(ctx, record)
	return ret.Error(0)
}

// GetByID provides a mock function with given fields: ctx, id
func (_m *MockStoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.StoryRecord, error) {
	ret := _m.Called(ctx, id)

	var r0 *model.StoryRecord
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.StoryRecord)
	}

	return r0, ret.Error(1)
}

// List provides a mock function with given fields: ctx, limit
func (_m *MockStoryRepository) List(ctx context.Context, limit int) ([]model.StorySummary, error) {
	ret := _m.Called(ctx, limit)

	var r0 []model.StorySummary
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.StorySummary)
	}

	return r0, ret.Error(1)
}

// AppendAudio provides a mock function with given fields: ctx, id, sceneKey, payload
func (_m *MockStoryRepository) AppendAudio(ctx context.Context, id uuid.UUID, sceneKey string, payload []byte) error {
	ret := _m.Called(ctx, id, sceneKey, payload)
	return ret.Error(0)
}

// AppendImage provides a mock function with given fields: ctx, id, sceneKey, payload
func (_m *MockStoryRepository) AppendImage(ctx context.Context, id uuid.UUID, sceneKey string, payload []byte) error {
	ret := _m.Called(ctx, id, sceneKey, payload)
	return ret.Error(0)
}

// NewMockStoryRepository creates a new instance of MockStoryRepository. It also registers a testing interface on the mock.
func NewMockStoryRepository(t interface {
	mock.TestingT
	Helper()
}) *MockStoryRepository {
	m := &MockStoryRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ repository.StoryRepository = (*MockStoryRepository)(nil)
