package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"sandman-server/internal/model"
	"sandman-server/internal/service"
)

// MockOrchestrator is a mock type for the Orchestrator type
type MockOrchestrator struct {
	mock.Mock
}

// GenerateStory provides a mock function with given fields: ctx, req
func (_m *MockOrchestrator) GenerateStory(ctx context.Context, req *model.StoryRequest) (*model.StoryRecord, bool, error) {
	ret := _m.Called(ctx, req)

	var r0 *model.StoryRecord
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.StoryRecord)
	}

	return r0, ret.Bool(1), ret.Error(2)
}

// NewMockOrchestrator creates a new instance of MockOrchestrator.
func NewMockOrchestrator(t interface {
	mock.TestingT
	Helper()
}) *MockOrchestrator {
	m := &MockOrchestrator{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ service.Orchestrator = (*MockOrchestrator)(nil)

// MockResolver is a mock type for the Resolver type
type MockResolver struct {
	mock.Mock
}

// GetStory provides a mock function with given fields: ctx, id
func (_m *MockResolver) GetStory(ctx context.Context, id uuid.UUID) (*model.StoryRecord, error) {
	ret := _m.Called(ctx, id)

	var r0 *model.StoryRecord
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.StoryRecord)
	}

	return r0, ret.Error(1)
}

// ListStories provides a mock function with given fields: ctx, limit
func (_m *MockResolver) ListStories(ctx context.Context, limit int) ([]model.StorySummary, error) {
	ret := _m.Called(ctx, limit)

	var r0 []model.StorySummary
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.StorySummary)
	}

	return r0, ret.Error(1)
}

// GetAudio provides a mock function with given fields: ctx, id, sceneKey
func (_m *MockResolver) GetAudio(ctx context.Context, id uuid.UUID, sceneKey string) ([]byte, error) {
	ret := _m.Called(ctx, id, sceneKey)

	var r0 []byte
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]byte)
	}

	return r0, ret.Error(1)
}

// GetImage provides a mock function with given fields: ctx, id, sceneKey
func (_m *MockResolver) GetImage(ctx context.Context, id uuid.UUID, sceneKey string) ([]byte, error) {
	ret := _m.Called(ctx, id, sceneKey)

	var r0 []byte
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]byte)
	}

	return r0, ret.Error(1)
}

// NewMockResolver creates a new instance of MockResolver.
func NewMockResolver(t interface {
	mock.TestingT
	Helper()
}) *MockResolver {
	m := &MockResolver{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ service.Resolver = (*MockResolver)(nil)
