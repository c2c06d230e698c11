package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"sandman-server/internal/model"
	"sandman-server/internal/stage"
)

// MockPlanner is a mock type for the Planner type
type MockPlanner struct {
	mock.Mock
}

// Plan provides a mock function with given fields: ctx, req
func (_m *MockPlanner) Plan(ctx context.Context, req *model.StoryRequest) (*model.StoryPlan, error) {
	ret := _m.Called(ctx, req)

	var r0 *model.StoryPlan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.StoryPlan)
	}

	return r0, ret.Error(1)
}

// NewMockPlanner creates a new instance of MockPlanner.
func NewMockPlanner(t interface {
	mock.TestingT
	Helper()
}) *MockPlanner {
	m := &MockPlanner{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ stage.Planner = (*MockPlanner)(nil)

// MockWriter is a mock type for the Writer type
type MockWriter struct {
	mock.Mock
}

// Write provides a mock function with given fields: ctx, plan, req
func (_m *MockWriter) Write(ctx context.Context, plan *model.StoryPlan, req *model.StoryRequest) (*stage.WriterResult, error) {
	ret := _m.Called(ctx, plan, req)

	var r0 *stage.WriterResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*stage.WriterResult)
	}

	return r0, ret.Error(1)
}

// NewMockWriter creates a new instance of MockWriter.
func NewMockWriter(t interface {
	mock.TestingT
	Helper()
}) *MockWriter {
	m := &MockWriter{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ stage.Writer = (*MockWriter)(nil)

// MockNarrator is a mock type for the Narrator type
type MockNarrator struct {
	mock.Mock
}

// Narrate provides a mock function with given fields: ctx, text, language, voiceID
func (_m *MockNarrator) Narrate(ctx context.Context, text string, language string, voiceID string) ([]byte, error) {
	ret := _m.Called(ctx, text, language, voiceID)

	var r0 []byte
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]byte)
	}

	return r0, ret.Error(1)
}

// NewMockNarrator creates a new instance of MockNarrator.
func NewMockNarrator(t interface {
	mock.TestingT
	Helper()
}) *MockNarrator {
	m := &MockNarrator{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ stage.Narrator = (*MockNarrator)(nil)

// MockSoundDesigner is a mock type for the SoundDesigner type
type MockSoundDesigner struct {
	mock.Mock
}

// Compose provides a mock function with given fields: ctx, description, durationSeconds
func (_m *MockSoundDesigner) Compose(ctx context.Context, description string, durationSeconds float64) ([]byte, error) {
	ret := _m.Called(ctx, description, durationSeconds)

	var r0 []byte
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]byte)
	}

	return r0, ret.Error(1)
}

// NewMockSoundDesigner creates a new instance of MockSoundDesigner.
func NewMockSoundDesigner(t interface {
	mock.TestingT
	Helper()
}) *MockSoundDesigner {
	m := &MockSoundDesigner{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ stage.SoundDesigner = (*MockSoundDesigner)(nil)

// MockIllustrator is a mock type for the Illustrator type
type MockIllustrator struct {
	mock.Mock
}

// Illustrate provides a mock function with given fields: ctx, prompt
func (_m *MockIllustrator) Illustrate(ctx context.Context, prompt string) ([]byte, error) {
	ret := _m.Called(ctx, prompt)

	var r0 []byte
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]byte)
	}

	return r0, ret.Error(1)
}

// NewMockIllustrator creates a new instance of MockIllustrator.
func NewMockIllustrator(t interface {
	mock.TestingT
	Helper()
}) *MockIllustrator {
	m := &MockIllustrator{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ stage.Illustrator = (*MockIllustrator)(nil)
