package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"sandman-server/internal/cache"
)

// MockResultCache is a mock type for the ResultCache type
type MockResultCache struct {
	mock.Mock
}

// Get provides a mock function with given fields: ctx, key
func (_m *MockResultCache) Get(ctx context.Context, key string) (*cache.CachedStory, error) {
	ret := _m.Called(ctx, key)

	var r0 *cache.CachedStory
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*cache.CachedStory)
	}

	return r0, ret.Error(1)
}

// Put provides a mock function with given fields: ctx, key, story
func (_m *MockResultCache) Put(ctx context.Context, key string, story *cache.CachedStory) error {
	ret := _m.Called(ctx, key, story)
	return ret.Error(0)
}

// NewMockResultCache creates a new instance of MockResultCache. It also registers a testing interface on the mock.
func NewMockResultCache(t interface {
	mock.TestingT
	Helper()
}) *MockResultCache {
	m := &MockResultCache{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ cache.ResultCache = (*MockResultCache)(nil)
