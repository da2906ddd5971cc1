package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockCacheStore is a mock implementation of domain.CacheStore.
type MockCacheStore struct {
	mock.Mock
}

func (m *MockCacheStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheStore) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}
