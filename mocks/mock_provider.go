package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/macrolens/foodengine/internal/domain"
)

// MockTextProvider is a mock provider that only supports text search.
type MockTextProvider struct {
	mock.Mock
	ProviderName string
}

func (m *MockTextProvider) Name() string {
	return m.ProviderName
}

func (m *MockTextProvider) SearchByText(ctx context.Context, query string, maxResults int) ([]domain.FoodRecord, error) {
	args := m.Called(ctx, query, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FoodRecord), args.Error(1)
}

// MockProvider is a mock implementation of every provider capability.
type MockProvider struct {
	MockTextProvider
}

// NewMockProvider returns a full-capability mock named name.
func NewMockProvider(name string) *MockProvider {
	return &MockProvider{MockTextProvider{ProviderName: name}}
}

func (m *MockProvider) GetByID(ctx context.Context, id string) ([]domain.FoodRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FoodRecord), args.Error(1)
}

func (m *MockProvider) GetByBarcode(ctx context.Context, code string) ([]domain.FoodRecord, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FoodRecord), args.Error(1)
}
