package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockTranslator is a mock implementation of domain.Translator.
type MockTranslator struct {
	mock.Mock
}

func (m *MockTranslator) Translate(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

func (m *MockTranslator) IsSourceLanguage(text string) bool {
	args := m.Called(text)
	return args.Bool(0)
}

func (m *MockTranslator) SourceLanguage() string {
	return "es"
}
