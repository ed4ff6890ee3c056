package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/Rrens/funnair-assistant/internal/llm"
)

// MockProvider mocks the llm.Provider interface
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string {
	return "mock"
}

func (m *MockProvider) AvailableModels() []string {
	return []string{"mock-model"}
}

func (m *MockProvider) DefaultModel() string {
	return "mock-model"
}

func (m *MockProvider) IsConfigured() bool {
	return true
}

func (m *MockProvider) Chat(ctx context.Context, req llm.ChatRequest, model string, onChunk llm.StreamFunc) (*llm.ChatResponse, error) {
	args := m.Called(ctx, req, model, onChunk)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.ChatResponse), args.Error(1)
}

// MockProviderSource mocks the ProviderSource interface
type MockProviderSource struct {
	mock.Mock
}

func (m *MockProviderSource) GetProvider(name string) (llm.Provider, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(llm.Provider), args.Error(1)
}

// streams makes a mocked Chat call push fragments through its callback
func streams(fragments ...string) func(mock.Arguments) {
	return func(args mock.Arguments) {
		onChunk := args.Get(3).(llm.StreamFunc)
		for _, f := range fragments {
			onChunk(f)
		}
	}
}
