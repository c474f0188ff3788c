package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
)

// MockTextGenerator is a testify mock of genai.TextGenerator that also
// keeps the prompts it was given
type MockTextGenerator struct {
	mock.Mock

	mu      sync.Mutex
	prompts []string
}

// NewMockTextGenerator creates a generator mock that asserts its
// expectations when the test ends
func NewMockTextGenerator(t *testing.T) *MockTextGenerator {
	m := &MockTextGenerator{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockTextGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	m.mu.Unlock()

	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

// LastPrompt returns the most recent prompt
func (m *MockTextGenerator) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.prompts) == 0 {
		return ""
	}
	return m.prompts[len(m.prompts)-1]
}
