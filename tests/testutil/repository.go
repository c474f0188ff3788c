package testutil

import (
	"context"
	"testing"

	"github.com/erp/smarterp/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockRepository is a testify mock of shared.Repository and shared.KeyedWriter
type MockRepository[T any] struct {
	mock.Mock
}

// NewMockRepository creates a mock repository that asserts its
// expectations when the test ends.
func NewMockRepository[T any](t *testing.T) *MockRepository[T] {
	m := &MockRepository[T]{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockRepository[T]) GetAll(ctx context.Context, q shared.Query) ([]T, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]T), args.Error(1)
}

func (m *MockRepository[T]) GetByID(ctx context.Context, id string) (*T, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*T), args.Error(1)
}

func (m *MockRepository[T]) Create(ctx context.Context, record *T) (string, error) {
	args := m.Called(ctx, record)
	return args.String(0), args.Error(1)
}

func (m *MockRepository[T]) Update(ctx context.Context, id string, fields shared.Fields) error {
	args := m.Called(ctx, id, fields)
	return args.Error(0)
}

func (m *MockRepository[T]) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository[T]) Put(ctx context.Context, id string, record *T) error {
	args := m.Called(ctx, id, record)
	return args.Error(0)
}

var (
	_ shared.Repository[struct{}]  = (*MockRepository[struct{}])(nil)
	_ shared.KeyedWriter[struct{}] = (*MockRepository[struct{}])(nil)
)
