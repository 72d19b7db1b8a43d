package mocks

import (
	"context"

	"github.com/you/shopcore/domain"
)

// MockOrderRepository implements domain.OrderRepository for testing.
type MockOrderRepository struct {
	CreateFunc            func(ctx context.Context, order *domain.Order) error
	FindByIDFunc          func(ctx context.Context, id uint) (*domain.Order, error)
	ClaimCancellationFunc func(ctx context.Context, id uint) error
}

// NewMockOrderRepository creates a new MockOrderRepository with default behaviors.
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{}
}

// Create creates a new order.
func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, order)
	}
	// Default behavior: success
	return nil
}

// FindByID finds an order by ID.
func (m *MockOrderRepository) FindByID(ctx context.Context, id uint) (*domain.Order, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	// Default behavior: not found
	return nil, domain.ErrOrderNotFound
}

// ClaimCancellation flips an order to cancelled if still permitted.
func (m *MockOrderRepository) ClaimCancellation(ctx context.Context, id uint) error {
	if m.ClaimCancellationFunc != nil {
		return m.ClaimCancellationFunc(ctx, id)
	}
	// Default behavior: claim granted
	return nil
}

// Compile-time interface compliance verification
var _ domain.OrderRepository = (*MockOrderRepository)(nil)
