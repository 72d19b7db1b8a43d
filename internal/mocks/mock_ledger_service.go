package mocks

import (
	"context"

	"github.com/you/shopcore/domain"
)

// MockLedgerService implements domain.LedgerService for testing handlers.
type MockLedgerService struct {
	PlaceOrderFunc   func(ctx context.Context, accountID uint, input domain.PlaceOrderInput) (*domain.Order, *domain.LedgerDelta, error)
	CancelOrderFunc  func(ctx context.Context, orderID, accountID uint) (*domain.Order, int64, error)
	CheckBalanceFunc func(ctx context.Context, accountID uint, required int64) (bool, int64, error)
	GetOrderFunc     func(ctx context.Context, orderID, accountID uint) (*domain.Order, error)
}

// NewMockLedgerService creates a new MockLedgerService with default behaviors.
func NewMockLedgerService() *MockLedgerService {
	return &MockLedgerService{}
}

// PlaceOrder runs the order placement saga.
func (m *MockLedgerService) PlaceOrder(ctx context.Context, accountID uint, input domain.PlaceOrderInput) (*domain.Order, *domain.LedgerDelta, error) {
	if m.PlaceOrderFunc != nil {
		return m.PlaceOrderFunc(ctx, accountID, input)
	}
	// Default behavior: empty order rejected
	return nil, nil, domain.ErrEmptyOrder
}

// CancelOrder cancels an order and refunds reserved tokens.
func (m *MockLedgerService) CancelOrder(ctx context.Context, orderID, accountID uint) (*domain.Order, int64, error) {
	if m.CancelOrderFunc != nil {
		return m.CancelOrderFunc(ctx, orderID, accountID)
	}
	// Default behavior: not found
	return nil, 0, domain.ErrOrderNotFound
}

// CheckBalance reports balance sufficiency.
func (m *MockLedgerService) CheckBalance(ctx context.Context, accountID uint, required int64) (bool, int64, error) {
	if m.CheckBalanceFunc != nil {
		return m.CheckBalanceFunc(ctx, accountID, required)
	}
	// Default behavior: sufficient
	return true, 0, nil
}

// GetOrder loads an order owned by the account.
func (m *MockLedgerService) GetOrder(ctx context.Context, orderID, accountID uint) (*domain.Order, error) {
	if m.GetOrderFunc != nil {
		return m.GetOrderFunc(ctx, orderID, accountID)
	}
	// Default behavior: not found
	return nil, domain.ErrOrderNotFound
}

// Compile-time interface compliance verification
var _ domain.LedgerService = (*MockLedgerService)(nil)
