package mocks

import (
	"context"

	"github.com/you/shopcore/domain"
)

// MockAccountRepository implements domain.AccountRepository for testing.
type MockAccountRepository struct {
	CreateFunc                func(ctx context.Context, account *domain.Account) error
	FindByPhoneFunc           func(ctx context.Context, phone string) (*domain.Account, error)
	FindByIDFunc              func(ctx context.Context, id uint) (*domain.Account, error)
	UpdateRefreshRefFunc      func(ctx context.Context, accountID uint, ref string) error
	CompareAndSwapBalanceFunc func(ctx context.Context, accountID uint, version, newBalance int64) error
}

// NewMockAccountRepository creates a new MockAccountRepository with default behaviors.
func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{}
}

// Create creates a new account.
func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	// Default behavior: success
	return nil
}

// FindByPhone finds an account by phone number.
func (m *MockAccountRepository) FindByPhone(ctx context.Context, phone string) (*domain.Account, error) {
	if m.FindByPhoneFunc != nil {
		return m.FindByPhoneFunc(ctx, phone)
	}
	// Default behavior: not found
	return nil, domain.ErrAccountNotFound
}

// FindByID finds an account by ID.
func (m *MockAccountRepository) FindByID(ctx context.Context, id uint) (*domain.Account, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	// Default behavior: not found
	return nil, domain.ErrAccountNotFound
}

// UpdateRefreshRef stores the account's refresh token reference.
func (m *MockAccountRepository) UpdateRefreshRef(ctx context.Context, accountID uint, ref string) error {
	if m.UpdateRefreshRefFunc != nil {
		return m.UpdateRefreshRefFunc(ctx, accountID, ref)
	}
	// Default behavior: success
	return nil
}

// CompareAndSwapBalance writes a version-guarded balance update.
func (m *MockAccountRepository) CompareAndSwapBalance(ctx context.Context, accountID uint, version, newBalance int64) error {
	if m.CompareAndSwapBalanceFunc != nil {
		return m.CompareAndSwapBalanceFunc(ctx, accountID, version, newBalance)
	}
	// Default behavior: success
	return nil
}

// Compile-time interface compliance verification
var _ domain.AccountRepository = (*MockAccountRepository)(nil)
