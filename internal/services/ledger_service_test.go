package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/you/shopcore/domain"
	"github.com/you/shopcore/internal/mocks"
)

// fakeBalance backs the account repository mocks with a tiny in-memory
// versioned balance so the compare-and-swap path behaves like the real
// record store.
type fakeBalance struct {
	mu      sync.Mutex
	balance int64
	version int64
}

func wireBalance(repo *mocks.MockAccountRepository, accountID uint, initial int64) *fakeBalance {
	fb := &fakeBalance{balance: initial}

	repo.FindByIDFunc = func(ctx context.Context, id uint) (*domain.Account, error) {
		if id != accountID {
			return nil, domain.ErrAccountNotFound
		}
		fb.mu.Lock()
		defer fb.mu.Unlock()
		return &domain.Account{
			ID:           accountID,
			Status:       domain.AccountActive,
			TokenBalance: fb.balance,
			Version:      fb.version,
		}, nil
	}
	repo.CompareAndSwapBalanceFunc = func(ctx context.Context, id uint, version, newBalance int64) error {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		if version != fb.version {
			return domain.ErrBalanceConflict
		}
		fb.balance = newBalance
		fb.version++
		return nil
	}

	return fb
}

func (fb *fakeBalance) current() int64 {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.balance
}

func TestValidateItems(t *testing.T) {
	tests := []struct {
		name        string
		items       []domain.OrderItem
		wantAmount  int64
		wantTokens  int64
		wantErr     error
	}{
		{
			name:    "empty order rejected",
			items:   nil,
			wantErr: domain.ErrEmptyOrder,
		},
		{
			name: "missing product id rejected",
			items: []domain.OrderItem{
				{Quantity: 1, UnitPrice: 100},
			},
			wantErr: domain.ErrInvalidOrderItem,
		},
		{
			name: "zero quantity rejected",
			items: []domain.OrderItem{
				{ProductID: "p1", Quantity: 0, UnitPrice: 100},
			},
			wantErr: domain.ErrInvalidOrderItem,
		},
		{
			name: "negative price rejected",
			items: []domain.OrderItem{
				{ProductID: "p1", Quantity: 1, UnitPrice: -5},
			},
			wantErr: domain.ErrInvalidOrderItem,
		},
		{
			name: "totals computed across items",
			items: []domain.OrderItem{
				{ProductID: "p1", Quantity: 2, UnitPrice: 100, UnitTokenPrice: 10},
				{ProductID: "p2", Quantity: 3, UnitPrice: 50, UnitTokenPrice: 0},
			},
			wantAmount: 350,
			wantTokens: 20,
		},
		{
			name: "zero token price is valid",
			items: []domain.OrderItem{
				{ProductID: "p1", Quantity: 1, UnitPrice: 100},
			},
			wantAmount: 100,
			wantTokens: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, tokens, err := ValidateItems(tt.items)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantAmount, amount)
			assert.Equal(t, tt.wantTokens, tokens)
		})
	}
}

func TestLedgerService_CheckBalance(t *testing.T) {
	accountRepo := mocks.NewMockAccountRepository()
	wireBalance(accountRepo, 1, 40)
	svc := NewLedgerService(accountRepo, mocks.NewMockOrderRepository(), zap.NewNop())

	sufficient, shortfall, err := svc.CheckBalance(context.Background(), 1, 100)
	require.NoError(t, err)
	assert.False(t, sufficient)
	assert.Equal(t, int64(60), shortfall)

	sufficient, shortfall, err = svc.CheckBalance(context.Background(), 1, 40)
	require.NoError(t, err)
	assert.True(t, sufficient)
	assert.Zero(t, shortfall)
}

func TestLedgerService_PlaceOrder_Success(t *testing.T) {
	accountRepo := mocks.NewMockAccountRepository()
	fb := wireBalance(accountRepo, 1, 100)

	orderRepo := mocks.NewMockOrderRepository()
	var createdOrder *domain.Order
	orderRepo.CreateFunc = func(ctx context.Context, order *domain.Order) error {
		order.ID = 11
		createdOrder = order
		return nil
	}

	svc := NewLedgerService(accountRepo, orderRepo, zap.NewNop())

	order, delta, err := svc.PlaceOrder(context.Background(), 1, domain.PlaceOrderInput{
		Items: []domain.OrderItem{
			{ProductID: "p1", Quantity: 2, UnitPrice: 500, UnitTokenPrice: 30},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(40), fb.current())
	assert.Equal(t, domain.OrderPending, order.Status)
	assert.Equal(t, int64(60), order.TotalTokens)
	assert.Equal(t, int64(1000), order.TotalAmount)
	assert.NotEmpty(t, order.Number)
	assert.Equal(t, createdOrder.Number, order.Number)
	assert.Equal(t, &domain.LedgerDelta{Before: 100, After: 40, Spent: 60}, delta)
}

func TestLedgerService_PlaceOrder_InsufficientBalance(t *testing.T) {
	accountRepo := mocks.NewMockAccountRepository()
	fb := wireBalance(accountRepo, 1, 50)
	svc := NewLedgerService(accountRepo, mocks.NewMockOrderRepository(), zap.NewNop())

	_, _, err := svc.PlaceOrder(context.Background(), 1, domain.PlaceOrderInput{
		Items: []domain.OrderItem{
			{ProductID: "p1", Quantity: 1, UnitPrice: 500, UnitTokenPrice: 60},
		},
	})

	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.Equal(t, int64(50), fb.current(), "failed placement must not move the balance")
}

func TestLedgerService_PlaceOrder_CompensatesOnCreateFailure(t *testing.T) {
	accountRepo := mocks.NewMockAccountRepository()
	fb := wireBalance(accountRepo, 1, 100)

	orderRepo := mocks.NewMockOrderRepository()
	orderRepo.CreateFunc = func(ctx context.Context, order *domain.Order) error {
		return errors.New("record store write failed")
	}

	svc := NewLedgerService(accountRepo, orderRepo, zap.NewNop())

	_, _, err := svc.PlaceOrder(context.Background(), 1, domain.PlaceOrderInput{
		Items: []domain.OrderItem{
			{ProductID: "p1", Quantity: 1, UnitPrice: 500, UnitTokenPrice: 60},
		},
	})

	require.Error(t, err)
	// Round-trip law: deduct then refund restores the starting balance.
	assert.Equal(t, int64(100), fb.current())
}

func TestLedgerService_PlaceOrder_CompensationFailureIsFlagged(t *testing.T) {
	accountRepo := mocks.NewMockAccountRepository()

	// Deduct succeeds once, then every balance write fails: the refund
	// cannot land.
	calls := 0
	accountRepo.FindByIDFunc = func(ctx context.Context, id uint) (*domain.Account, error) {
		return &domain.Account{ID: 1, Status: domain.AccountActive, TokenBalance: 100, Version: int64(calls)}, nil
	}
	accountRepo.CompareAndSwapBalanceFunc = func(ctx context.Context, id uint, version, newBalance int64) error {
		calls++
		if calls == 1 {
			return nil
		}
		return domain.ErrRecordStoreUnavailable
	}

	orderRepo := mocks.NewMockOrderRepository()
	orderRepo.CreateFunc = func(ctx context.Context, order *domain.Order) error {
		return errors.New("record store write failed")
	}

	core, logs := observer.New(zap.WarnLevel)
	svc := NewLedgerService(accountRepo, orderRepo, zap.New(core))

	_, _, err := svc.PlaceOrder(context.Background(), 1, domain.PlaceOrderInput{
		Items: []domain.OrderItem{
			{ProductID: "p1", Quantity: 1, UnitPrice: 500, UnitTokenPrice: 60},
		},
	})

	require.Error(t, err)

	entries := logs.FilterMessage("ledger_compensation_failed").All()
	require.Len(t, entries, 1, "a failed refund must leave an operator-visible record")
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(60), fields["amount"])
	assert.Equal(t, true, fields["manual_reconciliation"])
	assert.NotEmpty(t, fields["order_number"])
}

func TestLedgerService_PlaceOrder_RetriesBalanceConflict(t *testing.T) {
	accountRepo := mocks.NewMockAccountRepository()
	fb := wireBalance(accountRepo, 1, 100)

	// First swap loses a race, the retry re-reads and succeeds.
	realCAS := accountRepo.CompareAndSwapBalanceFunc
	conflicted := false
	accountRepo.CompareAndSwapBalanceFunc = func(ctx context.Context, id uint, version, newBalance int64) error {
		if !conflicted {
			conflicted = true
			return domain.ErrBalanceConflict
		}
		return realCAS(ctx, id, version, newBalance)
	}

	svc := NewLedgerService(accountRepo, mocks.NewMockOrderRepository(), zap.NewNop())

	_, delta, err := svc.PlaceOrder(context.Background(), 1, domain.PlaceOrderInput{
		Items: []domain.OrderItem{
			{ProductID: "p1", Quantity: 1, UnitPrice: 500, UnitTokenPrice: 60},
		},
	})

	require.NoError(t, err)
	assert.True(t, conflicted)
	assert.Equal(t, int64(40), fb.current())
	assert.Equal(t, int64(60), delta.Spent)
}

func TestLedgerService_CancelOrder(t *testing.T) {
	pendingOrder := func() *domain.Order {
		return &domain.Order{
			ID:          11,
			Number:      "ORD-2026-TEST",
			AccountID:   1,
			TotalTokens: 60,
			Status:      domain.OrderPending,
		}
	}

	t.Run("pending order refunds and cancels", func(t *testing.T) {
		accountRepo := mocks.NewMockAccountRepository()
		fb := wireBalance(accountRepo, 1, 40)

		orderRepo := mocks.NewMockOrderRepository()
		orderRepo.FindByIDFunc = func(ctx context.Context, id uint) (*domain.Order, error) {
			return pendingOrder(), nil
		}
		claimed := false
		orderRepo.ClaimCancellationFunc = func(ctx context.Context, id uint) error {
			claimed = true
			return nil
		}

		svc := NewLedgerService(accountRepo, orderRepo, zap.NewNop())

		order, refund, err := svc.CancelOrder(context.Background(), 11, 1)

		require.NoError(t, err)
		assert.True(t, claimed)
		assert.Equal(t, int64(60), refund)
		assert.Equal(t, int64(100), fb.current())
		assert.Equal(t, domain.OrderCancelled, order.Status)
	})

	t.Run("concurrent cancels refund exactly once", func(t *testing.T) {
		accountRepo := mocks.NewMockAccountRepository()
		fb := wireBalance(accountRepo, 1, 40)

		// The claim behaves like the conditional UPDATE: first caller
		// wins, every later caller sees a no-longer-cancellable order.
		orderRepo := mocks.NewMockOrderRepository()
		orderRepo.FindByIDFunc = func(ctx context.Context, id uint) (*domain.Order, error) {
			return pendingOrder(), nil
		}
		var claimMu sync.Mutex
		claimed := false
		orderRepo.ClaimCancellationFunc = func(ctx context.Context, id uint) error {
			claimMu.Lock()
			defer claimMu.Unlock()
			if claimed {
				return domain.ErrOrderNotCancellable
			}
			claimed = true
			return nil
		}

		svc := NewLedgerService(accountRepo, orderRepo, zap.NewNop())

		results := make(chan error, 2)
		for i := 0; i < 2; i++ {
			go func() {
				_, _, err := svc.CancelOrder(context.Background(), 11, 1)
				results <- err
			}()
		}
		first, second := <-results, <-results

		succeeded := 0
		for _, err := range []error{first, second} {
			if err == nil {
				succeeded++
			} else {
				require.ErrorIs(t, err, domain.ErrOrderNotCancellable)
			}
		}
		assert.Equal(t, 1, succeeded, "exactly one cancel may win the claim")
		assert.Equal(t, int64(100), fb.current(), "losing cancel must not refund")
	})

	t.Run("shipped order is not cancellable", func(t *testing.T) {
		orderRepo := mocks.NewMockOrderRepository()
		orderRepo.FindByIDFunc = func(ctx context.Context, id uint) (*domain.Order, error) {
			o := pendingOrder()
			o.Status = domain.OrderShipped
			return o, nil
		}

		svc := NewLedgerService(mocks.NewMockAccountRepository(), orderRepo, zap.NewNop())

		_, _, err := svc.CancelOrder(context.Background(), 11, 1)

		require.ErrorIs(t, err, domain.ErrOrderNotCancellable)
	})

	t.Run("other account's order is forbidden", func(t *testing.T) {
		orderRepo := mocks.NewMockOrderRepository()
		orderRepo.FindByIDFunc = func(ctx context.Context, id uint) (*domain.Order, error) {
			return pendingOrder(), nil
		}

		svc := NewLedgerService(mocks.NewMockAccountRepository(), orderRepo, zap.NewNop())

		_, _, err := svc.CancelOrder(context.Background(), 11, 2)

		require.ErrorIs(t, err, domain.ErrOrderNotOwned)
	})
}
