package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/you/shopcore/domain"
)

// balanceRetries bounds the compare-and-swap retry loop for a single
// balance adjustment. A conflict means another writer landed between
// our read and write; re-reading and retrying converges quickly.
const balanceRetries = 3

// LedgerServiceImpl implements domain.LedgerService. The saga runs
// Validated -> BalanceChecked -> TokensDeducted -> OrderCreated, and on
// a failed order creation compensates the deduction with a refund.
type LedgerServiceImpl struct {
	accountRepo domain.AccountRepository
	orderRepo   domain.OrderRepository
	logger      *zap.Logger
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(accountRepo domain.AccountRepository, orderRepo domain.OrderRepository, logger *zap.Logger) *LedgerServiceImpl {
	return &LedgerServiceImpl{
		accountRepo: accountRepo,
		orderRepo:   orderRepo,
		logger:      logger,
	}
}

// ValidateItems rejects empty orders and malformed line items, and
// computes the order totals. A zero token price is valid; such items
// cost rupees only.
func ValidateItems(items []domain.OrderItem) (totalAmount, totalTokens int64, err error) {
	if len(items) == 0 {
		return 0, 0, domain.ErrEmptyOrder
	}

	for _, item := range items {
		if item.ProductID == "" {
			return 0, 0, fmt.Errorf("%w: missing product id", domain.ErrInvalidOrderItem)
		}
		if item.Quantity < 1 {
			return 0, 0, fmt.Errorf("%w: quantity must be at least 1", domain.ErrInvalidOrderItem)
		}
		if item.UnitPrice < 0 || item.UnitTokenPrice < 0 {
			return 0, 0, fmt.Errorf("%w: negative price", domain.ErrInvalidOrderItem)
		}
		totalAmount += item.UnitPrice * int64(item.Quantity)
		totalTokens += item.UnitTokenPrice * int64(item.Quantity)
	}

	return totalAmount, totalTokens, nil
}

// CheckBalance implements domain.LedgerService.
func (s *LedgerServiceImpl) CheckBalance(ctx context.Context, accountID uint, required int64) (bool, int64, error) {
	account, err := s.accountRepo.FindByID(ctx, accountID)
	if err != nil {
		return false, 0, err
	}

	if account.TokenBalance < required {
		return false, required - account.TokenBalance, nil
	}
	return true, 0, nil
}

// adjustBalance applies delta to the account balance through the
// version-stamped compare-and-swap, re-reading on every attempt so a
// concurrent writer can never be overwritten with stale state. A
// negative delta re-verifies sufficiency inside each attempt.
func (s *LedgerServiceImpl) adjustBalance(ctx context.Context, accountID uint, delta int64) (before, after int64, err error) {
	for attempt := 0; attempt < balanceRetries; attempt++ {
		account, err := s.accountRepo.FindByID(ctx, accountID)
		if err != nil {
			return 0, 0, err
		}

		newBalance := account.TokenBalance + delta
		if newBalance < 0 {
			return account.TokenBalance, account.TokenBalance, domain.ErrInsufficientBalance
		}

		err = s.accountRepo.CompareAndSwapBalance(ctx, accountID, account.Version, newBalance)
		if errors.Is(err, domain.ErrBalanceConflict) {
			continue
		}
		if err != nil {
			return 0, 0, err
		}
		return account.TokenBalance, newBalance, nil
	}

	return 0, 0, domain.ErrBalanceConflict
}

// PlaceOrder implements domain.LedgerService.
func (s *LedgerServiceImpl) PlaceOrder(ctx context.Context, accountID uint, input domain.PlaceOrderInput) (*domain.Order, *domain.LedgerDelta, error) {
	totalAmount, totalTokens, err := ValidateItems(input.Items)
	if err != nil {
		return nil, nil, err
	}

	if totalTokens > 0 {
		if sufficient, _, err := s.CheckBalance(ctx, accountID, totalTokens); err != nil {
			return nil, nil, err
		} else if !sufficient {
			return nil, nil, domain.ErrInsufficientBalance
		}
	}

	var before, after int64
	if totalTokens > 0 {
		before, after, err = s.adjustBalance(ctx, accountID, -totalTokens)
		if err != nil {
			return nil, nil, err
		}
	}

	order := &domain.Order{
		Number:      newOrderNumber(),
		AccountID:   accountID,
		Items:       input.Items,
		TotalAmount: totalAmount,
		TotalTokens: totalTokens,
		Status:      domain.OrderPending,

		ShippingAddressID: input.ShippingAddressID,
		Notes:             input.Notes,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		if totalTokens > 0 {
			s.compensate(ctx, accountID, totalTokens, order.Number)
		}
		return nil, nil, err
	}

	s.logger.Info("order_placed",
		zap.Uint("account_id", accountID),
		zap.String("order_number", order.Number),
		zap.Int64("tokens_reserved", totalTokens),
		zap.Int64("total_amount", totalAmount))

	return order, &domain.LedgerDelta{Before: before, After: after, Spent: totalTokens}, nil
}

// compensate refunds a deduction whose order never materialized. A
// failed refund leaves tokens in limbo, so it is flagged for manual
// reconciliation rather than silently dropped.
func (s *LedgerServiceImpl) compensate(ctx context.Context, accountID uint, amount int64, orderNumber string) {
	if _, _, err := s.adjustBalance(ctx, accountID, amount); err != nil {
		s.logger.Error("ledger_compensation_failed",
			zap.Uint("account_id", accountID),
			zap.Int64("amount", amount),
			zap.String("order_number", orderNumber),
			zap.Bool("manual_reconciliation", true),
			zap.Error(err))
		return
	}

	s.logger.Warn("ledger_compensated",
		zap.Uint("account_id", accountID),
		zap.Int64("amount", amount),
		zap.String("order_number", orderNumber))
}

// CancelOrder implements domain.LedgerService. The cancellation claim
// is a guarded status write, so of two concurrent cancels exactly one
// wins the claim and refunds; the loser sees ErrOrderNotCancellable and
// no tokens are minted.
func (s *LedgerServiceImpl) CancelOrder(ctx context.Context, orderID, accountID uint) (*domain.Order, int64, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, 0, err
	}

	if order.AccountID != accountID {
		return nil, 0, domain.ErrOrderNotOwned
	}

	if !order.Status.Cancellable() {
		return nil, 0, domain.ErrOrderNotCancellable
	}

	if err := s.orderRepo.ClaimCancellation(ctx, orderID); err != nil {
		return nil, 0, err
	}

	refund := order.TotalTokens
	if refund > 0 {
		if _, _, err := s.adjustBalance(ctx, accountID, refund); err != nil {
			// The order is cancelled but its tokens are still held; flag
			// it the same way as a placement compensation failure.
			s.logger.Error("order_cancel_incomplete",
				zap.Uint("account_id", accountID),
				zap.Int64("amount", refund),
				zap.String("order_number", order.Number),
				zap.Bool("manual_reconciliation", true),
				zap.Error(err))
			return nil, 0, err
		}
	}

	order.Status = domain.OrderCancelled

	s.logger.Info("order_cancelled",
		zap.Uint("account_id", accountID),
		zap.String("order_number", order.Number),
		zap.Int64("tokens_refunded", refund))

	return order, refund, nil
}

// GetOrder implements domain.LedgerService.
func (s *LedgerServiceImpl) GetOrder(ctx context.Context, orderID, accountID uint) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.AccountID != accountID {
		return nil, domain.ErrOrderNotOwned
	}
	return order, nil
}

// newOrderNumber generates a unique, human-readable order number.
func newOrderNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:10]
	return fmt.Sprintf("ORD-%d-%s", time.Now().UTC().Year(), suffix)
}

var _ domain.LedgerService = (*LedgerServiceImpl)(nil)
