package domain

import (
	"context"
	"time"
)

// AccountRepository defines account data access operations against the
// record store. The store's unique constraint on phone is the arbiter
// of duplicate-account creation; this core adds no locking of its own.
type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	FindByPhone(ctx context.Context, phone string) (*Account, error)
	FindByID(ctx context.Context, id uint) (*Account, error)
	UpdateRefreshRef(ctx context.Context, accountID uint, ref string) error
	// CompareAndSwapBalance writes newBalance only if the account's
	// version column still matches version; ErrBalanceConflict otherwise.
	CompareAndSwapBalance(ctx context.Context, accountID uint, version, newBalance int64) error
}

// OrderRepository defines order data access operations.
type OrderRepository interface {
	Create(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id uint) (*Order, error)
	// ClaimCancellation flips the order to cancelled only while its
	// current status still permits cancellation; ErrOrderNotCancellable
	// otherwise. The guard is a single conditional write, so exactly one
	// of any concurrent cancellations wins the claim.
	ClaimCancellation(ctx context.Context, id uint) error
}

// ChallengeStore holds outstanding OTP challenges keyed by phone number.
type ChallengeStore interface {
	// Issue generates and persists a challenge, returning the plaintext
	// code for delivery. ErrChallengeCooldown while a recent challenge
	// is outstanding.
	Issue(ctx context.Context, phone string) (*OTPChallenge, error)
	// Verify consumes the challenge on success (one-time use) and leaves
	// it in place on mismatch. challengeID may be empty, in which case
	// lookup falls back to phone alone; the cooldown window guarantees
	// at most one outstanding challenge per phone, which is what makes
	// that fallback unambiguous.
	Verify(ctx context.Context, phone, code, challengeID string) error
	// Delete removes an outstanding challenge, used to roll back an
	// issued challenge whose SMS delivery failed.
	Delete(ctx context.Context, phone string) error
}

// TokenService signs and verifies bearer tokens.
type TokenService interface {
	IssueAccessToken(account *Account) (string, error)
	IssueRefreshToken(accountID uint) (string, error)
	VerifyAccessToken(token string) (*TokenClaims, error)
	VerifyRefreshToken(token string) (*TokenClaims, error)
}

// RevocationRegistry records blacklisted tokens until their natural expiry.
type RevocationRegistry interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// RateLimiter bounds repeated operations per key within a window.
type RateLimiter interface {
	// Allow reports whether another attempt is permitted, and when not,
	// how long the caller must wait.
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
}

// NotificationService defines outbound messaging operations.
type NotificationService interface {
	SendSMS(to, message string) error
}

// SessionEventSink receives best-effort notifications about session
// lifecycle events for any coupled external session system. Failures
// must never block the triggering request.
type SessionEventSink interface {
	LoggedOut(accountID uint)
}

// SessionService orchestrates the OTP login lifecycle.
type SessionService interface {
	SendOTP(ctx context.Context, phone string) (challengeID string, err error)
	VerifyOTP(ctx context.Context, phone, code, challengeID string) (*AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (accessToken string, err error)
	Logout(ctx context.Context, accessToken string, account *Account) error
	ValidateToken(ctx context.Context, token string) (*TokenClaims, error)
}

// PlaceOrderInput is the payload for placing an order.
type PlaceOrderInput struct {
	Items             []OrderItem
	ShippingAddressID string
	Notes             string
}

// LedgerService runs the balance ledger saga: validate, check balance,
// deduct, create order, compensate on failure.
type LedgerService interface {
	PlaceOrder(ctx context.Context, accountID uint, input PlaceOrderInput) (*Order, *LedgerDelta, error)
	CancelOrder(ctx context.Context, orderID, accountID uint) (*Order, int64, error)
	CheckBalance(ctx context.Context, accountID uint, required int64) (sufficient bool, shortfall int64, err error)
	GetOrder(ctx context.Context, orderID, accountID uint) (*Order, error)
}
