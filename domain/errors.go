package domain

import "errors"

// Validation errors (400, never retried)
var (
	ErrInvalidPhone     = errors.New("invalid phone number")
	ErrEmptyOrder       = errors.New("order has no items")
	ErrInvalidOrderItem = errors.New("invalid order item")
)

// OTP challenge errors
var (
	ErrChallengeCooldown = errors.New("challenge cooldown in effect")
	ErrChallengeInvalid  = errors.New("invalid or expired challenge code")
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrOTPRateLimited    = errors.New("otp request limit exceeded")
)

// Token errors
var (
	ErrTokenInvalid    = errors.New("invalid token")
	ErrTokenExpired    = errors.New("token has expired")
	ErrTokenWrongClass = errors.New("token class not valid for this operation")
	ErrTokenRevoked    = errors.New("token has been revoked")
	ErrRefreshRevoked  = errors.New("refresh token has been revoked")
)

// Account errors
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountBlocked  = errors.New("account is blocked")
	ErrModuleDisabled  = errors.New("module not enabled for account")
)

// Ledger and order errors
var (
	ErrInsufficientBalance = errors.New("insufficient token balance")
	ErrBalanceConflict     = errors.New("balance version conflict")
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderNotOwned       = errors.New("order belongs to a different account")
	ErrOrderNotCancellable = errors.New("order can no longer be cancelled")
)

// Upstream errors (record store or revocation registry unreachable;
// the only class eligible for retry)
var (
	ErrRecordStoreUnavailable    = errors.New("record store unavailable")
	ErrRegistryUnavailable       = errors.New("revocation registry unavailable")
	ErrChallengeStoreUnavailable = errors.New("challenge store unavailable")
)
