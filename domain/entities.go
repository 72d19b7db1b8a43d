package domain

import "time"

// Account statuses. Blocked accounts keep their records but cannot
// log in, refresh tokens, or place orders.
const (
	AccountActive  = "active"
	AccountBlocked = "blocked"
)

// Module identifiers controlling which parts of the API an account may use.
const (
	ModuleOrders = "orders"
	ModuleWallet = "wallet"
)

// DefaultModules is the enablement set granted to newly created accounts.
var DefaultModules = []string{ModuleOrders, ModuleWallet}

// Account represents a customer account keyed by phone number.
// TokenBalance is a non-monetary credit balance and must never go
// negative; Version is bumped on every balance write and backs the
// compare-and-swap updates in the ledger.
type Account struct {
	ID              uint
	Phone           string
	Status          string
	Modules         []string
	TokenBalance    int64
	Version         int64
	ExternalRef     string
	RefreshTokenRef string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsBlocked reports whether the account is barred from authenticated use.
func (a *Account) IsBlocked() bool {
	return a.Status == AccountBlocked
}

// HasModule reports whether the given module is enabled for the account.
func (a *Account) HasModule(module string) bool {
	for _, m := range a.Modules {
		if m == module {
			return true
		}
	}
	return false
}

// OTPChallenge is an outstanding one-time passcode for a phone number.
// Code carries the plaintext only between generation and SMS delivery;
// at rest only CodeHash is stored.
type OTPChallenge struct {
	ID        string
	Phone     string
	Code      string
	CodeHash  string
	CreatedAt time.Time
}

// Token class discriminators carried in the token_type claim.
const (
	TokenClassAccess  = "access"
	TokenClassRefresh = "refresh"
)

// TokenClaims are the verified contents of a signed bearer token.
type TokenClaims struct {
	AccountID   uint     `json:"account_id"`
	ExternalRef string   `json:"external_ref,omitempty"`
	Modules     []string `json:"modules,omitempty"`
	Blocked     bool     `json:"blocked"`
	TokenType   string   `json:"token_type"`
	IssuedAt    int64    `json:"iat"`
	ExpiresAt   int64    `json:"exp"`
}

// AuthResult is the outcome of a successful OTP verification.
type AuthResult struct {
	Account      *Account
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// OrderStatus describes where an order is in its lifecycle.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
	OrderRefunded   OrderStatus = "refunded"
)

// Cancellable reports whether an order in this status may still be
// cancelled by the account that placed it.
func (s OrderStatus) Cancellable() bool {
	switch s {
	case OrderShipped, OrderDelivered, OrderCancelled, OrderRefunded:
		return false
	}
	return true
}

// OrderItem is a single line item on an order. UnitPrice is in whole
// rupees; UnitTokenPrice may be zero for items that cost no tokens.
type OrderItem struct {
	ProductID      string
	Quantity       int
	UnitPrice      int64
	UnitTokenPrice int64
}

// Order is a placed order. TotalTokens is the amount deducted from the
// account's token balance when the order was created, and the amount
// refunded on cancellation or compensation.
type Order struct {
	ID                uint
	Number            string
	AccountID         uint
	Items             []OrderItem
	TotalAmount       int64
	TotalTokens       int64
	Status            OrderStatus
	ShippingAddressID string
	Notes             string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// LedgerDelta records the balance movement caused by a ledger operation.
type LedgerDelta struct {
	Before int64 `json:"before"`
	After  int64 `json:"after"`
	Spent  int64 `json:"spent"`
}
