package mocks

import (
	"context"
	"time"

	"github.com/you/shopcore/domain"
)

// MockRevocationRegistry implements domain.RevocationRegistry for testing.
type MockRevocationRegistry struct {
	RevokeFunc    func(ctx context.Context, token string, expiresAt time.Time) error
	IsRevokedFunc func(ctx context.Context, token string) (bool, error)
}

// NewMockRevocationRegistry creates a new MockRevocationRegistry with default behaviors.
func NewMockRevocationRegistry() *MockRevocationRegistry {
	return &MockRevocationRegistry{}
}

// Revoke records a token as revoked until its natural expiry.
func (m *MockRevocationRegistry) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	if m.RevokeFunc != nil {
		return m.RevokeFunc(ctx, token, expiresAt)
	}
	// Default behavior: success
	return nil
}

// IsRevoked reports whether a token has been revoked.
func (m *MockRevocationRegistry) IsRevoked(ctx context.Context, token string) (bool, error) {
	if m.IsRevokedFunc != nil {
		return m.IsRevokedFunc(ctx, token)
	}
	// Default behavior: not revoked
	return false, nil
}

// Compile-time interface compliance verification
var _ domain.RevocationRegistry = (*MockRevocationRegistry)(nil)
