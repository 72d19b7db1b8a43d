package mocks

import (
	"context"

	"github.com/you/shopcore/domain"
)

// MockSessionService implements domain.SessionService for testing handlers.
type MockSessionService struct {
	SendOTPFunc       func(ctx context.Context, phone string) (string, error)
	VerifyOTPFunc     func(ctx context.Context, phone, code, challengeID string) (*domain.AuthResult, error)
	RefreshFunc       func(ctx context.Context, refreshToken string) (string, error)
	LogoutFunc        func(ctx context.Context, accessToken string, account *domain.Account) error
	ValidateTokenFunc func(ctx context.Context, token string) (*domain.TokenClaims, error)
}

// NewMockSessionService creates a new MockSessionService with default behaviors.
func NewMockSessionService() *MockSessionService {
	return &MockSessionService{}
}

// SendOTP issues a challenge for the phone.
func (m *MockSessionService) SendOTP(ctx context.Context, phone string) (string, error) {
	if m.SendOTPFunc != nil {
		return m.SendOTPFunc(ctx, phone)
	}
	// Default behavior: fixed challenge id
	return "challenge-1", nil
}

// VerifyOTP verifies the challenge and logs the account in.
func (m *MockSessionService) VerifyOTP(ctx context.Context, phone, code, challengeID string) (*domain.AuthResult, error) {
	if m.VerifyOTPFunc != nil {
		return m.VerifyOTPFunc(ctx, phone, code, challengeID)
	}
	// Default behavior: auth failure
	return nil, domain.ErrChallengeInvalid
}

// Refresh exchanges a refresh token for a new access token.
func (m *MockSessionService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, refreshToken)
	}
	// Default behavior: invalid
	return "", domain.ErrTokenInvalid
}

// Logout revokes the session's tokens.
func (m *MockSessionService) Logout(ctx context.Context, accessToken string, account *domain.Account) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, accessToken, account)
	}
	// Default behavior: success
	return nil
}

// ValidateToken introspects an access token.
func (m *MockSessionService) ValidateToken(ctx context.Context, token string) (*domain.TokenClaims, error) {
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(ctx, token)
	}
	// Default behavior: invalid
	return nil, domain.ErrTokenInvalid
}

// Compile-time interface compliance verification
var _ domain.SessionService = (*MockSessionService)(nil)
