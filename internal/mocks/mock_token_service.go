package mocks

import (
	"github.com/you/shopcore/domain"
)

// MockTokenService implements domain.TokenService for testing.
type MockTokenService struct {
	IssueAccessTokenFunc   func(account *domain.Account) (string, error)
	IssueRefreshTokenFunc  func(accountID uint) (string, error)
	VerifyAccessTokenFunc  func(token string) (*domain.TokenClaims, error)
	VerifyRefreshTokenFunc func(token string) (*domain.TokenClaims, error)
}

// NewMockTokenService creates a new MockTokenService with default behaviors.
func NewMockTokenService() *MockTokenService {
	return &MockTokenService{}
}

// IssueAccessToken issues a signed access token.
func (m *MockTokenService) IssueAccessToken(account *domain.Account) (string, error) {
	if m.IssueAccessTokenFunc != nil {
		return m.IssueAccessTokenFunc(account)
	}
	// Default behavior: fixed token
	return "access-token", nil
}

// IssueRefreshToken issues a signed refresh token.
func (m *MockTokenService) IssueRefreshToken(accountID uint) (string, error) {
	if m.IssueRefreshTokenFunc != nil {
		return m.IssueRefreshTokenFunc(accountID)
	}
	// Default behavior: fixed token
	return "refresh-token", nil
}

// VerifyAccessToken verifies an access token.
func (m *MockTokenService) VerifyAccessToken(token string) (*domain.TokenClaims, error) {
	if m.VerifyAccessTokenFunc != nil {
		return m.VerifyAccessTokenFunc(token)
	}
	// Default behavior: invalid
	return nil, domain.ErrTokenInvalid
}

// VerifyRefreshToken verifies a refresh token.
func (m *MockTokenService) VerifyRefreshToken(token string) (*domain.TokenClaims, error) {
	if m.VerifyRefreshTokenFunc != nil {
		return m.VerifyRefreshTokenFunc(token)
	}
	// Default behavior: invalid
	return nil, domain.ErrTokenInvalid
}

// Compile-time interface compliance verification
var _ domain.TokenService = (*MockTokenService)(nil)
