package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/you/shopcore/domain"
)

// AuthMW wraps the access-gate dependencies for router wiring.
type AuthMW struct {
	tokenSvc    domain.TokenService
	revocations domain.RevocationRegistry
	accountRepo domain.AccountRepository
}

// NewAuthMW creates a new access-gate middleware wrapper.
func NewAuthMW(tokenSvc domain.TokenService, revocations domain.RevocationRegistry, accountRepo domain.AccountRepository) *AuthMW {
	return &AuthMW{
		tokenSvc:    tokenSvc,
		revocations: revocations,
		accountRepo: accountRepo,
	}
}

// WithJWT returns the access-gate middleware function.
func (mw *AuthMW) WithJWT() gin.HandlerFunc {
	return AuthMiddleware(mw.tokenSvc, mw.revocations, mw.accountRepo)
}
