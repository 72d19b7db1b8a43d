package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/you/shopcore/domain"
)

// Context keys set by the access gate for downstream handlers.
const (
	CtxAccount     = "account"
	CtxClaims      = "claims"
	CtxBearerToken = "bearer_token"
)

// AuthMiddleware is the per-request access gate: bearer extraction,
// token verification, revocation check, account load and block check.
// Every check short-circuits with no side effects.
func AuthMiddleware(tokenSvc domain.TokenService, revocations domain.RevocationRegistry, accountRepo domain.AccountRepository) gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		tokenParts := strings.SplitN(authHeader, " ", 2)
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		token := tokenParts[1]

		claims, err := tokenSvc.VerifyAccessToken(token)
		if err != nil {
			switch err {
			case domain.ErrTokenExpired:
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
			default:
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			}
			c.Abort()
			return
		}

		// Fails open when the registry is unreachable unless the
		// deployment opted into fail-closed; see RevocationRegistry.
		revoked, err := revocations.IsRevoked(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token validation failed"})
			c.Abort()
			return
		}
		if revoked {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Token revoked"})
			c.Abort()
			return
		}

		account, err := accountRepo.FindByID(c.Request.Context(), claims.AccountID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found"})
			c.Abort()
			return
		}

		if account.IsBlocked() {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is blocked"})
			c.Abort()
			return
		}

		c.Set(CtxAccount, account)
		c.Set(CtxClaims, claims)
		c.Set(CtxBearerToken, token)

		c.Next()
	})
}

// AccountFromContext returns the account attached by the access gate.
func AccountFromContext(c *gin.Context) (*domain.Account, bool) {
	v, ok := c.Get(CtxAccount)
	if !ok {
		return nil, false
	}
	account, ok := v.(*domain.Account)
	return account, ok
}
