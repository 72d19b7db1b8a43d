package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/you/shopcore/domain"
	"github.com/you/shopcore/internal/http/middleware"
)

// AuthHandlers handles session lifecycle HTTP requests.
type AuthHandlers struct {
	sessionSvc domain.SessionService
}

// NewAuthHandlers creates new auth handlers.
func NewAuthHandlers(sessionSvc domain.SessionService) *AuthHandlers {
	return &AuthHandlers{sessionSvc: sessionSvc}
}

// SendOTPRequest represents an OTP challenge request.
type SendOTPRequest struct {
	Phone string `json:"phone" binding:"required"`
}

// VerifyOTPRequest represents an OTP verification request. SessionID is
// the challenge id returned by send-otp and may be omitted.
type VerifyOTPRequest struct {
	Phone     string `json:"phone" binding:"required"`
	Code      string `json:"code" binding:"required"`
	SessionID string `json:"session_id,omitempty"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ValidateTokenRequest represents a token introspection request.
type ValidateTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// SendOTP handles POST /auth/send-otp.
func (h *AuthHandlers) SendOTP(c *gin.Context) {
	var req SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	challengeID, err := h.sessionSvc.SendOTP(c.Request.Context(), req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidPhone):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid phone number"})
		case errors.Is(err, domain.ErrChallengeCooldown):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Please wait before requesting another code"})
		case errors.Is(err, domain.ErrOTPRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many OTP requests, try again later"})
		case errors.Is(err, domain.ErrChallengeStoreUnavailable), errors.Is(err, domain.ErrRecordStoreUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Service temporarily unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send OTP"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{"session_id": challengeID},
	})
}

// VerifyOTP handles POST /auth/verify-otp.
func (h *AuthHandlers) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.sessionSvc.VerifyOTP(c.Request.Context(), req.Phone, req.Code, req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrChallengeInvalid), errors.Is(err, domain.ErrChallengeNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired code"})
		case errors.Is(err, domain.ErrAccountBlocked):
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is blocked"})
		case errors.Is(err, domain.ErrRecordStoreUnavailable), errors.Is(err, domain.ErrChallengeStoreUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Service temporarily unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Verification failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"access_token":  result.AccessToken,
			"refresh_token": result.RefreshToken,
			"token_type":    "Bearer",
			"expires_in":    result.ExpiresIn,
			"account":       accountView(result.Account),
		},
	})
}

// Refresh handles POST /auth/refresh-token.
func (h *AuthHandlers) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	accessToken, err := h.sessionSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRefreshRevoked):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token has been revoked"})
		case errors.Is(err, domain.ErrTokenExpired), errors.Is(err, domain.ErrTokenInvalid),
			errors.Is(err, domain.ErrTokenWrongClass), errors.Is(err, domain.ErrAccountNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
		case errors.Is(err, domain.ErrAccountBlocked):
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is blocked"})
		case errors.Is(err, domain.ErrRecordStoreUnavailable):
			c.JSON(http.StatusBadGateway, gin.H{"error": "Service temporarily unavailable"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Token refresh failed"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"access_token": accessToken,
			"token_type":   "Bearer",
		},
	})
}

// ValidateToken handles POST /auth/validate-token. Invalid tokens are a
// 200 with valid=false; this is introspection, not a guard.
func (h *AuthHandlers) ValidateToken(c *gin.Context) {
	var req ValidateTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, err := h.sessionSvc.ValidateToken(c.Request.Context(), req.Token)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"valid": false}})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"valid":      true,
			"account_id": claims.AccountID,
			"modules":    claims.Modules,
			"expires_at": claims.ExpiresAt,
		},
	})
}

// Logout handles POST /auth/logout (requires authentication).
func (h *AuthHandlers) Logout(c *gin.Context) {
	account, ok := middleware.AccountFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found in context"})
		return
	}

	token := c.GetString(middleware.CtxBearerToken)

	if err := h.sessionSvc.Logout(c.Request.Context(), token, account); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Logout failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{"message": "Logged out successfully"},
	})
}

// Me handles GET /auth/me (requires authentication).
func (h *AuthHandlers) Me(c *gin.Context) {
	account, ok := middleware.AccountFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Account not found in context"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": accountView(account)})
}

// accountView is the externally visible shape of an account. The
// refresh token reference never leaves the service.
func accountView(account *domain.Account) gin.H {
	return gin.H{
		"id":            account.ID,
		"phone":         account.Phone,
		"status":        account.Status,
		"modules":       account.Modules,
		"token_balance": account.TokenBalance,
		"created_at":    account.CreatedAt,
	}
}
