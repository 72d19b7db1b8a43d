package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/you/shopcore/domain"
)

// JWTServiceImpl implements domain.TokenService using HS256 with a
// shared symmetric secret. Refresh tokens carry token_type=refresh and
// are rejected by VerifyAccessToken (and vice versa).
type JWTServiceImpl struct {
	secretKey       []byte
	issuer          string
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
	now             func() time.Time
}

// NewJWTService creates a new JWT token service.
func NewJWTService(secretKey, issuer string, accessTTL, refreshTTL time.Duration) *JWTServiceImpl {
	return &JWTServiceImpl{
		secretKey:       []byte(secretKey),
		issuer:          issuer,
		accessTokenTTL:  accessTTL,
		refreshTokenTTL: refreshTTL,
		now:             time.Now,
	}
}

// WithClock overrides the service clock, for tests.
func (j *JWTServiceImpl) WithClock(now func() time.Time) *JWTServiceImpl {
	j.now = now
	return j
}

// generateJTI creates a unique JWT ID so repeated issuance for the same
// account never yields byte-identical tokens.
func (j *JWTServiceImpl) generateJTI() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate token id: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// IssueAccessToken implements domain.TokenService.
func (j *JWTServiceImpl) IssueAccessToken(account *domain.Account) (string, error) {
	jti, err := j.generateJTI()
	if err != nil {
		return "", err
	}

	now := j.now()
	claims := jwt.MapClaims{
		"account_id":   account.ID,
		"external_ref": account.ExternalRef,
		"modules":      account.Modules,
		"blocked":      account.IsBlocked(),
		"token_type":   domain.TokenClassAccess,
		"iss":          j.issuer,
		"iat":          now.Unix(),
		"exp":          now.Add(j.accessTokenTTL).Unix(),
		"jti":          jti,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secretKey)
}

// IssueRefreshToken implements domain.TokenService.
func (j *JWTServiceImpl) IssueRefreshToken(accountID uint) (string, error) {
	jti, err := j.generateJTI()
	if err != nil {
		return "", err
	}

	now := j.now()
	claims := jwt.MapClaims{
		"account_id": accountID,
		"token_type": domain.TokenClassRefresh,
		"iss":        j.issuer,
		"iat":        now.Unix(),
		"exp":        now.Add(j.refreshTokenTTL).Unix(),
		"jti":        jti,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secretKey)
}

// VerifyAccessToken implements domain.TokenService.
func (j *JWTServiceImpl) VerifyAccessToken(tokenString string) (*domain.TokenClaims, error) {
	return j.verifyToken(tokenString, domain.TokenClassAccess)
}

// VerifyRefreshToken implements domain.TokenService.
func (j *JWTServiceImpl) VerifyRefreshToken(tokenString string) (*domain.TokenClaims, error) {
	return j.verifyToken(tokenString, domain.TokenClassRefresh)
}

// verifyToken validates signature and expiry, then enforces the token
// class discriminator. A well-signed refresh token presented where an
// access token is expected is an explicit ErrTokenWrongClass, never a
// silent accept.
func (j *JWTServiceImpl) verifyToken(tokenString, wantClass string) (*domain.TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrTokenInvalid
		}
		return j.secretKey, nil
	}, jwt.WithTimeFunc(j.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}
	if !token.Valid {
		return nil, domain.ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrTokenInvalid
	}

	tokenClaims, err := mapClaims(claims)
	if err != nil {
		return nil, err
	}

	if tokenClaims.TokenType != wantClass {
		return nil, domain.ErrTokenWrongClass
	}

	return tokenClaims, nil
}

// mapClaims extracts typed claims from the decoded claim map.
func mapClaims(claims jwt.MapClaims) (*domain.TokenClaims, error) {
	accountID, ok := claims["account_id"].(float64)
	if !ok {
		return nil, domain.ErrTokenInvalid
	}

	tokenType, ok := claims["token_type"].(string)
	if !ok {
		return nil, domain.ErrTokenInvalid
	}

	iat, ok := claims["iat"].(float64)
	if !ok {
		return nil, domain.ErrTokenInvalid
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, domain.ErrTokenInvalid
	}

	tokenClaims := &domain.TokenClaims{
		AccountID: uint(accountID),
		TokenType: tokenType,
		IssuedAt:  int64(iat),
		ExpiresAt: int64(exp),
	}

	if ref, ok := claims["external_ref"].(string); ok {
		tokenClaims.ExternalRef = ref
	}
	if blocked, ok := claims["blocked"].(bool); ok {
		tokenClaims.Blocked = blocked
	}
	if raw, ok := claims["modules"].([]interface{}); ok {
		for _, m := range raw {
			if s, ok := m.(string); ok {
				tokenClaims.Modules = append(tokenClaims.Modules, s)
			}
		}
	}

	return tokenClaims, nil
}

var _ domain.TokenService = (*JWTServiceImpl)(nil)
