package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/you/shopcore/domain"
)

// Phone numbers are 10 digits with a leading 6-9 (Indian mobile plan).
var phonePattern = regexp.MustCompile(`^[6-9][0-9]{9}$`)

// SessionServiceImpl implements domain.SessionService. A login attempt
// moves ChallengeSent -> Verified -> AccountResolved -> TokensIssued;
// each step delegates to an injected collaborator, so the service holds
// no state of its own between requests.
type SessionServiceImpl struct {
	accountRepo     domain.AccountRepository
	challenges      domain.ChallengeStore
	tokenSvc        domain.TokenService
	revocations     domain.RevocationRegistry
	notificationSvc domain.NotificationService
	sendLimiter     domain.RateLimiter
	events          domain.SessionEventSink
	accessTTL       time.Duration
	logger          *zap.Logger
}

// NewSessionService creates a new session service.
func NewSessionService(
	accountRepo domain.AccountRepository,
	challenges domain.ChallengeStore,
	tokenSvc domain.TokenService,
	revocations domain.RevocationRegistry,
	notificationSvc domain.NotificationService,
	sendLimiter domain.RateLimiter,
	events domain.SessionEventSink,
	accessTTL time.Duration,
	logger *zap.Logger,
) *SessionServiceImpl {
	return &SessionServiceImpl{
		accountRepo:     accountRepo,
		challenges:      challenges,
		tokenSvc:        tokenSvc,
		revocations:     revocations,
		notificationSvc: notificationSvc,
		sendLimiter:     sendLimiter,
		events:          events,
		accessTTL:       accessTTL,
		logger:          logger,
	}
}

// SendOTP implements domain.SessionService. The per-phone rate limit is
// stricter than the challenge store's cooldown and applies on top of it.
func (s *SessionServiceImpl) SendOTP(ctx context.Context, phone string) (string, error) {
	if !phonePattern.MatchString(phone) {
		return "", domain.ErrInvalidPhone
	}

	allowed, _, err := s.sendLimiter.Allow(ctx, phone)
	if err != nil {
		return "", fmt.Errorf("otp rate check: %w", err)
	}
	if !allowed {
		return "", domain.ErrOTPRateLimited
	}

	challenge, err := s.challenges.Issue(ctx, phone)
	if err != nil {
		return "", err
	}

	message := fmt.Sprintf("Your verification code is %s. Do not share it with anyone.", challenge.Code)
	if err := s.notificationSvc.SendSMS(phone, message); err != nil {
		// The user never received the code; an undeliverable challenge
		// must not stay replayable.
		if delErr := s.challenges.Delete(ctx, phone); delErr != nil {
			s.logger.Error("challenge_rollback_failed", zap.String("phone", phone), zap.Error(delErr))
		}
		return "", fmt.Errorf("failed to deliver OTP: %w", err)
	}

	return challenge.ID, nil
}

// VerifyOTP implements domain.SessionService. On a verified challenge
// the account is resolved (created on first login) and a token pair is
// issued; a failed challenge touches no account state.
func (s *SessionServiceImpl) VerifyOTP(ctx context.Context, phone, code, challengeID string) (*domain.AuthResult, error) {
	if err := s.challenges.Verify(ctx, phone, code, challengeID); err != nil {
		return nil, err
	}

	account, err := s.resolveAccount(ctx, phone)
	if err != nil {
		return nil, err
	}

	if account.IsBlocked() {
		return nil, domain.ErrAccountBlocked
	}

	return s.issueTokens(ctx, account)
}

// resolveAccount looks up the account by phone, creating it with the
// default module set on first login. Creation races resolve at the
// record store's unique phone constraint, so a retry simply finds the
// row the winner inserted.
func (s *SessionServiceImpl) resolveAccount(ctx context.Context, phone string) (*domain.Account, error) {
	account, err := s.accountRepo.FindByPhone(ctx, phone)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}

	account = &domain.Account{
		Phone:   phone,
		Status:  domain.AccountActive,
		Modules: domain.DefaultModules,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		// Possibly lost a creation race; the unique index means the
		// account now exists either way.
		if existing, findErr := s.accountRepo.FindByPhone(ctx, phone); findErr == nil {
			return existing, nil
		}
		return nil, err
	}

	s.logger.Info("account_created", zap.Uint("account_id", account.ID), zap.String("phone", phone))
	return account, nil
}

// issueTokens issues an access/refresh pair and persists the refresh
// token reference on the account. Overwriting the prior reference
// invalidates any earlier refresh token: one active session per account.
func (s *SessionServiceImpl) issueTokens(ctx context.Context, account *domain.Account) (*domain.AuthResult, error) {
	accessToken, err := s.tokenSvc.IssueAccessToken(account)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	refreshToken, err := s.tokenSvc.IssueRefreshToken(account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	ref := tokenRef(refreshToken)
	if err := s.accountRepo.UpdateRefreshRef(ctx, account.ID, ref); err != nil {
		return nil, err
	}
	account.RefreshTokenRef = ref

	return &domain.AuthResult{
		Account:      account,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

// Refresh implements domain.SessionService. Only a refresh-class token
// matching the account's stored reference is accepted; a well-signed
// token from a superseded session is ErrRefreshRevoked.
func (s *SessionServiceImpl) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.tokenSvc.VerifyRefreshToken(refreshToken)
	if err != nil {
		return "", err
	}

	account, err := s.accountRepo.FindByID(ctx, claims.AccountID)
	if err != nil {
		return "", err
	}

	if account.RefreshTokenRef == "" ||
		subtle.ConstantTimeCompare([]byte(account.RefreshTokenRef), []byte(tokenRef(refreshToken))) != 1 {
		return "", domain.ErrRefreshRevoked
	}

	if account.IsBlocked() {
		return "", domain.ErrAccountBlocked
	}

	// The refresh token itself is not rotated; only a fresh access
	// token goes back.
	accessToken, err := s.tokenSvc.IssueAccessToken(account)
	if err != nil {
		return "", fmt.Errorf("failed to issue access token: %w", err)
	}

	return accessToken, nil
}

// Logout implements domain.SessionService. Both tokens are revoked and
// the stored refresh reference cleared; external session notification
// is fire-and-forget.
func (s *SessionServiceImpl) Logout(ctx context.Context, accessToken string, account *domain.Account) error {
	if claims, err := s.tokenSvc.VerifyAccessToken(accessToken); err == nil {
		if err := s.revocations.Revoke(ctx, accessToken, time.Unix(claims.ExpiresAt, 0)); err != nil {
			return err
		}
	}

	// The stored reference is a hash, not the token, so the refresh
	// token is revoked by reference: clearing it makes any outstanding
	// refresh token fail the constant-time match in Refresh.
	if account.RefreshTokenRef != "" {
		if err := s.accountRepo.UpdateRefreshRef(ctx, account.ID, ""); err != nil {
			return err
		}
		account.RefreshTokenRef = ""
	}

	go s.events.LoggedOut(account.ID)

	s.logger.Info("session_logout", zap.Uint("account_id", account.ID))
	return nil
}

// ValidateToken implements domain.SessionService: codec verification
// plus a revocation check.
func (s *SessionServiceImpl) ValidateToken(ctx context.Context, token string) (*domain.TokenClaims, error) {
	claims, err := s.tokenSvc.VerifyAccessToken(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revocations.IsRevoked(ctx, token)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, domain.ErrTokenRevoked
	}

	return claims, nil
}

// tokenRef derives the stored reference for a refresh token. SHA-256
// keeps the raw token out of the record store while still allowing a
// constant-time equality check.
func tokenRef(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

var _ domain.SessionService = (*SessionServiceImpl)(nil)
