package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/you/shopcore/domain"
	"github.com/you/shopcore/internal/mocks"
)

type sessionFixture struct {
	svc         *SessionServiceImpl
	accountRepo *mocks.MockAccountRepository
	challenges  *mocks.MockChallengeStore
	tokenSvc    *mocks.MockTokenService
	revocations *mocks.MockRevocationRegistry
	notifier    *mocks.MockNotificationService
	limiter     *mocks.MockRateLimiter
	events      *mocks.MockSessionEventSink
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	f := &sessionFixture{
		accountRepo: mocks.NewMockAccountRepository(),
		challenges:  mocks.NewMockChallengeStore(),
		tokenSvc:    mocks.NewMockTokenService(),
		revocations: mocks.NewMockRevocationRegistry(),
		notifier:    mocks.NewMockNotificationService(),
		limiter:     mocks.NewMockRateLimiter(),
		events:      mocks.NewMockSessionEventSink(),
	}
	f.svc = NewSessionService(
		f.accountRepo, f.challenges, f.tokenSvc, f.revocations,
		f.notifier, f.limiter, f.events, 15*time.Minute, zap.NewNop(),
	)
	return f
}

func TestSessionService_SendOTP(t *testing.T) {
	tests := []struct {
		name        string
		phone       string
		setup       func(*sessionFixture)
		wantErr     error
		wantID      string
		wantDeleted bool
	}{
		{
			name:   "valid phone issues challenge",
			phone:  "9876543210",
			setup:  func(f *sessionFixture) {},
			wantID: "challenge-1",
		},
		{
			name:    "malformed phone rejected",
			phone:   "12345",
			setup:   func(f *sessionFixture) {},
			wantErr: domain.ErrInvalidPhone,
		},
		{
			name:    "phone with bad leading digit rejected",
			phone:   "5876543210",
			setup:   func(f *sessionFixture) {},
			wantErr: domain.ErrInvalidPhone,
		},
		{
			name:  "rate limit exceeded",
			phone: "9876543210",
			setup: func(f *sessionFixture) {
				f.limiter.AllowFunc = func(ctx context.Context, key string) (bool, time.Duration, error) {
					return false, 10 * time.Minute, nil
				}
			},
			wantErr: domain.ErrOTPRateLimited,
		},
		{
			name:  "cooldown from challenge store propagates",
			phone: "9876543210",
			setup: func(f *sessionFixture) {
				f.challenges.IssueFunc = func(ctx context.Context, phone string) (*domain.OTPChallenge, error) {
					return nil, domain.ErrChallengeCooldown
				}
			},
			wantErr: domain.ErrChallengeCooldown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture(t)
			tt.setup(f)

			id, err := f.svc.SendOTP(context.Background(), tt.phone)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestSessionService_SendOTP_RollsBackOnDeliveryFailure(t *testing.T) {
	f := newSessionFixture(t)

	deleted := false
	f.notifier.SendSMSFunc = func(to, message string) error {
		return errors.New("twilio down")
	}
	f.challenges.DeleteFunc = func(ctx context.Context, phone string) error {
		deleted = true
		return nil
	}

	_, err := f.svc.SendOTP(context.Background(), "9876543210")

	require.Error(t, err)
	assert.True(t, deleted, "undelivered challenge must be rolled back")
}

func TestSessionService_VerifyOTP(t *testing.T) {
	existing := &domain.Account{
		ID:      7,
		Phone:   "9876543210",
		Status:  domain.AccountActive,
		Modules: domain.DefaultModules,
	}

	t.Run("wrong code touches no account state", func(t *testing.T) {
		f := newSessionFixture(t)
		f.challenges.VerifyFunc = func(ctx context.Context, phone, code, challengeID string) error {
			return domain.ErrChallengeInvalid
		}
		created := false
		f.accountRepo.CreateFunc = func(ctx context.Context, account *domain.Account) error {
			created = true
			return nil
		}

		_, err := f.svc.VerifyOTP(context.Background(), "9876543210", "000000", "")

		require.ErrorIs(t, err, domain.ErrChallengeInvalid)
		assert.False(t, created)
	})

	t.Run("first login creates account with default modules", func(t *testing.T) {
		f := newSessionFixture(t)
		var created *domain.Account
		f.accountRepo.CreateFunc = func(ctx context.Context, account *domain.Account) error {
			account.ID = 42
			created = account
			return nil
		}

		result, err := f.svc.VerifyOTP(context.Background(), "9876543210", "123456", "challenge-1")

		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, domain.AccountActive, created.Status)
		assert.Equal(t, domain.DefaultModules, created.Modules)
		assert.Equal(t, uint(42), result.Account.ID)
	})

	t.Run("existing account is reused", func(t *testing.T) {
		f := newSessionFixture(t)
		f.accountRepo.FindByPhoneFunc = func(ctx context.Context, phone string) (*domain.Account, error) {
			cp := *existing
			return &cp, nil
		}
		created := false
		f.accountRepo.CreateFunc = func(ctx context.Context, account *domain.Account) error {
			created = true
			return nil
		}

		result, err := f.svc.VerifyOTP(context.Background(), "9876543210", "123456", "")

		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, uint(7), result.Account.ID)
	})

	t.Run("blocked account rejected", func(t *testing.T) {
		f := newSessionFixture(t)
		f.accountRepo.FindByPhoneFunc = func(ctx context.Context, phone string) (*domain.Account, error) {
			return &domain.Account{ID: 7, Phone: phone, Status: domain.AccountBlocked}, nil
		}

		_, err := f.svc.VerifyOTP(context.Background(), "9876543210", "123456", "")

		require.ErrorIs(t, err, domain.ErrAccountBlocked)
	})

	t.Run("refresh reference persisted on login", func(t *testing.T) {
		f := newSessionFixture(t)
		f.accountRepo.FindByPhoneFunc = func(ctx context.Context, phone string) (*domain.Account, error) {
			cp := *existing
			return &cp, nil
		}
		var storedRef string
		f.accountRepo.UpdateRefreshRefFunc = func(ctx context.Context, accountID uint, ref string) error {
			storedRef = ref
			return nil
		}

		result, err := f.svc.VerifyOTP(context.Background(), "9876543210", "123456", "")

		require.NoError(t, err)
		assert.Equal(t, tokenRef(result.RefreshToken), storedRef)
		assert.NotEmpty(t, storedRef)
	})
}

func TestSessionService_Refresh(t *testing.T) {
	account := func() *domain.Account {
		return &domain.Account{
			ID:              7,
			Phone:           "9876543210",
			Status:          domain.AccountActive,
			Modules:         domain.DefaultModules,
			RefreshTokenRef: tokenRef("refresh-token"),
		}
	}

	tests := []struct {
		name    string
		token   string
		setup   func(*sessionFixture)
		wantErr error
	}{
		{
			name:  "matching token yields new access token",
			token: "refresh-token",
			setup: func(f *sessionFixture) {
				f.tokenSvc.VerifyRefreshTokenFunc = func(token string) (*domain.TokenClaims, error) {
					return &domain.TokenClaims{AccountID: 7, TokenType: domain.TokenClassRefresh}, nil
				}
				f.accountRepo.FindByIDFunc = func(ctx context.Context, id uint) (*domain.Account, error) {
					return account(), nil
				}
			},
		},
		{
			name:  "well-signed token from superseded session is revoked",
			token: "old-refresh-token",
			setup: func(f *sessionFixture) {
				f.tokenSvc.VerifyRefreshTokenFunc = func(token string) (*domain.TokenClaims, error) {
					return &domain.TokenClaims{AccountID: 7, TokenType: domain.TokenClassRefresh}, nil
				}
				f.accountRepo.FindByIDFunc = func(ctx context.Context, id uint) (*domain.Account, error) {
					return account(), nil
				}
			},
			wantErr: domain.ErrRefreshRevoked,
		},
		{
			name:  "cleared reference means revoked",
			token: "refresh-token",
			setup: func(f *sessionFixture) {
				f.tokenSvc.VerifyRefreshTokenFunc = func(token string) (*domain.TokenClaims, error) {
					return &domain.TokenClaims{AccountID: 7, TokenType: domain.TokenClassRefresh}, nil
				}
				f.accountRepo.FindByIDFunc = func(ctx context.Context, id uint) (*domain.Account, error) {
					a := account()
					a.RefreshTokenRef = ""
					return a, nil
				}
			},
			wantErr: domain.ErrRefreshRevoked,
		},
		{
			name:  "blocked account forbidden",
			token: "refresh-token",
			setup: func(f *sessionFixture) {
				f.tokenSvc.VerifyRefreshTokenFunc = func(token string) (*domain.TokenClaims, error) {
					return &domain.TokenClaims{AccountID: 7, TokenType: domain.TokenClassRefresh}, nil
				}
				f.accountRepo.FindByIDFunc = func(ctx context.Context, id uint) (*domain.Account, error) {
					a := account()
					a.Status = domain.AccountBlocked
					return a, nil
				}
			},
			wantErr: domain.ErrAccountBlocked,
		},
		{
			name:  "access token presented as refresh rejected",
			token: "access-token",
			setup: func(f *sessionFixture) {
				f.tokenSvc.VerifyRefreshTokenFunc = func(token string) (*domain.TokenClaims, error) {
					return nil, domain.ErrTokenWrongClass
				}
			},
			wantErr: domain.ErrTokenWrongClass,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSessionFixture(t)
			tt.setup(f)

			accessToken, err := f.svc.Refresh(context.Background(), tt.token)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, accessToken)
		})
	}
}

func TestSessionService_Logout(t *testing.T) {
	f := newSessionFixture(t)

	account := &domain.Account{
		ID:              7,
		Status:          domain.AccountActive,
		RefreshTokenRef: tokenRef("refresh-token"),
	}

	f.tokenSvc.VerifyAccessTokenFunc = func(token string) (*domain.TokenClaims, error) {
		return &domain.TokenClaims{
			AccountID: 7,
			TokenType: domain.TokenClassAccess,
			ExpiresAt: time.Now().Add(10 * time.Minute).Unix(),
		}, nil
	}

	var revokedToken string
	f.revocations.RevokeFunc = func(ctx context.Context, token string, expiresAt time.Time) error {
		revokedToken = token
		return nil
	}

	var clearedRef *string
	f.accountRepo.UpdateRefreshRefFunc = func(ctx context.Context, accountID uint, ref string) error {
		clearedRef = &ref
		return nil
	}

	err := f.svc.Logout(context.Background(), "the-access-token", account)

	require.NoError(t, err)
	assert.Equal(t, "the-access-token", revokedToken)
	require.NotNil(t, clearedRef)
	assert.Empty(t, *clearedRef)
	assert.Empty(t, account.RefreshTokenRef)

	// The external notification is fire-and-forget.
	assert.Eventually(t, func() bool {
		events := f.events.Events()
		return len(events) == 1 && events[0] == 7
	}, time.Second, 10*time.Millisecond)
}

func TestSessionService_ValidateToken(t *testing.T) {
	t.Run("revoked token rejected", func(t *testing.T) {
		f := newSessionFixture(t)
		f.tokenSvc.VerifyAccessTokenFunc = func(token string) (*domain.TokenClaims, error) {
			return &domain.TokenClaims{AccountID: 7, TokenType: domain.TokenClassAccess}, nil
		}
		f.revocations.IsRevokedFunc = func(ctx context.Context, token string) (bool, error) {
			return true, nil
		}

		_, err := f.svc.ValidateToken(context.Background(), "some-token")

		require.ErrorIs(t, err, domain.ErrTokenRevoked)
	})

	t.Run("valid unrevoked token passes", func(t *testing.T) {
		f := newSessionFixture(t)
		f.tokenSvc.VerifyAccessTokenFunc = func(token string) (*domain.TokenClaims, error) {
			return &domain.TokenClaims{AccountID: 7, TokenType: domain.TokenClassAccess}, nil
		}

		claims, err := f.svc.ValidateToken(context.Background(), "some-token")

		require.NoError(t, err)
		assert.Equal(t, uint(7), claims.AccountID)
	})
}
