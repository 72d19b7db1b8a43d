package repositories

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/you/shopcore/domain"
)

// ChallengeStoreImpl implements domain.ChallengeStore on Redis. The
// challenge lives under one key per phone with the store TTL; a second
// key with the cooldown TTL blocks re-issuance. Only the bcrypt hash of
// the code is persisted, and bcrypt comparison does not leak timing.
type ChallengeStoreImpl struct {
	client *redis.Client
	config ChallengeConfig
}

// ChallengeConfig holds challenge store tunables.
type ChallengeConfig struct {
	CodeLength int
	TTL        time.Duration
	Cooldown   time.Duration
}

// storedChallenge is the Redis persistence shape of a challenge.
type storedChallenge struct {
	ID        string    `json:"id"`
	Phone     string    `json:"phone"`
	CodeHash  string    `json:"code_hash"`
	CreatedAt time.Time `json:"created_at"`
}

// NewChallengeStore creates a Redis-backed challenge store.
func NewChallengeStore(client *redis.Client, config ChallengeConfig) *ChallengeStoreImpl {
	return &ChallengeStoreImpl{client: client, config: config}
}

func challengeKey(phone string) string { return "otp:" + phone }
func cooldownKey(phone string) string  { return "otp:cd:" + phone }

// Issue implements domain.ChallengeStore.
func (s *ChallengeStoreImpl) Issue(ctx context.Context, phone string) (*domain.OTPChallenge, error) {
	onCooldown, err := s.client.Exists(ctx, cooldownKey(phone)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: cooldown check: %v", domain.ErrChallengeStoreUnavailable, err)
	}
	if onCooldown == 1 {
		return nil, domain.ErrChallengeCooldown
	}

	code, err := s.generateCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate challenge code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash challenge code: %w", err)
	}

	challenge := &domain.OTPChallenge{
		ID:        uuid.NewString(),
		Phone:     phone,
		Code:      code,
		CodeHash:  string(hash),
		CreatedAt: time.Now(),
	}

	data, err := json.Marshal(storedChallenge{
		ID:        challenge.ID,
		Phone:     challenge.Phone,
		CodeHash:  challenge.CodeHash,
		CreatedAt: challenge.CreatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal challenge: %w", err)
	}

	if err := s.client.Set(ctx, challengeKey(phone), data, s.config.TTL).Err(); err != nil {
		return nil, fmt.Errorf("failed to store challenge: %w", err)
	}
	if err := s.client.Set(ctx, cooldownKey(phone), 1, s.config.Cooldown).Err(); err != nil {
		return nil, fmt.Errorf("failed to set challenge cooldown: %w", err)
	}

	return challenge, nil
}

// Verify implements domain.ChallengeStore. The challengeID fallback to
// phone-only lookup is safe because the cooldown window keeps at most
// one challenge outstanding per phone; if that invariant ever changes
// the fallback must go with it.
func (s *ChallengeStoreImpl) Verify(ctx context.Context, phone, code, challengeID string) error {
	data, err := s.client.Get(ctx, challengeKey(phone)).Result()
	if err == redis.Nil {
		// Expired or never issued; callers get the same answer either way.
		return domain.ErrChallengeInvalid
	}
	if err != nil {
		return fmt.Errorf("failed to read challenge: %w", err)
	}

	var stored storedChallenge
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return fmt.Errorf("failed to unmarshal challenge: %w", err)
	}

	if challengeID != "" && challengeID != stored.ID {
		return domain.ErrChallengeInvalid
	}

	if bcrypt.CompareHashAndPassword([]byte(stored.CodeHash), []byte(code)) != nil {
		// Mismatch keeps the challenge alive until its own expiry.
		return domain.ErrChallengeInvalid
	}

	// One-time use: consumed on first success.
	if err := s.client.Del(ctx, challengeKey(phone)).Err(); err != nil {
		return fmt.Errorf("failed to consume challenge: %w", err)
	}

	return nil
}

// Delete implements domain.ChallengeStore.
func (s *ChallengeStoreImpl) Delete(ctx context.Context, phone string) error {
	return s.client.Del(ctx, challengeKey(phone), cooldownKey(phone)).Err()
}

// generateCode produces a cryptographically unpredictable numeric code.
func (s *ChallengeStoreImpl) generateCode() (string, error) {
	digits := make([]byte, s.config.CodeLength)
	for i := 0; i < s.config.CodeLength; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + num.Int64())
	}
	return string(digits), nil
}

var _ domain.ChallengeStore = (*ChallengeStoreImpl)(nil)
