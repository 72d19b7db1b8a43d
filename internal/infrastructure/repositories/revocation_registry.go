package repositories

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/you/shopcore/domain"
)

// RevocationRegistryImpl implements domain.RevocationRegistry on Redis.
// Entries are keyed by the token's SHA-256 and carry a TTL equal to the
// token's remaining lifetime, so an entry never outlives the token it
// blocks.
type RevocationRegistryImpl struct {
	client *redis.Client
	// failClosed flips the availability-over-security default: when the
	// registry is unreachable, IsRevoked reports not-revoked unless a
	// deployment explicitly opts into locking users out instead.
	failClosed bool
	logger     *zap.Logger
}

// NewRevocationRegistry creates a Redis-backed revocation registry.
func NewRevocationRegistry(client *redis.Client, failClosed bool, logger *zap.Logger) *RevocationRegistryImpl {
	return &RevocationRegistryImpl{client: client, failClosed: failClosed, logger: logger}
}

func revocationKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "revoked:" + hex.EncodeToString(sum[:])
}

// Revoke implements domain.RevocationRegistry. Revoking an already
// expired token is a no-op.
func (r *RevocationRegistryImpl) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	remaining := time.Until(expiresAt)
	if remaining <= 0 {
		return nil
	}

	if err := r.client.Set(ctx, revocationKey(token), 1, remaining).Err(); err != nil {
		return fmt.Errorf("%w: revoke: %v", domain.ErrRegistryUnavailable, err)
	}
	return nil
}

// IsRevoked implements domain.RevocationRegistry. Registry failures
// fail open by default (see failClosed).
func (r *RevocationRegistryImpl) IsRevoked(ctx context.Context, token string) (bool, error) {
	exists, err := r.client.Exists(ctx, revocationKey(token)).Result()
	if err != nil {
		if r.failClosed {
			return true, fmt.Errorf("%w: revocation check: %v", domain.ErrRegistryUnavailable, err)
		}
		r.logger.Warn("revocation_check_failed_open", zap.Error(err))
		return false, nil
	}
	return exists == 1, nil
}

var _ domain.RevocationRegistry = (*RevocationRegistryImpl)(nil)
