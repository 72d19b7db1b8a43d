package mocks

import (
	"context"

	"github.com/you/shopcore/domain"
)

// MockChallengeStore implements domain.ChallengeStore for testing.
type MockChallengeStore struct {
	IssueFunc  func(ctx context.Context, phone string) (*domain.OTPChallenge, error)
	VerifyFunc func(ctx context.Context, phone, code, challengeID string) error
	DeleteFunc func(ctx context.Context, phone string) error
}

// NewMockChallengeStore creates a new MockChallengeStore with default behaviors.
func NewMockChallengeStore() *MockChallengeStore {
	return &MockChallengeStore{}
}

// Issue generates a challenge for the phone.
func (m *MockChallengeStore) Issue(ctx context.Context, phone string) (*domain.OTPChallenge, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(ctx, phone)
	}
	// Default behavior: fixed challenge
	return &domain.OTPChallenge{ID: "challenge-1", Phone: phone, Code: "123456"}, nil
}

// Verify checks a submitted code against the stored challenge.
func (m *MockChallengeStore) Verify(ctx context.Context, phone, code, challengeID string) error {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, phone, code, challengeID)
	}
	// Default behavior: verified
	return nil
}

// Delete removes an outstanding challenge.
func (m *MockChallengeStore) Delete(ctx context.Context, phone string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, phone)
	}
	// Default behavior: success
	return nil
}

// Compile-time interface compliance verification
var _ domain.ChallengeStore = (*MockChallengeStore)(nil)
