package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/you/shopcore/domain"
)

// MockNotificationService implements domain.NotificationService for testing.
type MockNotificationService struct {
	SendSMSFunc func(to, message string) error
}

// NewMockNotificationService creates a new MockNotificationService with default behaviors.
func NewMockNotificationService() *MockNotificationService {
	return &MockNotificationService{}
}

// SendSMS sends an SMS message.
func (m *MockNotificationService) SendSMS(to, message string) error {
	if m.SendSMSFunc != nil {
		return m.SendSMSFunc(to, message)
	}
	// Default behavior: success
	return nil
}

// Compile-time interface compliance verification
var _ domain.NotificationService = (*MockNotificationService)(nil)

// MockRateLimiter implements domain.RateLimiter for testing.
type MockRateLimiter struct {
	AllowFunc func(ctx context.Context, key string) (bool, time.Duration, error)
}

// NewMockRateLimiter creates a new MockRateLimiter with default behaviors.
func NewMockRateLimiter() *MockRateLimiter {
	return &MockRateLimiter{}
}

// Allow reports whether another attempt is permitted for the key.
func (m *MockRateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if m.AllowFunc != nil {
		return m.AllowFunc(ctx, key)
	}
	// Default behavior: allowed
	return true, 0, nil
}

// Compile-time interface compliance verification
var _ domain.RateLimiter = (*MockRateLimiter)(nil)

// MockSessionEventSink implements domain.SessionEventSink for testing.
// It records logout events so tests can wait for the fire-and-forget
// goroutine to land.
type MockSessionEventSink struct {
	mu     sync.Mutex
	events []uint
}

// NewMockSessionEventSink creates a new MockSessionEventSink.
func NewMockSessionEventSink() *MockSessionEventSink {
	return &MockSessionEventSink{}
}

// LoggedOut records a logout event.
func (m *MockSessionEventSink) LoggedOut(accountID uint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, accountID)
}

// Events returns a snapshot of recorded logout events.
func (m *MockSessionEventSink) Events() []uint {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]uint, len(m.events))
	copy(out, m.events)
	return out
}

// Compile-time interface compliance verification
var _ domain.SessionEventSink = (*MockSessionEventSink)(nil)
