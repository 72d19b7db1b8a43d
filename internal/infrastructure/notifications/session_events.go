package notifications

import (
	"go.uber.org/zap"

	"github.com/you/shopcore/domain"
)

// LoggingSessionEventSink implements domain.SessionEventSink. It stands
// in for a coupled external session system; deployments without one get
// an audit log line and nothing else. Callers fire these events in a
// goroutine so a slow or failing sink never delays the response.
type LoggingSessionEventSink struct {
	logger *zap.Logger
}

// NewLoggingSessionEventSink creates a log-only session event sink.
func NewLoggingSessionEventSink(logger *zap.Logger) *LoggingSessionEventSink {
	return &LoggingSessionEventSink{logger: logger}
}

// LoggedOut implements domain.SessionEventSink.
func (s *LoggingSessionEventSink) LoggedOut(accountID uint) {
	s.logger.Info("session_logged_out", zap.Uint("account_id", accountID))
}

var _ domain.SessionEventSink = (*LoggingSessionEventSink)(nil)
