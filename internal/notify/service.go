package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/omriShneor/calendar_assistant/internal/logging"
)

// Service delivers booking confirmations to the configured address.
type Service struct {
	emailNotifier Notifier
	recipient     string
	logger        *zap.Logger
}

// NewService creates a notification service. A nil notifier or empty
// recipient disables delivery.
func NewService(emailNotifier Notifier, recipient string, logger *zap.Logger) *Service {
	return &Service{
		emailNotifier: emailNotifier,
		recipient:     recipient,
		logger:        logging.OrNop(logger),
	}
}

// NotifyBooking sends a confirmation for a new booking. Errors are logged
// but don't fail the operation.
func (s *Service) NotifyBooking(ctx context.Context, booking Booking) {
	if !s.IsEmailAvailable() {
		s.logger.Debug("booking notification skipped, email not configured")
		return
	}

	if err := s.emailNotifier.Send(ctx, booking, s.recipient); err != nil {
		s.logger.Warn("booking notification failed",
			zap.String("notifier", s.emailNotifier.Name()),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("booking notification sent",
		zap.String("notifier", s.emailNotifier.Name()),
		zap.String("recipient", s.recipient),
	)
}

// IsEmailAvailable returns true if email notifications can be used
func (s *Service) IsEmailAvailable() bool {
	return s.emailNotifier != nil && s.emailNotifier.IsConfigured() && s.recipient != ""
}
