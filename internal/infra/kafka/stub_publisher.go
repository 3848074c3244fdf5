package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
	"github.com/bouramah/GovTrack-sub006/internal/core/port"
)

// StubPublisher logs delivery intents instead of sending them to Kafka.
// Useful for development environments without a broker.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly notification publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

// PublishNotification logs the intent.
func (p *StubPublisher) PublishNotification(_ context.Context, intent domain.NotificationEvent) error {
	at := intent.CreatedAt
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("Stub notification published",
		zap.String("event_id", intent.EventID),
		zap.String("kind", string(intent.Kind)),
		zap.String("subject_type", string(intent.SubjectType)),
		zap.String("subject_id", intent.SubjectID),
		zap.String("recipient_id", intent.RecipientID),
		zap.Time("timestamp", at.UTC()),
	)
	return nil
}

var _ port.NotificationPublisher = (*StubPublisher)(nil)
