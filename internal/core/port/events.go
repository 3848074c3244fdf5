package port

import (
	"context"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
)

// NotificationPublisher hands delivery intents to the external transport
// (mail renderer, in-app broadcast). Retries are the transport's concern.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, intent domain.NotificationEvent) error
}
