package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
	"github.com/bouramah/GovTrack-sub006/internal/core/port"
	"github.com/bouramah/GovTrack-sub006/internal/infra/config"
)

const schemaVersion = "1.0"

// Notifier implements port.NotificationPublisher using Kafka. Each delivery
// intent becomes one message keyed by recipient, so a downstream consumer can
// partition per-user delivery.
type Notifier struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewNotifier constructs a Kafka-backed notification publisher.
func NewNotifier(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *Notifier {
	return &Notifier{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID     string           `json:"event_id"`
	EventType   string           `json:"event_type"`
	RecipientID string           `json:"recipient_id"`
	Timestamp   time.Time        `json:"timestamp"`
	Version     string           `json:"version"`
	Payload     any              `json:"payload"`
	Metadata    envelopeMetadata `json:"metadata,omitempty"`
}

// PublishNotification publishes one delivery intent.
func (n *Notifier) PublishNotification(ctx context.Context, intent domain.NotificationEvent) error {
	ts := intent.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := intent.EventID
	if id == "" {
		id = uuid.NewString()
	}

	payload := struct {
		SubjectType string         `json:"subject_type"`
		SubjectID   string         `json:"subject_id"`
		ActorID     string         `json:"actor_id"`
		RecipientID string         `json:"recipient_id"`
		Details     map[string]any `json:"details,omitempty"`
	}{
		SubjectType: string(intent.SubjectType),
		SubjectID:   intent.SubjectID,
		ActorID:     intent.ActorID,
		RecipientID: intent.RecipientID,
		Details:     intent.Payload,
	}

	envelope := eventEnvelope{
		EventID:     id,
		EventType:   "notification." + string(intent.Kind),
		RecipientID: intent.RecipientID,
		Timestamp:   ts.UTC(),
		Version:     schemaVersion,
		Payload:     payload,
		Metadata: envelopeMetadata{
			"service":     n.appCfg.Name,
			"environment": n.appCfg.Env,
		},
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal notification envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: n.producer.TopicName("notifications"),
		Key:   sarama.StringEncoder(intent.RecipientID),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case n.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ port.NotificationPublisher = (*Notifier)(nil)
