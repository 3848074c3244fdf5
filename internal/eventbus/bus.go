package eventbus

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
)

// Handler consumes a domain event. Handlers are best-effort side channels: a
// returned error is logged and never surfaces to the publisher.
type Handler func(ctx context.Context, event domain.Event) error

// Bus is the in-process publish/subscribe point between lifecycle mutations
// and their audit/notification consumers. Publication is synchronous and
// happens only after the triggering transaction has committed; a failing or
// panicking subscriber cannot roll back or block the committed mutation.
type Bus struct {
	mu          sync.RWMutex
	subscribers []Handler
	logger      *zap.Logger

	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

// New constructs an event bus registering its metrics on the provided
// registerer. Pass nil to skip metric registration (tests).
func New(logger *zap.Logger, reg prometheus.Registerer) *Bus {
	bus := &Bus{logger: logger}
	if reg != nil {
		bus.published = promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "govtrack_events_published_total",
			Help: "Domain events published on the bus.",
		}, []string{"kind"})
		bus.failed = promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "govtrack_event_handler_failures_total",
			Help: "Subscriber failures while consuming domain events.",
		}, []string{"kind"})
	}
	return bus
}

// Subscribe registers a handler for every published event.
func (b *Bus) Subscribe(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, handler)
}

// Publish delivers the event to every subscriber. Each subscriber is isolated:
// errors and panics are logged and counted, then dispatch continues.
func (b *Bus) Publish(ctx context.Context, event domain.Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.subscribers))
	copy(handlers, b.subscribers)
	b.mu.RUnlock()

	if b.published != nil {
		b.published.WithLabelValues(string(event.Kind())).Inc()
	}

	for _, handler := range handlers {
		b.deliver(ctx, handler, event)
	}
}

func (b *Bus) deliver(ctx context.Context, handler Handler, event domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			if b.failed != nil {
				b.failed.WithLabelValues(string(event.Kind())).Inc()
			}
			b.logger.Error("event subscriber panicked",
				zap.String("kind", string(event.Kind())),
				zap.Any("panic", r),
			)
		}
	}()

	if err := handler(ctx, event); err != nil {
		if b.failed != nil {
			b.failed.WithLabelValues(string(event.Kind())).Inc()
		}
		b.logger.Error("event subscriber failed",
			zap.String("kind", string(event.Kind())),
			zap.Error(err),
		)
	}
}
