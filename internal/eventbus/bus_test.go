package eventbus

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/bouramah/GovTrack-sub006/internal/core/domain"
)

func testEvent() domain.Event {
	return domain.StatusChangedEvent{
		EventID:        "ev-1",
		SubjectType:    domain.SubjectInstruction,
		SubjectID:      "instr-1",
		ActorID:        "user-1",
		PreviousStatus: domain.StatusToDo,
		NewStatus:      domain.StatusInProgress,
		ChangedAt:      time.Now().UTC(),
	}
}

func TestBus_DeliversToAllSubscribers(t *testing.T) {
	bus := New(zaptest.NewLogger(t), nil)

	var first, second int
	bus.Subscribe(func(_ context.Context, _ domain.Event) error {
		first++
		return nil
	})
	bus.Subscribe(func(_ context.Context, _ domain.Event) error {
		second++
		return nil
	})

	bus.Publish(context.Background(), testEvent())

	if first != 1 || second != 1 {
		t.Fatalf("expected one delivery per subscriber, got %d and %d", first, second)
	}
}

func TestBus_FailingSubscriberDoesNotBlockOthers(t *testing.T) {
	bus := New(zaptest.NewLogger(t), nil)

	var delivered int
	bus.Subscribe(func(_ context.Context, _ domain.Event) error {
		return errors.New("consumer down")
	})
	bus.Subscribe(func(_ context.Context, _ domain.Event) error {
		delivered++
		return nil
	})

	bus.Publish(context.Background(), testEvent())

	if delivered != 1 {
		t.Fatalf("expected healthy subscriber to receive event, got %d deliveries", delivered)
	}
}

func TestBus_PanickingSubscriberIsContained(t *testing.T) {
	bus := New(zaptest.NewLogger(t), nil)

	bus.Subscribe(func(_ context.Context, _ domain.Event) error {
		panic("boom")
	})

	var delivered int
	bus.Subscribe(func(_ context.Context, _ domain.Event) error {
		delivered++
		return nil
	})

	bus.Publish(context.Background(), testEvent())

	if delivered != 1 {
		t.Fatalf("expected delivery after panic containment, got %d", delivered)
	}
}
