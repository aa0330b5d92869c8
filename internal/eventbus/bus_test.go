package eventbus

import (
	"context"
	"errors"
	"testing"
)

func TestBusPublishBroadcast(t *testing.T) {
	bus := NewDocEventBus()
	calledA := false
	calledB := false

	bus.Subscribe(DocEventUpdated, func(ctx context.Context, event DocEvent) error {
		calledA = event.DocumentID == "doc-001"
		return nil
	})
	bus.Subscribe(DocEventUpdated, func(ctx context.Context, event DocEvent) error {
		calledB = true
		return nil
	})

	if err := bus.Publish(context.Background(), DocEventUpdated, DocEvent{Type: DocEventUpdated, DocumentID: "doc-001"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !calledA || !calledB {
		t.Fatalf("expected handlers to be called")
	}
}

func TestBusOnlyMatchingType(t *testing.T) {
	bus := NewDocEventBus()
	called := false
	bus.Subscribe(DocEventDeleted, func(ctx context.Context, event DocEvent) error {
		called = true
		return nil
	})

	if err := bus.Publish(context.Background(), DocEventCreated, DocEvent{Type: DocEventCreated}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatalf("handler for another event type should not be called")
	}
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewDocEventBus()
	called := false
	unsubscribe := bus.Subscribe(DocEventUpdated, func(ctx context.Context, event DocEvent) error {
		called = true
		return nil
	})
	unsubscribe()

	if err := bus.Publish(context.Background(), DocEventUpdated, DocEvent{Type: DocEventUpdated}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatalf("expected handler to be unsubscribed")
	}
}

func TestBusPublishJoinErrors(t *testing.T) {
	bus := NewDocEventBus()
	errA := errors.New("err-a")
	bus.Subscribe(DocEventUpdated, func(ctx context.Context, event DocEvent) error {
		return errA
	})
	bus.Subscribe(DocEventUpdated, func(ctx context.Context, event DocEvent) error {
		return errors.New("err-b")
	})

	err := bus.Publish(context.Background(), DocEventUpdated, DocEvent{Type: DocEventUpdated})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, errA) {
		t.Fatalf("joined error should wrap err-a, got %v", err)
	}
}

func TestBusNilHandler(t *testing.T) {
	bus := NewDocEventBus()
	unsubscribe := bus.Subscribe(DocEventUpdated, nil)
	unsubscribe()
	if err := bus.Publish(context.Background(), DocEventUpdated, DocEvent{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
