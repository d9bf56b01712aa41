package notify

import (
	"context"
	"testing"
	"time"
)

func receive(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification")
	}
	return ""
}

func TestLocal_FanOut(t *testing.T) {
	b := NewLocal()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, _ := b.Subscribe(ctx)
	c, _ := b.Subscribe(ctx)
	if err := b.Publish(ctx, Payments); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got := receive(t, a); got != Payments {
		t.Errorf("a got %q", got)
	}
	if got := receive(t, c); got != Payments {
		t.Errorf("c got %q", got)
	}
}

func TestLocal_RejectsUnknownCollection(t *testing.T) {
	if err := NewLocal().Publish(context.Background(), "invoices"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestLocal_CancelClosesSubscription(t *testing.T) {
	b := NewLocal()
	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := b.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("subscription not closed after cancel")
	}
	if err := b.Publish(context.Background(), Suppliers); err != nil {
		t.Fatalf("publish after cancel: %v", err)
	}
}

func TestLocal_Close(t *testing.T) {
	b := NewLocal()
	ch, _ := b.Subscribe(context.Background())
	_ = b.Close()
	if _, ok := <-ch; ok {
		t.Fatal("expected closed channel after Close")
	}
	late, _ := b.Subscribe(context.Background())
	if _, ok := <-late; ok {
		t.Fatal("subscribing to a closed broker should yield a closed channel")
	}
}
