package bus

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/yoockh/yoosight/internal/logger"
	"github.com/yoockh/yoosight/internal/models"
)

func newRedisBus(t *testing.T) (*RedisBus, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisBus(rdb, "test:events", logger.Discard()), mr
}

// publishUntil republishes ev until it shows up on events; pub/sub gives no delivery for
// messages sent while the subscriber is still resubscribing.
func publishUntil(t *testing.T, b *RedisBus, events <-chan models.Event, ev models.Event) models.Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(25 * time.Millisecond)
	defer tick.Stop()
	for {
		_ = b.Publish(context.Background(), ev)
		select {
		case got, ok := <-events:
			if !ok {
				t.Fatalf("subscription closed")
			}
			return got
		case <-tick.C:
		case <-deadline:
			t.Fatalf("event %s never delivered", ev.Type)
		}
	}
}

func TestRedisBusDelivers(t *testing.T) {
	b, _ := newRedisBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := b.Subscribe(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Publish(ctx, models.FrameReady("s-1", "/p")); err != nil {
		t.Fatal(err)
	}
	select {
	case ev := <-events:
		if ev.Type != models.EventFrameReady || ev.SessionID != "s-1" || ev.Path != "/p" {
			t.Fatalf("unexpected event %+v", ev)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("event not delivered")
	}
}

func TestRedisBusResubscribesAfterConnectionLoss(t *testing.T) {
	b, mr := newRedisBus(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := b.Subscribe(ctx)
	if err != nil {
		t.Fatal(err)
	}

	mr.Close()
	time.Sleep(50 * time.Millisecond)
	if err := mr.Restart(); err != nil {
		t.Fatal(err)
	}

	got := publishUntil(t, b, events, models.FrameReady("s-1", "/p"))
	if got.SessionID != "s-1" || got.Path != "/p" {
		t.Fatalf("unexpected event %+v", got)
	}
}

func TestRedisBusClosesOnCancel(t *testing.T) {
	b, _ := newRedisBus(t)
	ctx, cancel := context.WithCancel(context.Background())

	events, err := b.Subscribe(ctx)
	if err != nil {
		t.Fatal(err)
	}
	cancel()
	select {
	case _, ok := <-events:
		if ok {
			t.Fatal("unexpected event after cancel")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("subscription not closed after cancel")
	}
}
