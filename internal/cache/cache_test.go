package cache

import (
	"context"
	"testing"
	"time"
)

type snapshot struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

func TestMemoryCacheRoundTripAndExpiry(t *testing.T) {
	c := NewMemoryCache(4)
	now := time.Unix(1000, 0)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	if err := c.SetJSON(ctx, SessionKey("a"), snapshot{ID: "a", State: "complete"}, time.Minute); err != nil {
		t.Fatal(err)
	}
	var got snapshot
	hit, err := c.GetJSON(ctx, SessionKey("a"), &got)
	if err != nil || !hit || got.State != "complete" {
		t.Fatalf("hit=%v err=%v got=%+v", hit, err, got)
	}

	now = now.Add(2 * time.Minute)
	if hit, _ := c.GetJSON(ctx, SessionKey("a"), &got); hit {
		t.Fatalf("expired entry should miss")
	}
}

func TestMemoryCacheEvictsSoonestExpiry(t *testing.T) {
	c := NewMemoryCache(2)
	ctx := context.Background()

	_ = c.SetJSON(ctx, "long", snapshot{ID: "long"}, time.Hour)
	_ = c.SetJSON(ctx, "short", snapshot{ID: "short"}, time.Minute)
	_ = c.SetJSON(ctx, "new", snapshot{ID: "new"}, time.Hour)

	var s snapshot
	if hit, _ := c.GetJSON(ctx, "short", &s); hit {
		t.Fatalf("entry closest to expiry should have been evicted")
	}
	for _, k := range []string{"long", "new"} {
		if hit, _ := c.GetJSON(ctx, k, &s); !hit {
			t.Fatalf("%s should still be cached", k)
		}
	}
}

func TestMemoryCacheCorruptEntryIsMiss(t *testing.T) {
	c := NewMemoryCache(2)
	ctx := context.Background()
	_ = c.SetJSON(ctx, "k", []int{1, 2}, 0)

	var s snapshot
	hit, err := c.GetJSON(ctx, "k", &s)
	if hit || err != nil {
		t.Fatalf("hit=%v err=%v", hit, err)
	}
	if _, ok := c.entries["k"]; ok {
		t.Fatalf("corrupt entry should be dropped")
	}
}
