package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	if err := s.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, _ := s.Get(ctx, "k"); got != "v" {
		t.Fatalf("Get = %q, want v", got)
	}

	now = now.Add(2 * time.Minute)
	if got, _ := s.Get(ctx, "k"); got != "" {
		t.Fatalf("Get after expiry = %q, want empty", got)
	}
}

func TestMemoryStoreMiss(t *testing.T) {
	s := NewMemoryStore()
	got, err := s.Get(context.Background(), "missing")
	if err != nil || got != "" {
		t.Fatalf("Get = (%q, %v), want empty miss", got, err)
	}
}

func TestMemoryStoreIncrWindow(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := s.Incr(ctx, "ip:1.2.3.4", time.Minute)
		if err != nil || got != want {
			t.Fatalf("Incr = (%d, %v), want %d", got, err, want)
		}
	}

	now = now.Add(61 * time.Second)
	if got, _ := s.Incr(ctx, "ip:1.2.3.4", time.Minute); got != 1 {
		t.Fatalf("Incr after window = %d, want 1", got)
	}
}
