package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/yourusername/ssr-first/internal/locale"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestMemoryLimiterLocksAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(DefaultLimitPolicy)
	l.now = func() time.Time { return now }

	for i := 1; i < DefaultLimitPolicy.MaxAttempts; i++ {
		remaining, err := l.RecordFailure(ctx, "1.2.3.4")
		if err != nil {
			t.Fatalf("RecordFailure returned error: %v", err)
		}
		if remaining != DefaultLimitPolicy.MaxAttempts-i {
			t.Fatalf("attempt %d: remaining = %d", i, remaining)
		}
	}
	if wait, _ := l.Check(ctx, "1.2.3.4"); wait != 0 {
		t.Fatalf("should not be locked yet, wait=%v", wait)
	}

	if remaining, _ := l.RecordFailure(ctx, "1.2.3.4"); remaining != 0 {
		t.Fatalf("remaining = %d, want 0", remaining)
	}
	if wait, _ := l.Check(ctx, "1.2.3.4"); wait != DefaultLimitPolicy.LockDuration {
		t.Fatalf("wait = %v, want %v", wait, DefaultLimitPolicy.LockDuration)
	}
	if wait, _ := l.Check(ctx, "5.6.7.8"); wait != 0 {
		t.Fatalf("other IPs must not be locked, wait=%v", wait)
	}

	now = now.Add(DefaultLimitPolicy.LockDuration)
	if wait, _ := l.Check(ctx, "1.2.3.4"); wait != 0 {
		t.Fatalf("lock should have expired, wait=%v", wait)
	}
}

func TestMemoryLimiterWindowResets(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(DefaultLimitPolicy)
	l.now = func() time.Time { return now }

	for i := 0; i < DefaultLimitPolicy.MaxAttempts-1; i++ {
		_, _ = l.RecordFailure(ctx, "1.2.3.4")
	}
	now = now.Add(DefaultLimitPolicy.Window + time.Second)
	if remaining, _ := l.RecordFailure(ctx, "1.2.3.4"); remaining != DefaultLimitPolicy.MaxAttempts-1 {
		t.Fatalf("window should have restarted, remaining=%d", remaining)
	}
}

func TestRedisLimiter(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	l := NewRedisLimiter(rdb, DefaultLimitPolicy)

	for i := 1; i < DefaultLimitPolicy.MaxAttempts; i++ {
		remaining, err := l.RecordFailure(ctx, "1.2.3.4")
		if err != nil {
			t.Fatalf("RecordFailure returned error: %v", err)
		}
		if remaining != DefaultLimitPolicy.MaxAttempts-i {
			t.Fatalf("attempt %d: remaining = %d", i, remaining)
		}
	}
	if remaining, err := l.RecordFailure(ctx, "1.2.3.4"); err != nil || remaining != 0 {
		t.Fatalf("RecordFailure = %d, %v", remaining, err)
	}

	wait, err := l.Check(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("Check returned error: %v", err)
	}
	if wait <= 0 || wait > DefaultLimitPolicy.LockDuration {
		t.Fatalf("unexpected wait: %v", wait)
	}

	mr.FastForward(DefaultLimitPolicy.LockDuration + time.Second)
	if wait, err := l.Check(ctx, "1.2.3.4"); err != nil || wait != 0 {
		t.Fatalf("lock should have expired: %v, %v", wait, err)
	}
	if remaining, _ := l.RecordFailure(ctx, "1.2.3.4"); remaining != DefaultLimitPolicy.MaxAttempts-1 {
		t.Fatalf("counter should restart after lock, remaining=%d", remaining)
	}

	if err := l.Reset(ctx, "1.2.3.4"); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}
	if mr.Exists(attemptKeyPrefix + "1.2.3.4") {
		t.Fatal("attempt counter should be removed")
	}
}

func TestPreferenceStore(t *testing.T) {
	ctx := context.Background()
	mr, rdb := newTestRedis(t)
	store := NewPreferenceStore(rdb)

	if _, ok, err := store.Get(ctx, "emu"); err != nil || ok {
		t.Fatalf("expected no stored preference, ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, "emu", locale.EN); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	l, ok, err := store.Get(ctx, "emu")
	if err != nil || !ok || l != locale.EN {
		t.Fatalf("Get = %s, %v, %v", l, ok, err)
	}

	if err := store.Set(ctx, "emu", locale.Locale("fr")); err == nil {
		t.Fatal("expected error for unsupported locale")
	}

	mr.Set(preferenceKeyPrefix+"emu", "xx")
	if _, ok, err := store.Get(ctx, "emu"); err != nil || ok {
		t.Fatalf("unsupported stored value must be ignored, ok=%v err=%v", ok, err)
	}
}
