package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLimiterWaitThrottlesSameHost(t *testing.T) {
	t.Parallel()

	// 10 RPS with burst 1 leaves a ~100ms gap between tokens.
	l := New(Config{RatePerSecond: 10, Burst: 1})
	ctx := context.Background()

	if err := l.Wait(ctx, "https://html.duckduckgo.com/html/?q=a"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	start := time.Now()
	if err := l.Wait(ctx, "https://html.duckduckgo.com/html/?q=b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dur := time.Since(start); dur < 80*time.Millisecond {
		t.Errorf("expected wait ~100ms, got %v", dur)
	}
	if l.Hosts() != 1 {
		t.Fatalf("expected a single bucket, got %d", l.Hosts())
	}
}

func TestLimiterDifferentHosts(t *testing.T) {
	t.Parallel()

	l := New(Config{RatePerSecond: 1, Burst: 1})
	ctx := context.Background()

	if err := l.Wait(ctx, "https://a.example/1"); err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	if err := l.Wait(ctx, "https://b.example/1"); err != nil {
		t.Fatal(err)
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Errorf("host b blocked unexpectedly")
	}
	if l.Hosts() != 2 {
		t.Fatalf("expected two buckets, got %d", l.Hosts())
	}
}

func TestLimiterRespectsContext(t *testing.T) {
	t.Parallel()

	l := New(Config{RatePerSecond: 0.01, Burst: 1})
	if err := l.Wait(context.Background(), "https://slow.example"); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Wait(ctx, "https://slow.example")
	if err == nil {
		t.Fatal("expected wait to fail once the context expires")
	}
}

func TestLimiterUnlimited(t *testing.T) {
	t.Parallel()

	l := New(Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	for i := 0; i < 50; i++ {
		if err := l.Wait(ctx, "https://fast.example"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	cancel()
	if err := l.Wait(ctx, "https://fast.example"); err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("unexpected error type: %v", err)
	}
}
