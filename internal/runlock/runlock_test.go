package runlock

import (
	"context"
	"testing"
	"time"
)

func TestLocalAcquireRelease(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	release, acquired, err := l.Acquire(ctx, "gen:u1", time.Minute)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !acquired {
		t.Fatal("expected first acquire to succeed")
	}

	_, again, err := l.Acquire(ctx, "gen:u1", time.Minute)
	if err != nil {
		t.Fatalf("second acquire: %v", err)
	}
	if again {
		t.Fatal("expected held lock to block a second acquire")
	}

	release()

	_, after, err := l.Acquire(ctx, "gen:u1", time.Minute)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	if !after {
		t.Fatal("expected acquire to succeed after release")
	}
}

func TestLocalIndependentNames(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	_, a, err := l.Acquire(ctx, "gen:u1", time.Minute)
	if err != nil || !a {
		t.Fatalf("acquire u1: acquired=%v err=%v", a, err)
	}
	_, b, err := l.Acquire(ctx, "gen:u2", time.Minute)
	if err != nil || !b {
		t.Fatalf("acquire u2: acquired=%v err=%v", b, err)
	}
}

func TestLocalTTLExpires(t *testing.T) {
	l := NewLocal()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	l.clock = func() time.Time { return now }
	ctx := context.Background()

	_, acquired, err := l.Acquire(ctx, "gen:u1", time.Minute)
	if err != nil || !acquired {
		t.Fatalf("acquire: acquired=%v err=%v", acquired, err)
	}

	// Within the TTL the lock holds; past it the lock falls away even
	// without a release.
	now = now.Add(30 * time.Second)
	_, mid, _ := l.Acquire(ctx, "gen:u1", time.Minute)
	if mid {
		t.Fatal("expected lock to hold within TTL")
	}

	now = now.Add(31 * time.Second)
	_, after, _ := l.Acquire(ctx, "gen:u1", time.Minute)
	if !after {
		t.Fatal("expected lock to expire after TTL")
	}
}
