package authcore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRefreshConcurrencySingleWinner(t *testing.T) {
	engine, _, _, done := newTestEngine(t, nil)
	defer done()
	ctx := context.Background()

	pair, err := engine.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)

	type outcome struct {
		pair *TokenPair
		err  error
	}
	results := make(chan outcome, n)

	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			next, err := engine.Refresh(ctx, pair.RefreshToken)
			results <- outcome{pair: next, err: err}
		}()
	}
	wg.Wait()
	close(results)

	var winners []*TokenPair
	for res := range results {
		if res.err == nil {
			winners = append(winners, res.pair)
			continue
		}
		if !errors.Is(res.err, ErrRefreshExpired) {
			t.Fatalf("loser saw unexpected error: %v", res.err)
		}
	}

	if len(winners) != 1 {
		t.Fatalf("expected exactly one refresh winner, got %d", len(winners))
	}

	// Only the winner's successor is rotatable.
	if _, err := engine.Refresh(ctx, winners[0].RefreshToken); err != nil {
		t.Fatalf("winner's successor failed to rotate: %v", err)
	}
}

func TestRefreshThrottleByClientIP(t *testing.T) {
	engine, _, _, done := newTestEngine(t, func(cfg *Config) {
		cfg.Security.EnableRefreshThrottle = true
		cfg.Security.MaxRefreshAttempts = 2
		cfg.Security.RefreshCooldownDuration = time.Minute
	})
	defer done()
	ctx := WithClientIP(context.Background(), "203.0.113.7")

	pair, err := engine.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		pair, err = engine.Refresh(ctx, pair.RefreshToken)
		if err != nil {
			t.Fatalf("refresh %d failed: %v", i, err)
		}
	}

	if _, err := engine.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrRefreshRateLimited) {
		t.Fatalf("expected ErrRefreshRateLimited, got %v", err)
	}

	// Callers without an attached IP are not throttled.
	if _, err := engine.Refresh(context.Background(), pair.RefreshToken); err != nil {
		t.Fatalf("unthrottled refresh failed: %v", err)
	}
}

func TestRotatedTokenInheritsRemainingLifetime(t *testing.T) {
	engine, _, _, done := newTestEngine(t, func(cfg *Config) {
		cfg.JWT.RefreshTTL = time.Hour
	})
	defer done()
	ctx := context.Background()

	pair, err := engine.Issue(ctx, "user-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	next, err := engine.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	// The successor's expiry stays inside the original window; rotation
	// must never extend a session's life.
	info, err := engine.parseRefreshInfo(next.RefreshToken)
	if err != nil {
		t.Fatalf("parsing successor failed: %v", err)
	}
	remaining := time.Until(info.ExpiresAt)
	if remaining > time.Hour {
		t.Fatalf("rotation extended the session window: %v remaining", remaining)
	}
	if remaining < 55*time.Minute {
		t.Fatalf("successor lost too much lifetime: %v remaining", remaining)
	}
}
