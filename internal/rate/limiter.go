package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds rate limiter tuning parameters.
type Config struct {
	EnableIPThrottle        bool
	EnableRefreshThrottle   bool
	MaxLoginAttempts        int
	LoginCooldownDuration   time.Duration
	MaxRefreshAttempts      int
	RefreshCooldownDuration time.Duration
}

// Limiter enforces per-email and per-IP budgets on sign-in attempts
// and a per-caller budget on refresh attempts, using Redis counters.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

// New creates a rate [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, cfg Config) *Limiter {
	return &Limiter{
		redis:  redisClient,
		config: cfg,
	}
}

func signInEmailKey(email string) string {
	return "ac:l:" + email
}

func signInIPKey(ip string) string {
	return "ac:li:" + ip
}

func refreshKey(caller string) string {
	return "ac:r:" + caller
}

// CheckSignIn reports whether the email+IP pair is still inside its
// sign-in attempt budget. Returns ErrRateLimited once the budget is
// spent.
func (l *Limiter) CheckSignIn(ctx context.Context, email, ip string) error {
	if err := l.checkCounter(ctx, signInEmailKey(email), l.config.MaxLoginAttempts); err != nil {
		return err
	}

	if l.config.EnableIPThrottle && ip != "" {
		if err := l.checkCounter(ctx, signInIPKey(ip), l.config.MaxLoginAttempts); err != nil {
			return err
		}
	}

	return nil
}

// IncrementSignIn records a failed sign-in attempt for the email+IP
// pair.
func (l *Limiter) IncrementSignIn(ctx context.Context, email, ip string) error {
	count, err := l.incrementWithTTL(ctx, signInEmailKey(email), l.config.LoginCooldownDuration)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxLoginAttempts) {
		return ErrRateLimited
	}

	if l.config.EnableIPThrottle && ip != "" {
		count, err = l.incrementWithTTL(ctx, signInIPKey(ip), l.config.LoginCooldownDuration)
		if err != nil {
			return err
		}
		if count > int64(l.config.MaxLoginAttempts) {
			return ErrRateLimited
		}
	}

	return nil
}

// ResetSignIn clears the failed-attempt counters after a successful
// sign-in.
func (l *Limiter) ResetSignIn(ctx context.Context, email, ip string) error {
	keys := []string{signInEmailKey(email)}
	if l.config.EnableIPThrottle && ip != "" {
		keys = append(keys, signInIPKey(ip))
	}

	if err := l.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return nil
}

// CheckRefresh counts a refresh attempt for the caller and enforces
// the budget. Every attempt counts, successful or not; the throttle
// caps rotation churn, not just abuse.
func (l *Limiter) CheckRefresh(ctx context.Context, caller string) error {
	if !l.config.EnableRefreshThrottle || caller == "" {
		return nil
	}

	count, err := l.incrementWithTTL(ctx, refreshKey(caller), l.config.RefreshCooldownDuration)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxRefreshAttempts) {
		return ErrRateLimited
	}

	return nil
}

// SignInAttempts returns the current counter for an email. Missing
// keys return zero and do not reveal account existence.
func (l *Limiter) SignInAttempts(ctx context.Context, email string) (int, error) {
	count, err := l.redis.Get(ctx, signInEmailKey(email)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

func (l *Limiter) checkCounter(ctx context.Context, key string, maxAttempts int) error {
	count, err := l.redis.Get(ctx, key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	if count >= int64(maxAttempts) {
		return ErrRateLimited
	}

	return nil
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
