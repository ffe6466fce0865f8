package rate

import "errors"

var (
	// ErrRateLimited marks a caller inside an active cooldown window.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable wraps transport-level Redis failures.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
