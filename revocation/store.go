package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrUnavailable wraps every transport-level Redis failure so callers
// can distinguish a store outage (retryable) from a security rejection
// (terminal).
var ErrUnavailable = errors.New("revocation store unavailable")

// ErrSessionNotFound is returned when the rotation target key is
// absent: the identifier expired, was revoked, or was already consumed
// by a prior rotation.
var ErrSessionNotFound = errors.New("refresh session not found")

// ErrOwnerMismatch is returned when the rotation target exists but is
// owned by a different user than the one claimed by the presented
// token.
var ErrOwnerMismatch = errors.New("refresh session owner mismatch")

const (
	rotateStatusNotFound int64 = 0
	rotateStatusMismatch int64 = 1
	rotateStatusRotated  int64 = 2
)

// Compare-then-swap across two keys: retire the old identifier and
// install its successor in one indivisible step. Exactly one of N
// concurrent callers presenting the same old jti can observe the key
// and win; everyone else sees not-found. An owner mismatch leaves the
// stored session untouched.
const rotateScript = `
local current = redis.call("GET", KEYS[1])
if current == false then
  return 0
end
if current ~= ARGV[1] then
  return 1
end
redis.call("DEL", KEYS[1])
redis.call("SET", KEYS[2], ARGV[1], "PX", ARGV[2])
local user_key = ARGV[5] .. current
redis.call("SREM", user_key, ARGV[3])
redis.call("SADD", user_key, ARGV[4])
return 2
`

var rotateLua = redis.NewScript(rotateScript)

// The stored value is the owning user ID, which the delete script needs
// to fix the owner index before removing the key.
const deleteScript = `
local current = redis.call("GET", KEYS[1])
if current == false then
  return 0
end
redis.call("SREM", ARGV[2] .. current, ARGV[1])
redis.call("DEL", KEYS[1])
return 1
`

var deleteLua = redis.NewScript(deleteScript)

// Store is the revocation-store adapter: the authoritative, TTL-capable
// record of which refresh identifiers are currently alive. One key per
// live session maps jti to the owning user ID; a per-user index set
// supports owner-scoped bulk revocation.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a revocation [Store] backed by the given Redis
// client. prefix sets the key namespace; the default used by the
// engine is "refresh", yielding keys of the form "refresh:<jti>".
func NewStore(redisClient redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "refresh"
	}
	return &Store{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *Store) key(jti string) string {
	return s.prefix + ":" + jti
}

func (s *Store) userPrefix() string {
	return s.prefix + ":u:"
}

func (s *Store) userKey(userID string) string {
	return s.userPrefix() + userID
}

// Register installs jti as a live session owned by userID, expiring
// after ttl. Issuance must not hand out a token pair until this call
// has succeeded.
func (s *Store) Register(ctx context.Context, jti, userID string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("non-positive session ttl")
	}

	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(jti), userID, ttl)
		pipe.SAdd(ctx, s.userKey(userID), jti)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return nil
}

// Rotate atomically retires oldJti and installs newJti with expiry ttl,
// provided the stored owner equals userID. The two-key swap runs as a
// single Lua script; separate read/delete/write calls would reintroduce
// the replay race this store exists to close.
func (s *Store) Rotate(ctx context.Context, oldJti, userID, newJti string, ttl time.Duration) error {
	// The script takes PX milliseconds; a sub-millisecond remainder
	// truncates to PX 0, which Redis rejects. Treat it as expiry.
	if ttl < time.Millisecond {
		return ErrSessionNotFound
	}

	status, err := rotateLua.Run(
		ctx,
		s.redis,
		[]string{s.key(oldJti), s.key(newJti)},
		userID,
		ttl.Milliseconds(),
		oldJti,
		newJti,
		s.userPrefix(),
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch status {
	case rotateStatusNotFound:
		return ErrSessionNotFound
	case rotateStatusMismatch:
		return ErrOwnerMismatch
	case rotateStatusRotated:
		return nil
	default:
		return fmt.Errorf("%w: unknown rotate script status %d", ErrUnavailable, status)
	}
}

// IsLive reports whether jti currently names a live session. Read-only;
// a check racing a concurrent rotation may observe either side of the
// swap, both of which are momentarily valid.
func (s *Store) IsLive(ctx context.Context, jti string) (bool, error) {
	_, err := s.redis.Get(ctx, s.key(jti)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return true, nil
}

// Owner returns the user ID recorded for jti, or ErrSessionNotFound.
func (s *Store) Owner(ctx context.Context, jti string) (string, error) {
	owner, err := s.redis.Get(ctx, s.key(jti)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrSessionNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return owner, nil
}

// Delete removes jti unconditionally. Deleting an absent key is a
// no-op success, so explicit revocation is idempotent.
func (s *Store) Delete(ctx context.Context, jti string) error {
	if _, err := deleteLua.Run(
		ctx,
		s.redis,
		[]string{s.key(jti)},
		jti,
		s.userPrefix(),
	).Result(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// DeleteAllForUser removes every indexed session owned by userID.
//
// ATOMICITY NOTE: this is NOT fully atomic. It reads the owner index
// (SMembers) and then deletes in a MULTI/EXEC pipeline; a session
// issued between the read and the delete survives this call and only
// falls to its own TTL or a later DeleteAllForUser. Callers get
// best-effort bulk revocation, not an instant global guarantee.
func (s *Store) DeleteAllForUser(ctx context.Context, userID string) (int, error) {
	userKey := s.userKey(userID)

	jtis, err := s.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	sessionKeys := make([]string, 0, len(jtis))
	for _, jti := range jtis {
		sessionKeys = append(sessionKeys, s.key(jti))
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(sessionKeys) > 0 {
			pipe.Del(ctx, sessionKeys...)
		}
		pipe.Del(ctx, userKey)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return len(sessionKeys), nil
}

// ActiveSessionCount returns the number of indexed identifiers for a
// user. The index may briefly include identifiers whose keys already
// expired; treat the result as an upper bound.
func (s *Store) ActiveSessionCount(ctx context.Context, userID string) (int, error) {
	count, err := s.redis.SCard(ctx, s.userKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return int(count), nil
}

// Ping returns a point-in-time availability check and its latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return time.Since(start), nil
}
