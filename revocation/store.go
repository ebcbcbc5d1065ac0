package revocation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrStoreUnavailable is returned when the backing Redis cannot answer.
/// Contains never degrades an outage into a silent "not revoked": callers must
// decide fail-open vs fail-closed themselves.
var ErrStoreUnavailable = errors.New("revocation store unavailable")

// ErrNonPositiveTTL is returned by Add when the token has no remaining
// lifetime. Callers are expected to skip already-dead tokens instead.
var ErrNonPositiveTTL = errors.New("revocation ttl must be > 0")

const defaultPrefix = "blacklist:token:"

// Store records revoked tokens until their natural expiry. Keys are the raw
// token strings; Redis TTLs do the cleanup, so steady-state operation never
// deletes explicitly.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a Store on the given Redis client. An empty prefix
// selects the default "blacklist:token:" namespace.
func NewStore(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{redis: client, prefix: prefix}
}

// Add inserts the token with the given remaining lifetime. The stored value
// is the revocation instant in unix milliseconds, for observability only.
func (s *Store) Add(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrNonPositiveTTL
	}
	value := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if err := s.redis.Set(ctx, s.key(token), value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Contains reports whether the token has been revoked. The raw string is the
// key, so no claim deserialization happens here.
func (s *Store) Contains(ctx context.Context, token string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n > 0, nil
}

// Remove deletes a revocation entry before its TTL lapses. Administrative
// and testing use only; Redis expiry handles the steady state.
func (s *Store) Remove(ctx context.Context, token string) (bool, error) {
	n, err := s.redis.Del(ctx, s.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return n > 0, nil
}

// Count returns the number of revoked tokens currently stored. Approximate
// under concurrent mutation; intended for monitoring.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var total int64
	var cursor uint64
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, s.prefix+"*", 512).Result()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		total += int64(len(keys))
		cursor = next
		if cursor == 0 {
			return total, nil
		}
	}
}

// Clear removes every revocation entry. Testing only.
func (s *Store) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, s.prefix+"*", 512).Result()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		if len(keys) > 0 {
			if err := s.redis.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (s *Store) key(token string) string {
	return s.prefix + token
}
