// Package idempotency remembers the outcome of requests carrying an
// Idempotency-Key so that a retried request is answered from the first result.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrInProgress is returned when another request holds the key.
var ErrInProgress = errors.New("request with this idempotency key is in progress")

// Claim is the right to process a key, obtained from Begin.
type Claim struct {
	Key   string
	Token string
}

type Store interface {
	// Begin claims key. When the key already holds a completed result, the
	// result is returned and claim is nil.
	Begin(ctx context.Context, key string) (claim *Claim, result []byte, err error)
	Complete(ctx context.Context, claim *Claim, result []byte) error
	// Abort releases the claim so that the request can be retried.
	Abort(ctx context.Context, claim *Claim) error
}

const (
	pendingPrefix = "pending:"
	donePrefix    = "done:"
)

var beginScript = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if v then
  return v
end
redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
return ""
`)

var completeScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
  return 1
end
return 0
`)

var abortScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore implements Store with one Redis string per key.
type RedisStore struct {
	client  redis.UniversalClient
	prefix  string
	ttl     time.Duration
	lockTTL time.Duration
}

func NewRedisStore(client redis.UniversalClient, prefix string, ttl, lockTTL time.Duration) *RedisStore {
	trimmed := strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if trimmed == "" {
		trimmed = "iotkit:idempotency"
	}
	return &RedisStore{client: client, prefix: trimmed, ttl: ttl, lockTTL: lockTTL}
}

func (s *RedisStore) redisKey(key string) string {
	return fmt.Sprintf("%s:%s", s.prefix, strings.TrimSpace(key))
}

func (s *RedisStore) Begin(ctx context.Context, key string) (*Claim, []byte, error) {
	claim := &Claim{Key: s.redisKey(key), Token: pendingPrefix + uuid.NewString()}

	raw, err := beginScript.Run(ctx, s.client, []string{claim.Key}, claim.Token, s.lockTTL.Milliseconds()).Text()
	if err != nil {
		return nil, nil, err
	}
	return decodeExisting(claim, raw)
}

func decodeExisting(claim *Claim, raw string) (*Claim, []byte, error) {
	switch {
	case raw == "":
		return claim, nil, nil
	case strings.HasPrefix(raw, donePrefix):
		return nil, []byte(strings.TrimPrefix(raw, donePrefix)), nil
	case strings.HasPrefix(raw, pendingPrefix):
		return nil, nil, ErrInProgress
	default:
		return nil, nil, fmt.Errorf("unexpected idempotency value for %s", claim.Key)
	}
}

func (s *RedisStore) Complete(ctx context.Context, claim *Claim, result []byte) error {
	if claim == nil {
		return nil
	}
	stored, err := completeScript.Run(ctx, s.client, []string{claim.Key}, claim.Token, donePrefix+string(result), s.ttl.Milliseconds()).Int()
	if err != nil {
		return err
	}
	if stored == 0 {
		return fmt.Errorf("idempotency claim on %s expired before completion", claim.Key)
	}
	return nil
}

func (s *RedisStore) Abort(ctx context.Context, claim *Claim) error {
	if claim == nil {
		return nil
	}
	return abortScript.Run(ctx, s.client, []string{claim.Key}, claim.Token).Err()
}

// NoopStore never remembers anything; every Begin succeeds.
type NoopStore struct{}

func (NoopStore) Begin(ctx context.Context, key string) (*Claim, []byte, error) {
	return &Claim{Key: key}, nil, nil
}

func (NoopStore) Complete(ctx context.Context, claim *Claim, result []byte) error { return nil }

func (NoopStore) Abort(ctx context.Context, claim *Claim) error { return nil }
