package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// GlobalNamespace holds station-wide keys such as the instance registry
const GlobalNamespace = "global"

const lockRetryInterval = 5 * time.Millisecond

// unlockScript deletes the lock only while it still holds the caller's token
const unlockScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`

// KV is a namespaced key/value store with a bounded list type for snapshots
type KV interface {
	// Get returns the value and whether the key exists
	Get(ctx context.Context, namespace, key string) (string, bool, error)
	Set(ctx context.Context, namespace, key, value string) error
	Delete(ctx context.Context, namespace, key string) error

	// PushBounded puts value at the head of the list and evicts entries past max
	PushBounded(ctx context.Context, namespace, key, value string, max int) error
	ListRange(ctx context.Context, namespace, key string) ([]string, error)
	// ListIndex returns the entry at a 0-based position and whether it exists
	ListIndex(ctx context.Context, namespace, key string, index int) (string, bool, error)
	// TrimList keeps the first keep entries
	TrimList(ctx context.Context, namespace, key string, keep int) error

	// Lock blocks until it holds the named lock of a namespace or ctx is done.
	// The lock expires after ttl if unlock is never called.
	Lock(ctx context.Context, namespace, name string, ttl time.Duration) (unlock func(), err error)
}

// RedisKV implements KV on top of Redis
type RedisKV struct {
	Client *redis.Client
}

// NewRedisKV creates a new RedisKV instance
func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{Client: client}
}

// Helper to generate a namespaced key
func redisKey(namespace, key string) string {
	return namespace + ":" + key
}

func (s *RedisKV) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	val, err := s.Client.Get(ctx, redisKey(namespace, key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get %s from Redis: %w", redisKey(namespace, key), err)
	}
	return val, true, nil
}

func (s *RedisKV) Set(ctx context.Context, namespace, key, value string) error {
	if err := s.Client.Set(ctx, redisKey(namespace, key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s in Redis: %w", redisKey(namespace, key), err)
	}
	return nil
}

func (s *RedisKV) Delete(ctx context.Context, namespace, key string) error {
	if err := s.Client.Del(ctx, redisKey(namespace, key)).Err(); err != nil {
		return fmt.Errorf("failed to delete %s from Redis: %w", redisKey(namespace, key), err)
	}
	return nil
}

func (s *RedisKV) PushBounded(ctx context.Context, namespace, key, value string, max int) error {
	if max < 1 {
		return nil
	}
	listKey := redisKey(namespace, key)
	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, listKey, value)
		pipe.LTrim(ctx, listKey, 0, int64(max-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to push to %s: %w", listKey, err)
	}
	return nil
}

func (s *RedisKV) ListRange(ctx context.Context, namespace, key string) ([]string, error) {
	vals, err := s.Client.LRange(ctx, redisKey(namespace, key), 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read list %s: %w", redisKey(namespace, key), err)
	}
	return vals, nil
}

func (s *RedisKV) ListIndex(ctx context.Context, namespace, key string, index int) (string, bool, error) {
	if index < 0 {
		return "", false, nil
	}
	val, err := s.Client.LIndex(ctx, redisKey(namespace, key), int64(index)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read %s[%d]: %w", redisKey(namespace, key), index, err)
	}
	return val, true, nil
}

func (s *RedisKV) TrimList(ctx context.Context, namespace, key string, keep int) error {
	listKey := redisKey(namespace, key)
	var err error
	if keep < 1 {
		err = s.Client.Del(ctx, listKey).Err()
	} else {
		err = s.Client.LTrim(ctx, listKey, 0, int64(keep-1)).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to trim %s: %w", listKey, err)
	}
	return nil
}

func (s *RedisKV) Lock(ctx context.Context, namespace, name string, ttl time.Duration) (func(), error) {
	lockKey := redisKey(namespace, "lock:"+name)
	token := uuid.NewString()

	for {
		ok, err := s.Client.SetNX(ctx, lockKey, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire %s: %w", lockKey, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to acquire %s: %w", lockKey, ctx.Err())
		case <-time.After(lockRetryInterval):
		}
	}

	return func() {
		// The request context may already be cancelled; the lock must still go.
		if err := s.Client.Eval(context.Background(), unlockScript, []string{lockKey}, token).Err(); err != nil {
			log.Printf("Failed to release %s: %v", lockKey, err)
		}
	}, nil
}

// --- Utility ---

// InitializeRedisClient creates and tests a Redis client connection
func InitializeRedisClient(addr, password string, dbIndex int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       dbIndex,
	})

	// Ping Redis to check connection
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", addr, err)
	}

	log.Printf("Successfully connected to Redis %s DB %d", addr, dbIndex)
	return rdb, nil
}
