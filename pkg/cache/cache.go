// Package cache provides the Redis shadow store for bridge transactions and
// validation results. The cache is advisory for transactions (callers fall
// back to the durable store on any error) but load-bearing for consensus
// results, which live only here.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/yieldrail/bridge-orchestrator/pkg/config"
)

const (
	transactionKeyPrefix = "bridge:"
	validationKeyPrefix  = "validation:"
)

// Cache wraps a redigo connection pool with typed accessors
type Cache struct {
	pool           *redis.Pool
	transactionTTL time.Duration
	validationTTL  time.Duration
}

// New creates a cache backed by a Redis connection pool
func New(cfg *config.RedisConfig) *Cache {
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	opts := []redis.DialOption{
		redis.DialConnectTimeout(dialTimeout),
		redis.DialReadTimeout(dialTimeout),
		redis.DialWriteTimeout(dialTimeout),
	}

	transactionTTL := cfg.TransactionTTL
	if transactionTTL <= 0 {
		transactionTTL = time.Hour
	}
	validationTTL := cfg.ValidationTTL
	if validationTTL <= 0 {
		validationTTL = 10 * time.Minute
	}

	return &Cache{
		pool: &redis.Pool{
			MaxIdle: cfg.MaxIdle,
			Dial:    func() (redis.Conn, error) { return redis.Dial("tcp", addr, opts...) },
		},
		transactionTTL: transactionTTL,
		validationTTL:  validationTTL,
	}
}

// Ping checks cache connectivity
func (c *Cache) Ping(ctx context.Context) error {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Do("PING")
	return err
}

// Close releases the connection pool
func (c *Cache) Close() error {
	return c.pool.Close()
}

// GetJSON reads the value at key into v. A missing key is not an error: the
// returned bool reports whether the key was present.
func (c *Cache) GetJSON(ctx context.Context, key string, v interface{}) (bool, error) {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	payload, err := redis.Bytes(conn.Do("GET", key))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return false, nil
		}
		return false, err
	}

	if err := json.Unmarshal(payload, v); err != nil {
		return false, fmt.Errorf("cannot unmarshal cached value at %s: %w", key, err)
	}
	return true, nil
}

// SetJSON writes v at key with the given TTL
func (c *Cache) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cannot marshal value for %s: %w", key, err)
	}

	_, err = conn.Do("SET", key, payload, "EX", int64(ttl.Seconds()))
	return err
}

// Delete removes key from the cache
func (c *Cache) Delete(ctx context.Context, key string) error {
	conn, err := c.pool.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.Do("DEL", key)
	return err
}

// TransactionKey returns the shadow-copy key for a bridge transaction
func TransactionKey(id string) string {
	return transactionKeyPrefix + id
}

// ValidationKey returns the key for a consensus validation result
func ValidationKey(id string) string {
	return validationKeyPrefix + id
}

// TransactionTTL returns the configured TTL for transaction shadow copies
func (c *Cache) TransactionTTL() time.Duration {
	return c.transactionTTL
}

// ValidationTTL returns the configured TTL for validation results
func (c *Cache) ValidationTTL() time.Duration {
	return c.validationTTL
}
