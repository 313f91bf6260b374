package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/wonny/adpilot/pkg/logger"
)

// ErrCorruptEntry is returned by Get when a cached value cannot be decoded
var ErrCorruptEntry = errors.New("corrupt cache entry")

// Cache provides typed caching utilities
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
	logger *logger.Logger // nil = 로그 없음
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

// WithLogger sets the logger used to report corrupt entries
func (c *Cache) WithLogger(log *logger.Logger) *Cache {
	c.logger = log
	return c
}

// Get retrieves a cached value
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	data, err := c.client.Redis().Get(ctx, fullKey).Bytes()
	if err != nil {
		// Key not found is not an error
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		resetDest(dest)
		return false, fmt.Errorf("%w %s: %v", ErrCorruptEntry, key, err)
	}

	return true, nil
}

// Set stores a value in cache with TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	return c.client.Redis().Set(ctx, fullKey, data, ttl).Err()
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}

	fullKey := fmt.Sprintf("%s:cache:%s", c.prefix, key)
	return c.client.Redis().Del(ctx, fullKey).Err()
}

// GetOrSet retrieves from cache or calls fn to populate it
func (c *Cache) GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration, fn func() (interface{}, error)) error {
	// Try cache first
	found, err := c.Get(ctx, key, dest)
	switch {
	case errors.Is(err, ErrCorruptEntry):
		// 깨진 항목은 miss 로 취급하고 다시 채움
		if c.logger != nil {
			c.logger.WithError(err).WithField("key", key).Warn("Corrupt cache entry, reloading")
		}
		_ = c.Delete(ctx, key)
	case err != nil:
		return err
	case found:
		return nil
	}

	// Cache miss - call function
	value, err := fn()
	if err != nil {
		return err
	}

	// Store in cache (실패해도 값은 반환)
	_ = c.Set(ctx, key, value, ttl)

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal failed: %w", err)
	}
	return json.Unmarshal(data, dest)
}

// resetDest zeroes a partially decoded destination
func resetDest(dest interface{}) {
	v := reflect.ValueOf(dest)
	if v.Kind() == reflect.Pointer && !v.IsNil() {
		v.Elem().Set(reflect.Zero(v.Elem().Type()))
	}
}

// Predefined TTLs
const (
	TTLShort  = 1 * time.Minute  // API 응답
	TTLMedium = 10 * time.Minute // campaign snapshot
)

// CampaignSnapshotKey is the cache key of a campaign snapshot
func CampaignSnapshotKey(campaignID string) string {
	return fmt.Sprintf("campaign:snapshot:%s", campaignID)
}
