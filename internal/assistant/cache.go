package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrInvalidCacheConfig = errors.New("invalid cache configuration")
	ErrInvalidCacheDriver = errors.New("invalid cache driver")
)

// HandleCache memoizes assistant handles with a bounded lifetime. Entries
// expire after the configured TTL and can be invalidated explicitly when a
// persona is updated.
type HandleCache interface {
	// GetByName returns nil with no error on a miss.
	GetByName(ctx context.Context, name string) (*Handle, error)
	// GetByID returns nil with no error on a miss.
	GetByID(ctx context.Context, assistantID string) (*Handle, error)
	Put(ctx context.Context, handle *Handle) error
	Invalidate(ctx context.Context, name string) error
	Close() error
}

// CacheDriver selects the handle cache backend.
type CacheDriver string

const (
	CacheDriverMemory CacheDriver = "memory"
	CacheDriverRedis  CacheDriver = "redis"
)

const defaultCacheTTL = 24 * time.Hour

// CacheOption is a functional option for configuring a handle cache.
type CacheOption func(*cacheConfig)

type cacheConfig struct {
	redisClient *redis.Client
	ttl         time.Duration
}

// WithRedisClient sets the redis client for the redis driver.
func WithRedisClient(client *redis.Client) CacheOption {
	return func(c *cacheConfig) {
		c.redisClient = client
	}
}

// WithTTL bounds the lifetime of cached handles.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *cacheConfig) {
		c.ttl = ttl
	}
}

// NewHandleCache creates a handle cache for the given driver.
func NewHandleCache(driver CacheDriver, opts ...CacheOption) (HandleCache, error) {
	config := &cacheConfig{ttl: defaultCacheTTL}
	for _, opt := range opts {
		opt(config)
	}
	if config.ttl <= 0 {
		config.ttl = defaultCacheTTL
	}

	switch driver {
	case CacheDriverMemory:
		return &memoryHandleCache{
			byName: make(map[string]memoryEntry),
			byID:   make(map[string]memoryEntry),
			ttl:    config.ttl,
		}, nil
	case CacheDriverRedis:
		if config.redisClient == nil {
			return nil, ErrInvalidCacheConfig
		}
		return &redisHandleCache{client: config.redisClient, ttl: config.ttl}, nil
	default:
		return nil, ErrInvalidCacheDriver
	}
}

type memoryEntry struct {
	handle    *Handle
	expiresAt time.Time
}

// memoryHandleCache keeps handles in-process, keyed by both persona name and
// assistant id.
type memoryHandleCache struct {
	mu     sync.RWMutex
	byName map[string]memoryEntry
	byID   map[string]memoryEntry
	ttl    time.Duration
}

func (c *memoryHandleCache) GetByName(ctx context.Context, name string) (*Handle, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return liveHandle(c.byName[name]), nil
}

func (c *memoryHandleCache) GetByID(ctx context.Context, assistantID string) (*Handle, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return liveHandle(c.byID[assistantID]), nil
}

func (c *memoryHandleCache) Put(ctx context.Context, handle *Handle) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := memoryEntry{handle: handle, expiresAt: time.Now().Add(c.ttl)}
	c.byName[handle.Name] = entry
	c.byID[handle.ID] = entry
	return nil
}

func (c *memoryHandleCache) Invalidate(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.byName[name]; exists && entry.handle != nil {
		delete(c.byID, entry.handle.ID)
	}
	delete(c.byName, name)
	return nil
}

func (c *memoryHandleCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Reset rather than nil out: a late Put must not panic.
	c.byName = make(map[string]memoryEntry)
	c.byID = make(map[string]memoryEntry)
	return nil
}

func liveHandle(entry memoryEntry) *Handle {
	if entry.handle == nil || time.Now().After(entry.expiresAt) {
		return nil
	}
	return entry.handle
}

const (
	handleNameKeyPrefix = "assistant:name:"
	handleIDKeyPrefix   = "assistant:id:"
)

// redisHandleCache stores handles in redis so multiple bot instances share
// one view of the external registry. TTL is enforced by redis itself.
type redisHandleCache struct {
	client *redis.Client
	ttl    time.Duration
}

func (c *redisHandleCache) GetByName(ctx context.Context, name string) (*Handle, error) {
	return c.get(ctx, handleNameKeyPrefix+name)
}

func (c *redisHandleCache) GetByID(ctx context.Context, assistantID string) (*Handle, error) {
	return c.get(ctx, handleIDKeyPrefix+assistantID)
}

func (c *redisHandleCache) get(ctx context.Context, key string) (*Handle, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var handle Handle
	if err := json.Unmarshal([]byte(val), &handle); err != nil {
		return nil, err
	}
	return &handle, nil
}

func (c *redisHandleCache) Put(ctx context.Context, handle *Handle) error {
	val, err := json.Marshal(handle)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, handleNameKeyPrefix+handle.Name, val, c.ttl).Err(); err != nil {
		return err
	}
	return c.client.Set(ctx, handleIDKeyPrefix+handle.ID, val, c.ttl).Err()
}

func (c *redisHandleCache) Invalidate(ctx context.Context, name string) error {
	handle, err := c.GetByName(ctx, name)
	if err != nil {
		return err
	}
	if handle != nil {
		if err := c.client.Del(ctx, handleIDKeyPrefix+handle.ID).Err(); err != nil {
			return err
		}
	}
	return c.client.Del(ctx, handleNameKeyPrefix+name).Err()
}

func (c *redisHandleCache) Close() error {
	return c.client.Close()
}
