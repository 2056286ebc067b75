package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
	"voxllm/internal/model"

	"github.com/redis/go-redis/v9"
)

// SessionCache stores the live case sessions. Get returns nil, nil for an
// unknown or expired id.
type SessionCache interface {
	Set(ctx context.Context, session *model.Session) error
	Get(ctx context.Context, id string) (*model.Session, error)
	Delete(ctx context.Context, id string) error
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a redis-backed session cache. Every write refreshes
// the TTL.
func NewSessionCache(client *redis.Client, ttl time.Duration) SessionCache {
	return &sessionCache{
		client: client,
		ttl:    ttl,
	}
}

func sessionKey(id string) string {
	return fmt.Sprintf("case:%s", id)
}

func (c *sessionCache) Set(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, sessionKey(session.ID), data, c.ttl).Err()
}

func (c *sessionCache) Get(ctx context.Context, id string) (*model.Session, error) {
	data, err := c.client.Get(ctx, sessionKey(id)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session model.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, err
	}
	if session.Record == nil {
		session.Record = model.NewCaseRecord()
	}
	return &session, nil
}

func (c *sessionCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, sessionKey(id)).Err()
}

// memorySessionCache is used when no redis is configured. Sessions are stored
// as JSON so callers never share a pointer with the cache.
type memorySessionCache struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]memoryItem
}

type memoryItem struct {
	data      []byte
	expiresAt time.Time
}

func NewMemorySessionCache(ttl time.Duration) SessionCache {
	return &memorySessionCache{ttl: ttl, now: time.Now, items: make(map[string]memoryItem)}
}

func (c *memorySessionCache) Set(_ context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[session.ID] = memoryItem{data: data, expiresAt: c.now().Add(c.ttl)}
	c.evictLocked()
	return nil
}

func (c *memorySessionCache) Get(_ context.Context, id string) (*model.Session, error) {
	c.mu.Lock()
	item, ok := c.items[id]
	if ok && c.now().After(item.expiresAt) {
		delete(c.items, id)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		return nil, nil
	}
	var session model.Session
	if err := json.Unmarshal(item.data, &session); err != nil {
		return nil, err
	}
	if session.Record == nil {
		session.Record = model.NewCaseRecord()
	}
	return &session, nil
}

func (c *memorySessionCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
	return nil
}

func (c *memorySessionCache) evictLocked() {
	now := c.now()
	for id, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, id)
		}
	}
}
