package cache

import (
	"context"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Outcome names counted per phase.
const (
	OutcomeStarted   = "started"
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

const statsKey = "stats:phases"

// StatsCache keeps service-wide counters of phase and PDF outcomes.
type StatsCache interface {
	Increment(ctx context.Context, name, outcome string) error
	Snapshot(ctx context.Context) (map[string]int64, error)
}

type statsCache struct {
	client *redis.Client
}

func NewStatsCache(client *redis.Client) StatsCache {
	return &statsCache{client: client}
}

func statsField(name, outcome string) string {
	return name + ":" + outcome
}

func (c *statsCache) Increment(ctx context.Context, name, outcome string) error {
	return c.client.HIncrBy(ctx, statsKey, statsField(name, outcome), 1).Err()
}

func (c *statsCache) Snapshot(ctx context.Context) (map[string]int64, error) {
	raw, err := c.client.HGetAll(ctx, statsKey).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(raw))
	for k, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		out[k] = n
	}
	return out, nil
}

type memoryStatsCache struct {
	mu     sync.Mutex
	counts map[string]int64
}

func NewMemoryStatsCache() StatsCache {
	return &memoryStatsCache{counts: make(map[string]int64)}
}

func (c *memoryStatsCache) Increment(_ context.Context, name, outcome string) error {
	c.mu.Lock()
	c.counts[statsField(name, outcome)]++
	c.mu.Unlock()
	return nil
}

func (c *memoryStatsCache) Snapshot(_ context.Context) (map[string]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out, nil
}
