// Package cache provides a small Redis-backed cache for dashboard
// aggregates. All operations are best effort; a miss or Redis outage
// falls through to the database.
package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	KeyDashboardStats = "analytics:dashboard"
	KeyRevenueDaily   = "analytics:revenue:daily"

	DefaultTTL = 5 * time.Minute
)

// Analytics caches computed aggregates. A nil *Analytics (no Redis
// configured) behaves as an always-miss cache.
type Analytics struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAnalytics returns nil when addr is empty.
func NewAnalytics(addr, password string, ttl time.Duration) *Analytics {
	if addr == "" {
		return nil
	}

	return &Analytics{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		ttl: ttl,
	}
}

// Get unmarshals the cached value for key into dest. Returns false on
// miss or any Redis error.
func (a *Analytics) Get(ctx context.Context, key string, dest interface{}) bool {
	if a == nil {
		return false
	}

	raw, err := a.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[Cache] get %s: %v", key, err)
		}
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		log.Printf("[Cache] decode %s: %v", key, err)
		return false
	}
	return true
}

// Set stores value under key for the configured TTL.
func (a *Analytics) Set(ctx context.Context, key string, value interface{}) {
	if a == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		log.Printf("[Cache] encode %s: %v", key, err)
		return
	}

	if err := a.client.Set(ctx, key, raw, a.ttl).Err(); err != nil {
		log.Printf("[Cache] set %s: %v", key, err)
	}
}

// Invalidate drops the known aggregate keys. Called after writes that
// change order or payment totals.
func (a *Analytics) Invalidate(ctx context.Context) {
	if a == nil {
		return
	}

	if err := a.client.Del(ctx, KeyDashboardStats, KeyRevenueDaily).Err(); err != nil {
		log.Printf("[Cache] invalidate: %v", err)
	}
}
