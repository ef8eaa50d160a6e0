package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/NagyErvin-ZY/gee-media-service-api/internal/model"
)

// Claim status is polled by clients while the video flow is in flight, so it
// gets a short cache-aside TTL. Invalidated on every transition.
const ClaimCacheTTL = 30 * time.Second

// CacheService provides a Redis cache-aside layer for claim status reads.
type CacheService struct {
	rdb *redis.Client
}

// NewCacheService creates a new CacheService. If redisURL is empty or the
// connection fails, the returned service carries a nil client and every
// operation becomes a no-op.
func NewCacheService(redisURL string) *CacheService {
	if redisURL == "" {
		log.Println("redis: no URL configured, caching disabled")
		return &CacheService{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("redis: invalid URL %q, caching disabled: %v", redisURL, err)
		return &CacheService{}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("redis: connection failed, caching disabled: %v", err)
		return &CacheService{}
	}

	log.Println("redis: connected, caching enabled")
	return &CacheService{rdb: rdb}
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *CacheService) Client() *redis.Client {
	return c.rdb
}

// GetClaim retrieves a cached claim. Returns nil when not cached or the cache
// is disabled.
func (c *CacheService) GetClaim(ctx context.Context, claimID string) (*model.Claim, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, claimKey(claimID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var claim model.Claim
	if err := json.Unmarshal(data, &claim); err != nil {
		return nil, err
	}
	return &claim, nil
}

// SetClaim stores a claim in cache.
func (c *CacheService) SetClaim(ctx context.Context, claim *model.Claim) error {
	if c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(claim)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, claimKey(claim.ID), b, ClaimCacheTTL).Err()
}

// InvalidateClaim removes a claim from cache (called on every transition).
func (c *CacheService) InvalidateClaim(ctx context.Context, claimID string) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, claimKey(claimID)).Err()
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func claimKey(claimID string) string {
	return fmt.Sprintf("claim:%s", claimID)
}
