package services

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"gitalong_server/models"

	"github.com/redis/go-redis/v9"
)

// RecommendationCache holds recently served recommendation lists per user,
// bounded by a time-to-live. A cache read failure is just a miss.
type RecommendationCache interface {
	Get(ctx context.Context, userID string) ([]models.Recommendation, bool)
	Set(ctx context.Context, userID string, recs []models.Recommendation)
	Invalidate(ctx context.Context, userID string)
}

const recommendationKeyPrefix = "recs:"

// RedisRecommendationCache shares the cache across server instances.
type RedisRecommendationCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisRecommendationCache parses the redis URL and verifies connectivity.
func NewRedisRecommendationCache(redisURL string, ttl time.Duration) (*RedisRecommendationCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &RedisRecommendationCache{Client: client, TTL: ttl}, nil
}

func (c *RedisRecommendationCache) Get(ctx context.Context, userID string) ([]models.Recommendation, bool) {
	raw, err := c.Client.Get(ctx, recommendationKeyPrefix+userID).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("⚠️ Redis cache read failed for %s: %v", userID, err)
		}
		return nil, false
	}
	var recs []models.Recommendation
	if err := json.Unmarshal(raw, &recs); err != nil {
		log.Printf("⚠️ Corrupt cache entry for %s: %v", userID, err)
		return nil, false
	}
	return recs, true
}

func (c *RedisRecommendationCache) Set(ctx context.Context, userID string, recs []models.Recommendation) {
	raw, err := json.Marshal(recs)
	if err != nil {
		return
	}
	if err := c.Client.Set(ctx, recommendationKeyPrefix+userID, raw, c.TTL).Err(); err != nil {
		log.Printf("⚠️ Redis cache write failed for %s: %v", userID, err)
	}
}

func (c *RedisRecommendationCache) Invalidate(ctx context.Context, userID string) {
	if err := c.Client.Del(ctx, recommendationKeyPrefix+userID).Err(); err != nil {
		log.Printf("⚠️ Redis cache invalidation failed for %s: %v", userID, err)
	}
}

// MemoryRecommendationCache is the single-instance fallback used when no
// redis URL is configured, and in tests.
type MemoryRecommendationCache struct {
	TTL time.Duration

	mu      sync.Mutex
	entries map[string]memoryCacheEntry
}

type memoryCacheEntry struct {
	recs      []models.Recommendation
	expiresAt time.Time
}

func NewMemoryRecommendationCache(ttl time.Duration) *MemoryRecommendationCache {
	return &MemoryRecommendationCache{
		TTL:     ttl,
		entries: map[string]memoryCacheEntry{},
	}
}

func (c *MemoryRecommendationCache) Get(ctx context.Context, userID string) ([]models.Recommendation, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[userID]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(c.entries, userID)
		return nil, false
	}
	return entry.recs, true
}

func (c *MemoryRecommendationCache) Set(ctx context.Context, userID string, recs []models.Recommendation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = memoryCacheEntry{recs: recs, expiresAt: time.Now().Add(c.TTL)}
}

func (c *MemoryRecommendationCache) Invalidate(ctx context.Context, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}
