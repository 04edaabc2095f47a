package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"ashasetu-backend/shared/config"
)

// CacheManager wraps the optional Redis cache used for the public blood
// request listing. Every method is nil-safe: with no Redis configured the
// listing simply always hits the database.
type CacheManager struct {
	client *redis.Client
	ctx    context.Context
}

// ListPageTTL keeps cached listing pages short-lived; writes invalidate
// eagerly, the TTL is a backstop.
var ListPageTTL = 30 * time.Second

const listKeyPrefix = "bloodreq:list:"

// InitCacheManager connects to Redis when the cache is enabled in config.
// Returns nil (no error) when disabled.
func InitCacheManager(cfg *config.Config) (*CacheManager, error) {
	if !cfg.RedisEnabled {
		log.Println("ℹ️  Redis cache disabled, request listing will always hit the database")
		return nil, nil
	}

	redisDB, err := strconv.Atoi(cfg.RedisDB)
	if err != nil {
		log.Printf("❌ Invalid Redis DB number: %s, using default 0", cfg.RedisDB)
		redisDB = 0
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       redisDB,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %v", err)
	}

	log.Printf("✅ Redis cache initialized - %s:%s DB:%d", cfg.RedisHost, cfg.RedisPort, redisDB)

	return &CacheManager{client: client, ctx: ctx}, nil
}

// ListPageKey builds the cache key for one filtered listing page.
func ListPageKey(bloodGroup, urgency, status, city string, limit, offset int) string {
	return fmt.Sprintf("%sbg=%s:urg=%s:st=%s:city=%s:l=%d:o=%d",
		listKeyPrefix, bloodGroup, urgency, status, city, limit, offset)
}

// GetListPage returns a cached listing page, or a miss.
func (cm *CacheManager) GetListPage(key string, dest interface{}) bool {
	if cm == nil || cm.client == nil {
		return false
	}

	result, err := cm.client.Get(cm.ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("❌ Cache error: %v", err)
		}
		return false
	}

	if err := json.Unmarshal([]byte(result), dest); err != nil {
		log.Printf("❌ Failed to unmarshal cached page: %v", err)
		return false
	}

	return true
}

// SetListPage caches one listing page.
func (cm *CacheManager) SetListPage(key string, value interface{}) {
	if cm == nil || cm.client == nil {
		return
	}

	jsonData, err := json.Marshal(value)
	if err != nil {
		log.Printf("❌ Failed to marshal page for cache: %v", err)
		return
	}

	if err := cm.client.Set(cm.ctx, key, jsonData, ListPageTTL).Err(); err != nil {
		log.Printf("❌ Failed to set cache: %v", err)
	}
}

// InvalidateListPages drops every cached listing page. Called after any
// write that changes listing rows or their response counts.
func (cm *CacheManager) InvalidateListPages() {
	if cm == nil || cm.client == nil {
		return
	}

	iter := cm.client.Scan(cm.ctx, 0, listKeyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(cm.ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		log.Printf("❌ Failed to scan cache keys: %v", err)
		return
	}

	if len(keys) > 0 {
		if err := cm.client.Del(cm.ctx, keys...).Err(); err != nil {
			log.Printf("❌ Failed to delete cache keys: %v", err)
		}
	}
}

// Close closes the Redis connection.
func (cm *CacheManager) Close() error {
	if cm != nil && cm.client != nil {
		return cm.client.Close()
	}
	return nil
}
