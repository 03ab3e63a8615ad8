// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"medibook/config"
)

var (
	// SessionCacheClient holds in-flight wizard sessions.
	SessionCacheClient *redis.Client
	// HistoryCacheClient holds per-patient booking history.
	HistoryCacheClient *redis.Client
)

// InitSessionCache initializes the Redis client for wizard session storage.
func InitSessionCache() {
	SessionCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSessionDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := SessionCacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Session Cache): %v", err)
	}
}

// GetSessionCacheClient returns the Redis client for wizard sessions.
func GetSessionCacheClient() *redis.Client {
	if SessionCacheClient == nil {
		InitSessionCache()
	}
	return SessionCacheClient
}

// InitHistoryCache initializes the Redis client for booking history storage.
func InitHistoryCache() {
	HistoryCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisHistoryDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := HistoryCacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (History Cache): %v", err)
	}
}

// GetHistoryCacheClient returns the Redis client for booking history.
func GetHistoryCacheClient() *redis.Client {
	if HistoryCacheClient == nil {
		InitHistoryCache()
	}
	return HistoryCacheClient
}
