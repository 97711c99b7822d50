package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"portfolio_api/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

// Connect opens the Redis client shared by the rate limiter and the audit
// queue and verifies it with a PING.
func Connect(ctx context.Context, cfg *config.Config, log *slog.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	log.Info("connected to Redis", "addr", cfg.RedisAddr)
	return rdb, nil
}

func Close(rdb *redis.Client, log *slog.Logger) {
	if rdb == nil {
		return
	}
	if err := rdb.Close(); err != nil {
		log.Error("close redis", "error", err)
		return
	}
	log.Info("Redis connection closed")
}
