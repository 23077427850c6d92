// file: database/redis.go
package database

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

var RDB *redis.Client

// InitRedis connects the shared Redis client. Optional: callers skip it
// entirely when no address is configured.
func InitRedis(addr string) {
	RDB = redis.NewClient(&redis.Options{
		Addr:     addr,
		PoolSize: 100,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := RDB.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	log.Println("Redis connection established.")
}
