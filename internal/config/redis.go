package config

import (
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis returns client options when REDIS_ADDR is set, nil otherwise.
func Redis() *redis.Options {
	addr, ok := os.LookupEnv("REDIS_ADDR")
	if !ok || addr == "" {
		return nil
	}
	return &redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       lookupInt("REDIS_DB", 0),
	}
}

type RateLimit struct {
	Requests int
	Window   time.Duration
}

func NewRateLimit() RateLimit {
	return RateLimit{
		Requests: lookupInt("RATE_LIMIT", 120),
		Window:   time.Duration(lookupInt("RATE_LIMIT_WINDOW", 60)) * time.Second,
	}
}
