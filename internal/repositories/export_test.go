package repository

import (
	"time"

	"github.com/farmsmart/farm-smart/internal/config"
	"github.com/redis/go-redis/v9"
)

func NewRateLimitRepoForTest(client *redis.Client, cfg *config.Config, now func() time.Time, member func() string) RateLimitRepository {
	return &redisRepository{client: client, cfg: cfg, now: now, member: member}
}
