package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/farmsmart/farm-smart/internal/api/middleware"
	"github.com/farmsmart/farm-smart/internal/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RateLimitRepository interface {
	CheckCheckoutRateLimit(ctx context.Context, ownerKey string) (bool, int, int, error)
}

type redisRepository struct {
	client *redis.Client
	cfg    *config.Config
	now    func() time.Time
	member func() string
}

func NewRedisClient(cfg *config.Config) (*redis.Client, error) {

	redisURL := cfg.RedisConnect.GetDSN()
	slog.Info("Connecting to Redis", slog.String("url", fmt.Sprintf("redis://%s:<password>@%s:%s", cfg.RedisConnect.Username, cfg.RedisConnect.Host, cfg.RedisConnect.Port)))

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		slog.Error("Failed to parse Redis URL", slog.Any("error", err))
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opt.DB = cfg.RedisConnect.DB

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("Failed to connect to Redis", slog.Any("error", err))
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("✅ Successfully connected to Redis")
	return client, nil
}

func NewRateLimitRepo(client *redis.Client, cfg *config.Config) RateLimitRepository {
	return &redisRepository{client: client, cfg: cfg, now: time.Now, member: uuid.NewString}
}

func RateLimitKey(ownerKey string) string {
	return "checkout_attempts:" + ownerKey
}

// CheckCheckoutRateLimit returns isAllowed, attempts left, seconds to wait, error.
//
// Attempts live in a sorted set scored by unix time; entries older than the
// window are trimmed before counting.
func (r *redisRepository) CheckCheckoutRateLimit(ctx context.Context, ownerKey string) (bool, int, int, error) {

	logger := middleware.LoggerFromContext(ctx)

	key := RateLimitKey(ownerKey)
	window := r.cfg.RateConfig.WindowSize

	now := r.now().Unix()
	windowStart := now - int64(window.Seconds())

	pipe := r.client.Pipeline()

	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))

	// members must be unique or two attempts in the same second collapse into one
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: r.member()})

	count := pipe.ZCard(ctx, key)

	pipe.Expire(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		logger.Error("Redis pipeline execution failed for rate limit", slog.String("key", key), slog.Any("error", err))
		return false, 0, 0, fmt.Errorf("redis pipeline error for rate limit check: %w", err)
	}

	attempts := count.Val()
	remaining := r.cfg.RateConfig.MaxAttempts - attempts

	if attempts > r.cfg.RateConfig.MaxAttempts {

		scores, err := r.client.ZRangeArgsWithScores(ctx, redis.ZRangeArgs{Key: key, Start: 0, Stop: 0}).Result()
		if err != nil {
			logger.Error("Failed to get oldest attempt time for rate limit", slog.String("key", key), slog.Any("error", err))
			return false, 0, int(window.Seconds()), fmt.Errorf("failed to get oldest attempt time: %w", err)
		}

		// the key expired between the count and this read; wait a full window
		if len(scores) == 0 {
			logger.Warn("Checkout rate limit exceeded", slog.String("owner", ownerKey), slog.Int64("attempts", attempts))
			return false, 0, int(window.Seconds()), nil
		}

		oldest := int64(scores[0].Score)
		retryAfter := max(oldest+int64(window.Seconds())-now, 0)

		logger.Warn("Checkout rate limit exceeded", slog.String("owner", ownerKey), slog.Int64("attempts", attempts))
		return false, 0, int(retryAfter), nil
	}

	logger.Debug("Checkout rate limit check passed", slog.String("owner", ownerKey), slog.Int64("attempts", attempts), slog.Int64("remaining", remaining))
	return true, int(remaining), 0, nil
}
