package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/statsbasket/internal/config"
	"github.com/statsbasket/internal/domain"
	"github.com/statsbasket/internal/stats"
)

// GameCache stores rendered game reports and per-game scoring leaders.
// Every call goes through a circuit breaker so a dead Redis degrades to
// cache misses instead of slow requests.
type GameCache struct {
	client  *redis.Client
	breaker *gobreaker.CircuitBreaker
	ttl     time.Duration
	logger  *slog.Logger
}

// NewGameCache connects to Redis and creates a game cache
func NewGameCache(cfg *config.RedisConfig, ttl time.Duration, logger *slog.Logger) (*GameCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return NewGameCacheWithClient(client, ttl, logger), nil
}

// NewGameCacheWithClient wraps an existing client
func NewGameCacheWithClient(client *redis.Client, ttl time.Duration, logger *slog.Logger) *GameCache {
	return &GameCache{
		client:  client,
		breaker: newBreaker("redis-game-cache", logger),
		ttl:     ttl,
		logger:  logger,
	}
}

func newBreaker(name string, logger *slog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     name,
		Interval: 60 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, domain.ErrCacheMiss)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
}

// Close closes the Redis connection
func (c *GameCache) Close() error {
	return c.client.Close()
}

// Ping checks the Redis connection
func (c *GameCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// reportKey returns the Redis key for a game's cached report
func reportKey(gameID int64) string {
	return fmt.Sprintf("game:%d:report", gameID)
}

// scoringKey returns the Redis key for a game's scoring sorted set
func scoringKey(gameID int64) string {
	return fmt.Sprintf("game:%d:scoring", gameID)
}

// GetReport returns the cached report or domain.ErrCacheMiss
func (c *GameCache) GetReport(ctx context.Context, gameID int64) (*stats.GameReport, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		data, err := c.client.Get(ctx, reportKey(gameID)).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil, domain.ErrCacheMiss
			}
			return nil, fmt.Errorf("getting report: %w", err)
		}
		var report stats.GameReport
		if err := json.Unmarshal(data, &report); err != nil {
			return nil, fmt.Errorf("decoding cached report: %w", err)
		}
		return &report, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*stats.GameReport), nil
}

// SetReport caches a report for the configured TTL
func (c *GameCache) SetReport(ctx context.Context, report *stats.GameReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	_, err = c.breaker.Execute(func() (interface{}, error) {
		if err := c.client.Set(ctx, reportKey(report.Game.ID), data, c.ttl).Err(); err != nil {
			return nil, fmt.Errorf("setting report: %w", err)
		}
		return nil, nil
	})
	return err
}

// InvalidateReport drops a game's cached report
func (c *GameCache) InvalidateReport(ctx context.Context, gameID int64) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		if err := c.client.Del(ctx, reportKey(gameID)).Err(); err != nil {
			return nil, fmt.Errorf("invalidating report: %w", err)
		}
		return nil, nil
	})
	return err
}

// AddPoints increments a player's points in the game's scoring set
func (c *GameCache) AddPoints(ctx context.Context, gameID, playerID int64, points int) (int64, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		total, err := c.client.ZIncrBy(ctx, scoringKey(gameID), float64(points), strconv.FormatInt(playerID, 10)).Result()
		if err != nil {
			return nil, fmt.Errorf("incrementing points: %w", err)
		}
		return int64(total), nil
	})
	if err != nil {
		return 0, err
	}
	return result.(int64), nil
}

// ReplaceScoring overwrites a game's scoring set
func (c *GameCache) ReplaceScoring(ctx context.Context, gameID int64, points map[int64]int64) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		key := scoringKey(gameID)
		pipe := c.client.Pipeline()
		pipe.Del(ctx, key)
		if len(points) > 0 {
			members := make([]redis.Z, 0, len(points))
			for playerID, p := range points {
				members = append(members, redis.Z{
					Score:  float64(p),
					Member: strconv.FormatInt(playerID, 10),
				})
			}
			pipe.ZAdd(ctx, key, members...)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("replacing scoring: %w", err)
		}
		return nil, nil
	})
	return err
}

// Scoring returns every player's points in a game. Ranking is left to the
// caller so ties break the same way with or without the cache.
func (c *GameCache) Scoring(ctx context.Context, gameID int64) (map[int64]int64, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		members, err := c.client.ZRangeWithScores(ctx, scoringKey(gameID), 0, -1).Result()
		if err != nil {
			return nil, fmt.Errorf("getting scoring: %w", err)
		}

		totals := make(map[int64]int64, len(members))
		for _, z := range members {
			member, _ := z.Member.(string)
			playerID, err := strconv.ParseInt(member, 10, 64)
			if err != nil {
				c.logger.Warn("skipping malformed scoring member", "game_id", gameID, "member", z.Member)
				continue
			}
			totals[playerID] = int64(z.Score)
		}
		return totals, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(map[int64]int64), nil
}

// DeleteGame removes every key of a game
func (c *GameCache) DeleteGame(ctx context.Context, gameID int64) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		pipe := c.client.Pipeline()
		pipe.Del(ctx, reportKey(gameID))
		pipe.Del(ctx, scoringKey(gameID))
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("deleting game keys: %w", err)
		}
		return nil, nil
	})
	return err
}
