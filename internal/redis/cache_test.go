package redis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statsbasket/internal/domain"
	"github.com/statsbasket/internal/stats"
)

func newTestCache(t *testing.T) (*GameCache, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewGameCacheWithClient(db, time.Minute, logger), mock
}

func TestGameCache_Report(t *testing.T) {
	ctx := context.Background()
	cache, mock := newTestCache(t)

	report := &stats.GameReport{
		Game:       domain.Game{ID: 7, Opponent: "North", Starters: []int64{1, 2, 3, 4, 5}},
		Empty:      true,
		EventCount: 0,
	}
	data, err := json.Marshal(report)
	require.NoError(t, err)

	t.Run("miss", func(t *testing.T) {
		mock.ExpectGet("game:7:report").RedisNil()

		_, err := cache.GetReport(ctx, 7)
		assert.ErrorIs(t, err, domain.ErrCacheMiss)
	})

	t.Run("set then hit", func(t *testing.T) {
		mock.ExpectSet("game:7:report", data, time.Minute).SetVal("OK")
		require.NoError(t, cache.SetReport(ctx, report))

		mock.ExpectGet("game:7:report").SetVal(string(data))
		got, err := cache.GetReport(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, "North", got.Game.Opponent)
		assert.True(t, got.Empty)
	})

	t.Run("invalidate", func(t *testing.T) {
		mock.ExpectDel("game:7:report").SetVal(1)
		require.NoError(t, cache.InvalidateReport(ctx, 7))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGameCache_Scoring(t *testing.T) {
	ctx := context.Background()
	cache, mock := newTestCache(t)

	mock.ExpectZIncrBy("game:3:scoring", 3, "12").SetVal(8)
	total, err := cache.AddPoints(ctx, 3, 12, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(8), total)

	mock.ExpectZRangeWithScores("game:3:scoring", 0, -1).SetVal([]redis.Z{
		{Score: 2, Member: "bogus"},
		{Score: 8, Member: "12"},
		{Score: 14, Member: "4"},
	})
	totals, err := cache.Scoring(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int64{4: 14, 12: 8}, totals)

	mock.ExpectDel("game:3:scoring").SetVal(1)
	mock.ExpectZAdd("game:3:scoring", redis.Z{Score: 5, Member: "9"}).SetVal(1)
	require.NoError(t, cache.ReplaceScoring(ctx, 3, map[int64]int64{9: 5}))

	mock.ExpectDel("game:3:report").SetVal(0)
	mock.ExpectDel("game:3:scoring").SetVal(1)
	require.NoError(t, cache.DeleteGame(ctx, 3))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGameCache_BreakerOpensAfterFailures(t *testing.T) {
	ctx := context.Background()
	cache, mock := newTestCache(t)

	for i := 0; i < 3; i++ {
		mock.ExpectGet("game:1:report").SetErr(errors.New("connection refused"))
		_, err := cache.GetReport(ctx, 1)
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrCacheMiss)
	}

	_, err := cache.GetReport(ctx, 1)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGameCache_MissesDoNotTripBreaker(t *testing.T) {
	ctx := context.Background()
	cache, mock := newTestCache(t)

	for i := 0; i < 5; i++ {
		mock.ExpectGet("game:2:report").RedisNil()
		_, err := cache.GetReport(ctx, 2)
		assert.ErrorIs(t, err, domain.ErrCacheMiss)
	}
	assert.Equal(t, gobreaker.StateClosed, cache.breaker.State())
}
