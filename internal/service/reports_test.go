package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statsbasket/internal/config"
	"github.com/statsbasket/internal/domain"
	"github.com/statsbasket/internal/memstore"
)

func TestGetReport_BuildsThenCaches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	game := f.liveGame(t)

	empty, err := f.svc.GetReport(ctx, game.ID)
	require.NoError(t, err)
	assert.True(t, empty.Empty)

	f.record(t, game.ID, domain.KindThreePointMade, 1, domain.ZoneWingLeft)
	f.record(t, game.ID, domain.KindThreePointMiss, 1, domain.ZoneWingLeft)
	f.record(t, game.ID, domain.KindTwoPointMade, 1, domain.ZonePaint)

	report, err := f.svc.GetReport(ctx, game.ID)
	require.NoError(t, err)
	assert.False(t, report.Empty, "recording invalidates the cached empty report")
	assert.Equal(t, 5, report.Lines()[1].Points)
	assert.Equal(t, 50.0, report.Shots.Zones[domain.ZoneWingLeft].Pct3)
	assert.False(t, report.GeneratedAt.IsZero())

	cached, err := f.svc.GetReport(ctx, game.ID)
	require.NoError(t, err)
	assert.Same(t, report, cached)

	_, err = f.svc.GetReport(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrGameNotFound)
}

func TestGetReport_CacheFailureFallsBack(t *testing.T) {
	f := newFixture(t)
	game := f.liveGame(t)
	f.record(t, game.ID, domain.KindFreeThrowMade, 2, "")
	f.cache.err = errors.New("connection refused")

	report, err := f.svc.GetReport(context.Background(), game.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Team.Points)
}

func TestTopScorers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	game := f.liveGame(t)

	f.record(t, game.ID, domain.KindThreePointMade, 3, domain.ZoneCenter)
	f.record(t, game.ID, domain.KindTwoPointMade, 1, domain.ZonePaint)
	f.record(t, game.ID, domain.KindTwoPointMade, 1, domain.ZonePaint)
	f.record(t, game.ID, domain.KindFreeThrowMade, 4, "")

	top, err := f.svc.TopScorers(ctx, game.ID, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, domain.ScoringEntry{Rank: 1, PlayerID: 1, Points: 4, Name: "Dominguez", Number: 23}, top[0])
	assert.Equal(t, int64(3), top[1].PlayerID)

	// without a cache the leaders are derived from the log
	f.svc.SetCache(nil)
	derived, err := f.svc.TopScorers(ctx, game.ID, 0)
	require.NoError(t, err)
	require.Len(t, derived, 3)
	assert.Equal(t, top, derived[:2])
	assert.Equal(t, "Chen", derived[2].Name)
}

func TestWarmScoringAndRefresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	game := f.liveGame(t)
	f.record(t, game.ID, domain.KindThreePointMade, 5, domain.ZoneCornerRight)

	f.cache.scoring = make(map[int64]map[int64]int64)
	require.NoError(t, f.svc.WarmScoring(ctx))
	assert.Equal(t, map[int64]int64{5: 3}, f.cache.scoring[game.ID])

	n, err := f.svc.RefreshLiveReports(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, f.hub.reports, 1)
	assert.Equal(t, 3, f.hub.reports[0].Team.Points)
	assert.Contains(t, f.cache.reports, game.ID)
}

func TestGetReport_FollowsGameTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	game := f.liveGame(t)

	report, err := f.svc.GetReport(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Game.CurrentQuarter)

	_, err = f.svc.SetQuarter(ctx, game.ID, 3)
	require.NoError(t, err)
	report, err = f.svc.GetReport(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Game.CurrentQuarter)

	scheduled, err := f.svc.CreateGame(ctx, domain.CreateGameRequest{
		Opponent: "Lakeside",
		HomeAway: domain.Away,
		Starters: []int64{1, 2, 3, 4, 5},
	})
	require.NoError(t, err)
	report, err = f.svc.GetReport(ctx, scheduled.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GameStatusScheduled, report.Game.Status)

	_, err = f.svc.StartGame(ctx, scheduled.ID)
	require.NoError(t, err)
	report, err = f.svc.GetReport(ctx, scheduled.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.GameStatusInProgress, report.Game.Status)
}

// interleavingStore records an event the first time a report reads the log,
// after the log was read
type interleavingStore struct {
	*memstore.Store
	once   sync.Once
	record func()
}

func (s *interleavingStore) ListEvents(ctx context.Context, gameID int64) ([]domain.Event, error) {
	events, err := s.Store.ListEvents(ctx, gameID)
	if s.record != nil {
		s.once.Do(s.record)
	}
	return events, err
}

func TestGetReport_DiscardsReportOutdatedWhileBuilding(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	game := f.liveGame(t)
	f.record(t, game.ID, domain.KindTwoPointMade, 1, domain.ZonePaint)

	cfg := config.DefaultConfig()
	store := &interleavingStore{Store: f.store}
	svc := NewGameService(store, &cfg.Roster, &cfg.Reports, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.SetCache(f.cache)
	store.record = func() {
		_, err := svc.RecordEvent(ctx, domain.RecordEventRequest{GameID: game.ID, Kind: domain.KindThreePointMade, PlayerID: 2})
		require.NoError(t, err)
	}

	stale, err := svc.GetReport(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stale.EventCount)
	assert.NotContains(t, f.cache.reports, game.ID, "report missing the new event is not cached")

	fresh, err := svc.GetReport(ctx, game.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, fresh.EventCount)
	assert.Equal(t, 5, fresh.Team.Points)
	assert.Contains(t, f.cache.reports, game.ID)
}

func TestTopScorers_TiesBreakByNumberWithOrWithoutCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	game := f.liveGame(t)

	f.record(t, game.ID, domain.KindTwoPointMade, 1, domain.ZonePaint)
	f.record(t, game.ID, domain.KindTwoPointMade, 2, domain.ZonePaint)
	f.record(t, game.ID, domain.KindFreeThrowMade, 5, "")

	cached, err := f.svc.TopScorers(ctx, game.ID, 2)
	require.NoError(t, err)
	require.Len(t, cached, 2)
	assert.Equal(t, domain.ScoringEntry{Rank: 1, PlayerID: 2, Points: 2, Name: "Alvarez", Number: 7}, cached[0])
	assert.Equal(t, domain.ScoringEntry{Rank: 2, PlayerID: 1, Points: 2, Name: "Dominguez", Number: 23}, cached[1])

	f.svc.SetCache(nil)
	derived, err := f.svc.TopScorers(ctx, game.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, cached, derived)
}
