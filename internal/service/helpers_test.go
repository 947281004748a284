package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/statsbasket/internal/config"
	"github.com/statsbasket/internal/domain"
	"github.com/statsbasket/internal/memstore"
	"github.com/statsbasket/internal/stats"
)

type fakeCache struct {
	mu      sync.Mutex
	reports map[int64]*stats.GameReport
	scoring map[int64]map[int64]int64
	gets    int
	err     error
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		reports: make(map[int64]*stats.GameReport),
		scoring: make(map[int64]map[int64]int64),
	}
}

func (c *fakeCache) GetReport(ctx context.Context, gameID int64) (*stats.GameReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.err != nil {
		return nil, c.err
	}
	r, ok := c.reports[gameID]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return r, nil
}

func (c *fakeCache) SetReport(ctx context.Context, report *stats.GameReport) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports[report.Game.ID] = report
	return nil
}

func (c *fakeCache) InvalidateReport(ctx context.Context, gameID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.reports, gameID)
	return nil
}

func (c *fakeCache) AddPoints(ctx context.Context, gameID, playerID int64, points int) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.scoring[gameID] == nil {
		c.scoring[gameID] = make(map[int64]int64)
	}
	c.scoring[gameID][playerID] += int64(points)
	return c.scoring[gameID][playerID], nil
}

func (c *fakeCache) ReplaceScoring(ctx context.Context, gameID int64, points map[int64]int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scoring[gameID] = points
	return nil
}

func (c *fakeCache) Scoring(ctx context.Context, gameID int64) (map[int64]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	totals := make(map[int64]int64, len(c.scoring[gameID]))
	for id, p := range c.scoring[gameID] {
		totals[id] = p
	}
	return totals, nil
}

func (c *fakeCache) DeleteGame(ctx context.Context, gameID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.reports, gameID)
	delete(c.scoring, gameID)
	return nil
}

type fakeHub struct {
	mu      sync.Mutex
	events  []domain.Event
	reports []*stats.GameReport
}

func (h *fakeHub) BroadcastEvent(event domain.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
}

func (h *fakeHub) BroadcastReport(report *stats.GameReport) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reports = append(h.reports, report)
}

type fixture struct {
	svc   *GameService
	store *memstore.Store
	cache *fakeCache
	hub   *fakeHub
	clock time.Time
}

// tick advances the fake clock by one second per call
func (f *fixture) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.DefaultConfig()
	f := &fixture{
		store: memstore.New(),
		cache: newFakeCache(),
		hub:   &fakeHub{},
		clock: time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC),
	}
	f.svc = NewGameService(f.store, &cfg.Roster, &cfg.Reports, slog.New(slog.NewTextHandler(io.Discard, nil)))
	f.svc.SetCache(f.cache)
	f.svc.SetHub(f.hub)
	f.svc.SetClock(f.tick)
	return f
}

var rosterNames = []struct {
	name   string
	number int
}{
	{"Dominguez", 23}, {"Alvarez", 7}, {"Brooks", 11}, {"Chen", 4}, {"Diaz", 15}, {"Evans", 30}, {"Fischer", 2},
}

// liveGame registers seven players and starts a game with ids 1-5 as starters
func (f *fixture) liveGame(t *testing.T) *domain.Game {
	t.Helper()
	ctx := context.Background()
	for _, r := range rosterNames {
		_, err := f.svc.RegisterPlayer(ctx, domain.CreatePlayerRequest{Name: r.name, Number: r.number})
		require.NoError(t, err)
	}
	game, err := f.svc.CreateGame(ctx, domain.CreateGameRequest{
		Opponent: "Harbor City",
		HomeAway: domain.Home,
		Starters: []int64{1, 2, 3, 4, 5},
	})
	require.NoError(t, err)
	game, err = f.svc.StartGame(ctx, game.ID)
	require.NoError(t, err)
	return game
}

func (f *fixture) record(t *testing.T, gameID int64, kind domain.EventKind, playerID int64, zone domain.ShotZone) *domain.Event {
	t.Helper()
	e, err := f.svc.RecordEvent(context.Background(), domain.RecordEventRequest{
		GameID:   gameID,
		Kind:     kind,
		PlayerID: playerID,
		ShotZone: zone,
	})
	require.NoError(t, err)
	return e
}
