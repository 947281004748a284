package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/statsbasket/internal/config"
	"github.com/statsbasket/internal/metrics"
	"github.com/statsbasket/internal/stats"
)

// GameService provides the business logic around the event log
type GameService struct {
	store   Store
	cache   ReportCache
	hub     Broadcaster
	metrics *metrics.Registry
	roster  *config.RosterConfig
	reports *config.ReportsConfig
	logger  *slog.Logger
	now     func() time.Time

	// serializes event validation and append so substitutions see a
	// consistent lineup
	recordMu sync.Mutex

	// guards reportVersions; a report built at an older version of its game
	// is never written to the cache
	cacheMu        sync.Mutex
	reportVersions map[int64]uint64
}

// NewGameService creates a new game service
func NewGameService(
	store Store,
	roster *config.RosterConfig,
	reports *config.ReportsConfig,
	logger *slog.Logger,
) *GameService {
	return &GameService{
		store:   store,
		roster:  roster,
		reports: reports,
		logger:  logger,
		now:     time.Now,

		reportVersions: make(map[int64]uint64),
	}
}

// SetCache enables report caching and scoring leaders
func (s *GameService) SetCache(cache ReportCache) {
	s.cache = cache
}

// SetHub sets the broadcaster for live updates
func (s *GameService) SetHub(hub Broadcaster) {
	s.hub = hub
}

// SetMetrics sets the metrics registry
func (s *GameService) SetMetrics(m *metrics.Registry) {
	s.metrics = m
}

// SetClock replaces the time source used for timestamps
func (s *GameService) SetClock(now func() time.Time) {
	s.now = now
}

// Ready checks that the store is reachable
func (s *GameService) Ready(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("pinging store: %w", err)
	}
	return nil
}

func (s *GameService) dropGameCache(ctx context.Context, gameID int64) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.reportVersions[gameID]++
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteGame(ctx, gameID); err != nil {
		s.logger.Warn("failed to drop cached game", "game_id", gameID, "error", err)
	}
}

// reportVersion is read before a report is built and handed back to
// cacheReport
func (s *GameService) reportVersion(gameID int64) uint64 {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	return s.reportVersions[gameID]
}

// invalidateReport marks every report built so far as stale and drops the
// cached copy. Call it after the game or its log changed.
func (s *GameService) invalidateReport(ctx context.Context, gameID int64) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.reportVersions[gameID]++
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateReport(ctx, gameID); err != nil {
		s.logger.Warn("failed to invalidate cached report", "game_id", gameID, "error", err)
	}
}

// cacheReport stores a report unless its game changed after version was read
func (s *GameService) cacheReport(ctx context.Context, report *stats.GameReport, version uint64) {
	if s.cache == nil {
		return
	}
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	if s.reportVersions[report.Game.ID] != version {
		s.logger.Debug("discarding report built before the latest change", "game_id", report.Game.ID)
		return
	}
	if err := s.cache.SetReport(ctx, report); err != nil {
		s.logger.Warn("failed to cache report", "game_id", report.Game.ID, "error", err)
	}
}
