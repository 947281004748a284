package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/statsbasket/internal/domain"
	"github.com/statsbasket/internal/stats"
)

// GetReport returns the game report, served from cache when possible
func (s *GameService) GetReport(ctx context.Context, gameID int64) (*stats.GameReport, error) {
	if s.cache != nil {
		report, err := s.cache.GetReport(ctx, gameID)
		switch {
		case err == nil:
			s.metrics.RecordCache("hit")
			return report, nil
		case errors.Is(err, domain.ErrCacheMiss):
			s.metrics.RecordCache("miss")
		default:
			s.metrics.RecordCache("error")
			s.logger.Warn("report cache unavailable", "game_id", gameID, "error", err)
		}
	}

	version := s.reportVersion(gameID)
	report, err := s.BuildReport(ctx, gameID)
	if err != nil {
		return nil, err
	}
	s.cacheReport(ctx, report, version)
	return report, nil
}

// BuildReport derives a fresh report from the stored event log
func (s *GameService) BuildReport(ctx context.Context, gameID int64) (*stats.GameReport, error) {
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	roster, err := s.store.ListPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}
	events, err := s.store.ListEvents(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}

	start := s.now()
	report := stats.BuildReport(*game, roster, events)
	report.GeneratedAt = s.now()
	s.metrics.ObserveReportBuild(report.GeneratedAt.Sub(start))
	return report, nil
}

// RefreshReport rebuilds a report, stores it in the cache and pushes it to
// the game's subscribers
func (s *GameService) RefreshReport(ctx context.Context, gameID int64) (*stats.GameReport, error) {
	version := s.reportVersion(gameID)
	report, err := s.BuildReport(ctx, gameID)
	if err != nil {
		return nil, err
	}
	s.cacheReport(ctx, report, version)
	if s.hub != nil {
		s.hub.BroadcastReport(report)
	}
	return report, nil
}

// RefreshLiveReports refreshes every in-progress game and returns how many
// reports were published
func (s *GameService) RefreshLiveReports(ctx context.Context) (int, error) {
	games, err := s.store.ListGames(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing games: %w", err)
	}

	refreshed := 0
	for _, g := range games {
		if g.Status != domain.GameStatusInProgress {
			continue
		}
		if _, err := s.RefreshReport(ctx, g.ID); err != nil {
			s.logger.Warn("failed to refresh report", "game_id", g.ID, "error", err)
			continue
		}
		s.metrics.RecordRefresh()
		refreshed++
	}
	return refreshed, nil
}

// Lineup returns the players currently on court
func (s *GameService) Lineup(ctx context.Context, gameID int64) ([]domain.Player, error) {
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	roster, err := s.store.ListPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}
	events, err := s.store.ListEvents(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}

	players := domain.PlayerIndex(roster)
	lineup := []domain.Player{}
	for _, id := range stats.OnCourt(game.Starters, roster, events) {
		if p, ok := players[id]; ok {
			lineup = append(lineup, p)
		}
	}
	return lineup, nil
}

// TopScorers returns a game's scoring leaders, ties broken by jersey
// number. Points come from the cache's sorted set when available; otherwise
// they are derived from the event log.
func (s *GameService) TopScorers(ctx context.Context, gameID int64, n int) ([]domain.ScoringEntry, error) {
	if n <= 0 {
		n = s.reports.TopScorersLimit
	}

	if _, err := s.store.GetGame(ctx, gameID); err != nil {
		return nil, err
	}
	roster, err := s.store.ListPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}
	players := domain.PlayerIndex(roster)

	var totals map[int64]int64
	if s.cache != nil {
		totals, err = s.cache.Scoring(ctx, gameID)
		if err != nil {
			s.logger.Warn("scoring leaders unavailable from cache", "game_id", gameID, "error", err)
			totals = nil
		}
	}
	if len(totals) == 0 {
		if totals, err = s.scoringTotals(ctx, gameID); err != nil {
			return nil, err
		}
	}

	entries := rankScorers(totals, players, n)
	for i := range entries {
		if p, ok := players[entries[i].PlayerID]; ok {
			entries[i].Name = p.Name
			entries[i].Number = p.Number
		}
	}
	return entries, nil
}

// WarmScoring rebuilds every game's scoring leaders in the cache from the
// event log
func (s *GameService) WarmScoring(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	games, err := s.store.ListGames(ctx)
	if err != nil {
		return fmt.Errorf("listing games: %w", err)
	}
	for _, g := range games {
		totals, err := s.scoringTotals(ctx, g.ID)
		if err != nil {
			return err
		}
		if err := s.cache.ReplaceScoring(ctx, g.ID, totals); err != nil {
			return fmt.Errorf("warming scoring for game %d: %w", g.ID, err)
		}
	}
	s.logger.Info("scoring leaders warmed", "games", len(games))
	return nil
}

func (s *GameService) scoringTotals(ctx context.Context, gameID int64) (map[int64]int64, error) {
	events, err := s.store.ListEvents(ctx, gameID)
	if err != nil {
		return nil, err
	}
	totals := make(map[int64]int64)
	for _, e := range events {
		if points := e.Kind.Points(); points > 0 && e.Payload.PlayerID != 0 {
			totals[e.Payload.PlayerID] += int64(points)
		}
	}
	return totals, nil
}

func rankScorers(totals map[int64]int64, players map[int64]domain.Player, n int) []domain.ScoringEntry {
	entries := make([]domain.ScoringEntry, 0, len(totals))
	for id, points := range totals {
		entries = append(entries, domain.ScoringEntry{PlayerID: id, Points: points})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		ni, nj := players[entries[i].PlayerID].Number, players[entries[j].PlayerID].Number
		if ni != nj {
			return ni < nj
		}
		return entries[i].PlayerID < entries[j].PlayerID
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	for i := range entries {
		entries[i].Rank = int64(i + 1)
	}
	return entries
}
