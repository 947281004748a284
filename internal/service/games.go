package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/statsbasket/internal/domain"
)

// CreateGame validates the configuration and schedules a game
func (s *GameService) CreateGame(ctx context.Context, req domain.CreateGameRequest) (*domain.Game, error) {
	req.Opponent = strings.TrimSpace(req.Opponent)
	req.Venue = strings.TrimSpace(req.Venue)
	if req.Opponent == "" {
		return nil, fmt.Errorf("%w: opponent is required", domain.ErrInvalidGame)
	}
	if !req.HomeAway.Valid() {
		return nil, fmt.Errorf("%w: homeaway must be home or away", domain.ErrInvalidGame)
	}
	if len(req.Starters) != s.roster.Starters {
		return nil, fmt.Errorf("%w: exactly %d starters required", domain.ErrInvalidGame, s.roster.Starters)
	}

	roster, err := s.store.ListPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}
	players := domain.PlayerIndex(roster)
	seen := make(map[int64]bool, len(req.Starters))
	for _, id := range req.Starters {
		if seen[id] {
			return nil, fmt.Errorf("%w: starter %d listed twice", domain.ErrInvalidGame, id)
		}
		if _, ok := players[id]; !ok {
			return nil, fmt.Errorf("%w: starter %d is not on the roster", domain.ErrInvalidGame, id)
		}
		seen[id] = true
	}

	game, err := s.store.CreateGame(ctx, req.ToGame(s.now()))
	if err != nil {
		return nil, fmt.Errorf("creating game: %w", err)
	}

	s.logger.Info("game created", "game_id", game.ID, "opponent", game.Opponent)
	return game, nil
}

// GetGame returns a game by id
func (s *GameService) GetGame(ctx context.Context, gameID int64) (*domain.Game, error) {
	return s.store.GetGame(ctx, gameID)
}

// ListGames returns all games, most recent first
func (s *GameService) ListGames(ctx context.Context) ([]domain.Game, error) {
	return s.store.ListGames(ctx)
}

// StartGame moves a scheduled game to quarter 1 of play
func (s *GameService) StartGame(ctx context.Context, gameID int64) (*domain.Game, error) {
	return s.transition(ctx, gameID, func(g *domain.Game) error {
		if g.Status != domain.GameStatusScheduled {
			return fmt.Errorf("%w: game is %s", domain.ErrInvalidGame, g.Status)
		}
		g.Status = domain.GameStatusInProgress
		g.CurrentQuarter = 1
		return nil
	})
}

// SetQuarter changes the quarter new events default to
func (s *GameService) SetQuarter(ctx context.Context, gameID int64, quarter int) (*domain.Game, error) {
	if quarter < 1 || quarter > domain.QuarterCount {
		return nil, fmt.Errorf("%w: quarter must be between 1 and %d", domain.ErrInvalidRequest, domain.QuarterCount)
	}
	return s.transition(ctx, gameID, func(g *domain.Game) error {
		if g.Status != domain.GameStatusInProgress {
			return domain.ErrGameNotLive
		}
		g.CurrentQuarter = quarter
		return nil
	})
}

// FinishGame closes a game; no further events are accepted
func (s *GameService) FinishGame(ctx context.Context, gameID int64) (*domain.Game, error) {
	game, err := s.transition(ctx, gameID, func(g *domain.Game) error {
		if g.Status != domain.GameStatusInProgress {
			return domain.ErrGameNotLive
		}
		g.Status = domain.GameStatusFinished
		return nil
	})
	if err != nil {
		return nil, err
	}

	// publish the final report
	if _, err := s.RefreshReport(ctx, gameID); err != nil {
		s.logger.Warn("failed to publish final report", "game_id", gameID, "error", err)
	}
	return game, nil
}

func (s *GameService) transition(ctx context.Context, gameID int64, apply func(g *domain.Game) error) (*domain.Game, error) {
	s.recordMu.Lock()
	defer s.recordMu.Unlock()

	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if err := apply(game); err != nil {
		return nil, err
	}
	game.UpdatedAt = s.now()
	if err := s.store.UpdateGame(ctx, *game); err != nil {
		return nil, fmt.Errorf("updating game: %w", err)
	}

	s.invalidateReport(ctx, game.ID)

	s.logger.Info("game updated", "game_id", game.ID, "status", game.Status, "quarter", game.CurrentQuarter)
	return game, nil
}

// DeleteGame removes a game and its events
func (s *GameService) DeleteGame(ctx context.Context, gameID int64) error {
	if err := s.store.DeleteGame(ctx, gameID); err != nil {
		return err
	}
	s.dropGameCache(ctx, gameID)
	return nil
}

// DeleteFinishedGames removes every finished game and returns how many
func (s *GameService) DeleteFinishedGames(ctx context.Context) (int, error) {
	ids, err := s.store.DeleteFinishedGames(ctx)
	if err != nil {
		return 0, fmt.Errorf("deleting finished games: %w", err)
	}
	for _, id := range ids {
		s.dropGameCache(ctx, id)
	}
	return len(ids), nil
}

// ClearGames removes all games and events while keeping the roster
func (s *GameService) ClearGames(ctx context.Context) error {
	games, err := s.store.ListGames(ctx)
	if err != nil {
		return fmt.Errorf("listing games: %w", err)
	}
	if err := s.store.ClearGames(ctx); err != nil {
		return fmt.Errorf("clearing games: %w", err)
	}
	for _, g := range games {
		s.dropGameCache(ctx, g.ID)
	}
	return nil
}
