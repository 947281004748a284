package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/statsbasket/internal/domain"
)

var playerNamePattern = regexp.MustCompile(`^[\p{L} ]+$`)

// RegisterPlayer validates and adds a player to the roster
func (s *GameService) RegisterPlayer(ctx context.Context, req domain.CreatePlayerRequest) (*domain.Player, error) {
	name := strings.TrimSpace(req.Name)
	if utf8.RuneCountInString(name) < 2 {
		return nil, fmt.Errorf("%w: name must be at least 2 characters", domain.ErrInvalidPlayer)
	}
	if !playerNamePattern.MatchString(name) {
		return nil, fmt.Errorf("%w: name may only contain letters and spaces", domain.ErrInvalidPlayer)
	}
	if req.Number < domain.MinNumber || req.Number > domain.MaxNumber {
		return nil, fmt.Errorf("%w: number must be between 0 and 99", domain.ErrInvalidPlayer)
	}

	roster, err := s.store.ListPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}
	if len(roster) >= s.roster.MaxPlayers {
		return nil, fmt.Errorf("%w: maximum of %d players", domain.ErrRosterFull, s.roster.MaxPlayers)
	}
	for _, p := range roster {
		if p.Number == req.Number {
			return nil, fmt.Errorf("%w: #%d belongs to %s", domain.ErrDuplicateNumber, p.Number, p.Name)
		}
	}

	player, err := s.store.CreatePlayer(ctx, domain.Player{
		Name:      name,
		Number:    req.Number,
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("creating player: %w", err)
	}

	s.logger.Info("player registered", "player_id", player.ID, "number", player.Number)
	return player, nil
}

// ListPlayers returns the roster ordered by jersey number
func (s *GameService) ListPlayers(ctx context.Context) ([]domain.Player, error) {
	return s.store.ListPlayers(ctx)
}

// RemovePlayer deletes a player who is not referenced by any game
func (s *GameService) RemovePlayer(ctx context.Context, playerID int64) error {
	if _, err := s.store.GetPlayer(ctx, playerID); err != nil {
		return err
	}

	used, err := s.store.PlayerHasEvents(ctx, playerID)
	if err != nil {
		return fmt.Errorf("checking player events: %w", err)
	}
	if used {
		return domain.ErrPlayerReferenced
	}

	games, err := s.store.ListGames(ctx)
	if err != nil {
		return fmt.Errorf("listing games: %w", err)
	}
	for _, g := range games {
		if g.IsStarter(playerID) {
			return fmt.Errorf("%w: starter in game %d", domain.ErrPlayerReferenced, g.ID)
		}
	}

	if err := s.store.DeletePlayer(ctx, playerID); err != nil {
		return fmt.Errorf("deleting player: %w", err)
	}
	return nil
}
