// Package memstore keeps players, games and events in process memory.
// It backs the memory storage driver and the service tests.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/statsbasket/internal/domain"
)

// Store is a mutex guarded in-memory store
type Store struct {
	mu sync.RWMutex

	players map[int64]domain.Player
	games   map[int64]domain.Game
	events  map[int64][]domain.Event

	nextPlayerID int64
	nextGameID   int64
	nextEventID  int64
}

// New creates an empty store
func New() *Store {
	s := &Store{}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.players = make(map[int64]domain.Player)
	s.games = make(map[int64]domain.Game)
	s.events = make(map[int64][]domain.Event)
	s.nextPlayerID = 0
	s.nextGameID = 0
	s.nextEventID = 0
}

// Ping always succeeds
func (s *Store) Ping(ctx context.Context) error {
	return nil
}

// CreatePlayer assigns an id and stores the player
func (s *Store) CreatePlayer(ctx context.Context, p domain.Player) (*domain.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.players {
		if existing.Number == p.Number {
			return nil, domain.ErrDuplicateNumber
		}
	}

	s.nextPlayerID++
	p.ID = s.nextPlayerID
	s.players[p.ID] = p
	return &p, nil
}

// GetPlayer returns a player by id
func (s *Store) GetPlayer(ctx context.Context, id int64) (*domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.players[id]
	if !ok {
		return nil, domain.ErrPlayerNotFound
	}
	return &p, nil
}

// ListPlayers returns the roster ordered by jersey number
func (s *Store) ListPlayers(ctx context.Context) ([]domain.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	players := make([]domain.Player, 0, len(s.players))
	for _, p := range s.players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].Number < players[j].Number })
	return players, nil
}

// DeletePlayer removes a player
func (s *Store) DeletePlayer(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[id]; !ok {
		return domain.ErrPlayerNotFound
	}
	delete(s.players, id)
	return nil
}

// PlayerHasEvents reports whether any recorded event involves the player
func (s *Store) PlayerHasEvents(ctx context.Context, id int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, events := range s.events {
		for _, e := range events {
			if e.Payload.PlayerID == id || e.Payload.Out == id || e.Payload.In == id {
				return true, nil
			}
		}
	}
	return false, nil
}

// CreateGame assigns an id and stores the game
func (s *Store) CreateGame(ctx context.Context, g domain.Game) (*domain.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextGameID++
	g.ID = s.nextGameID
	g.Starters = append([]int64(nil), g.Starters...)
	s.games[g.ID] = g
	return copyGame(g), nil
}

// GetGame returns a game by id
func (s *Store) GetGame(ctx context.Context, id int64) (*domain.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.games[id]
	if !ok {
		return nil, domain.ErrGameNotFound
	}
	return copyGame(g), nil
}

// ListGames returns every game, most recent date first
func (s *Store) ListGames(ctx context.Context) ([]domain.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	games := make([]domain.Game, 0, len(s.games))
	for _, g := range s.games {
		games = append(games, *copyGame(g))
	}
	sortGames(games)
	return games, nil
}

// UpdateGame stores the game's status and quarter
func (s *Store) UpdateGame(ctx context.Context, g domain.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.games[g.ID]
	if !ok {
		return domain.ErrGameNotFound
	}
	existing.Status = g.Status
	existing.CurrentQuarter = g.CurrentQuarter
	existing.UpdatedAt = g.UpdatedAt
	s.games[g.ID] = existing
	return nil
}

// DeleteGame removes a game and its events
func (s *Store) DeleteGame(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[id]; !ok {
		return domain.ErrGameNotFound
	}
	delete(s.games, id)
	delete(s.events, id)
	return nil
}

// DeleteFinishedGames removes every finished game and returns their ids
func (s *Store) DeleteFinishedGames(ctx context.Context) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []int64
	for id, g := range s.games {
		if g.Status == domain.GameStatusFinished {
			ids = append(ids, id)
			delete(s.games, id)
			delete(s.events, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ClearGames removes all games and events, keeping the roster
func (s *Store) ClearGames(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.games = make(map[int64]domain.Game)
	s.events = make(map[int64][]domain.Event)
	return nil
}

// AppendEvent assigns an id and appends the event to its game's log
func (s *Store) AppendEvent(ctx context.Context, e domain.Event) (*domain.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[e.GameID]; !ok {
		return nil, domain.ErrGameNotFound
	}
	s.nextEventID++
	e.ID = s.nextEventID
	s.events[e.GameID] = append(s.events[e.GameID], e)
	return &e, nil
}

// ListEvents returns a game's events in insertion order
func (s *Store) ListEvents(ctx context.Context, gameID int64) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.games[gameID]; !ok {
		return nil, domain.ErrGameNotFound
	}
	events := make([]domain.Event, len(s.events[gameID]))
	copy(events, s.events[gameID])
	return events, nil
}

// Export snapshots every record
func (s *Store) Export(ctx context.Context) (*domain.Backup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b := &domain.Backup{
		Players: make([]domain.Player, 0, len(s.players)),
		Games:   make([]domain.Game, 0, len(s.games)),
		Events:  []domain.Event{},
	}
	for _, p := range s.players {
		b.Players = append(b.Players, p)
	}
	sort.Slice(b.Players, func(i, j int) bool { return b.Players[i].ID < b.Players[j].ID })

	for _, g := range s.games {
		b.Games = append(b.Games, *copyGame(g))
	}
	sort.Slice(b.Games, func(i, j int) bool { return b.Games[i].ID < b.Games[j].ID })

	for _, g := range b.Games {
		b.Events = append(b.Events, s.events[g.ID]...)
	}
	sort.Slice(b.Events, func(i, j int) bool { return b.Events[i].ID < b.Events[j].ID })
	return b, nil
}

// Restore replaces all data with the backup contents, keeping ids
func (s *Store) Restore(ctx context.Context, b domain.Backup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reset()
	for _, p := range b.Players {
		s.players[p.ID] = p
		s.nextPlayerID = max(s.nextPlayerID, p.ID)
	}
	for _, g := range b.Games {
		s.games[g.ID] = *copyGame(g)
		s.nextGameID = max(s.nextGameID, g.ID)
	}
	for _, e := range b.Events {
		s.events[e.GameID] = append(s.events[e.GameID], e)
		s.nextEventID = max(s.nextEventID, e.ID)
	}
	return nil
}

func copyGame(g domain.Game) *domain.Game {
	g.Starters = append([]int64(nil), g.Starters...)
	return &g
}

func sortGames(games []domain.Game) {
	sort.Slice(games, func(i, j int) bool {
		if !games[i].Date.Equal(games[j].Date) {
			return games[i].Date.After(games[j].Date)
		}
		return games[i].ID > games[j].ID
	})
}
