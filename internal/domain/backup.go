package domain

import (
	"fmt"
	"time"
)

// BackupVersion is the document version written by exports
const BackupVersion = "1.0"

// Backup is the bulk export of every record kind
type Backup struct {
	Players    []Player  `json:"players"`
	Games      []Game    `json:"games"`
	Events     []Event   `json:"events"`
	ExportDate time.Time `json:"export_date"`
	Version    string    `json:"version"`
}

// Validate checks that the document is complete and internally consistent.
// starters is the lineup size every game must have.
func (b *Backup) Validate(starters int) error {
	if b.Players == nil || b.Games == nil || b.Events == nil {
		return fmt.Errorf("%w: players, games and events are required", ErrInvalidBackup)
	}

	players := make(map[int64]bool, len(b.Players))
	numbers := make(map[int]bool, len(b.Players))
	for _, p := range b.Players {
		if p.ID <= 0 || players[p.ID] {
			return fmt.Errorf("%w: bad or duplicate player id %d", ErrInvalidBackup, p.ID)
		}
		if p.Number < MinNumber || p.Number > MaxNumber {
			return fmt.Errorf("%w: player %d number %d out of range", ErrInvalidBackup, p.ID, p.Number)
		}
		if numbers[p.Number] {
			return fmt.Errorf("%w: duplicate jersey number %d", ErrInvalidBackup, p.Number)
		}
		players[p.ID] = true
		numbers[p.Number] = true
	}

	games := make(map[int64]bool, len(b.Games))
	for _, g := range b.Games {
		if g.ID <= 0 || games[g.ID] {
			return fmt.Errorf("%w: bad or duplicate game id %d", ErrInvalidBackup, g.ID)
		}
		if !g.Status.Valid() || !g.HomeAway.Valid() {
			return fmt.Errorf("%w: game %d has status %q and homeaway %q", ErrInvalidBackup, g.ID, g.Status, g.HomeAway)
		}
		if g.CurrentQuarter < 1 || g.CurrentQuarter > QuarterCount {
			return fmt.Errorf("%w: game %d quarter %d out of range", ErrInvalidBackup, g.ID, g.CurrentQuarter)
		}
		if len(g.Starters) != starters {
			return fmt.Errorf("%w: game %d has %d starters, want %d", ErrInvalidBackup, g.ID, len(g.Starters), starters)
		}
		lineup := make(map[int64]bool, len(g.Starters))
		for _, id := range g.Starters {
			if !players[id] {
				return fmt.Errorf("%w: game %d starter %d not on roster", ErrInvalidBackup, g.ID, id)
			}
			if lineup[id] {
				return fmt.Errorf("%w: game %d lists starter %d twice", ErrInvalidBackup, g.ID, id)
			}
			lineup[id] = true
		}
		games[g.ID] = true
	}

	events := make(map[int64]bool, len(b.Events))
	for _, e := range b.Events {
		if e.ID <= 0 || events[e.ID] {
			return fmt.Errorf("%w: bad or duplicate event id %d", ErrInvalidBackup, e.ID)
		}
		if !games[e.GameID] {
			return fmt.Errorf("%w: event %d references unknown game %d", ErrInvalidBackup, e.ID, e.GameID)
		}
		if !e.Kind.Valid() {
			return fmt.Errorf("%w: event %d has unknown type %q", ErrInvalidBackup, e.ID, e.Kind)
		}
		if e.Quarter < 1 || e.Quarter > QuarterCount {
			return fmt.Errorf("%w: event %d quarter %d out of range", ErrInvalidBackup, e.ID, e.Quarter)
		}
		events[e.ID] = true
	}
	return nil
}
