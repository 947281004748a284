package domain

import "time"

// Jersey numbers a player may wear
const (
	MinNumber = 0
	MaxNumber = 99
)

// Player represents a registered roster player
type Player struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Number    int       `json:"number"`
	CreatedAt time.Time `json:"created_at"`
}

// CreatePlayerRequest represents a request to register a player
type CreatePlayerRequest struct {
	Name   string `json:"name"`
	Number int    `json:"number"`
}

// ScoringEntry is a player's position in a game's scoring leaders
type ScoringEntry struct {
	Rank     int64  `json:"rank"`
	PlayerID int64  `json:"player_id"`
	Points   int64  `json:"points"`
	Name     string `json:"name,omitempty"`
	Number   int    `json:"number,omitempty"`
}

// PlayerIndex builds an id lookup over a roster
func PlayerIndex(roster []Player) map[int64]Player {
	index := make(map[int64]Player, len(roster))
	for _, p := range roster {
		index[p.ID] = p
	}
	return index
}
