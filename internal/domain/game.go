package domain

import (
	"time"
)

// GameStatus represents the lifecycle state of a game
type GameStatus string

const (
	GameStatusScheduled  GameStatus = "SCHEDULED"
	GameStatusInProgress GameStatus = "IN_PROGRESS"
	GameStatusFinished   GameStatus = "FINISHED"
)

// Valid reports whether the status is one of the known states
func (s GameStatus) Valid() bool {
	switch s {
	case GameStatusScheduled, GameStatusInProgress, GameStatusFinished:
		return true
	}
	return false
}

// HomeAway marks whether the team plays at home or away
type HomeAway string

const (
	Home HomeAway = "home"
	Away HomeAway = "away"
)

// Valid reports whether the value is home or away
func (h HomeAway) Valid() bool {
	return h == Home || h == Away
}

const (
	// StarterCount is the size of the initial lineup
	StarterCount = 5
	// QuarterCount is the number of regulation quarters
	QuarterCount = 4
)

// Game holds the static context needed to interpret a game's events
type Game struct {
	ID             int64      `json:"id"`
	Opponent       string     `json:"opponent"`
	HomeAway       HomeAway   `json:"homeaway"`
	Venue          string     `json:"venue,omitempty"`
	Date           time.Time  `json:"date"`
	Starters       []int64    `json:"starters"`
	Status         GameStatus `json:"status"`
	CurrentQuarter int        `json:"current_quarter"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsStarter reports whether the player was in the initial lineup
func (g *Game) IsStarter(playerID int64) bool {
	for _, id := range g.Starters {
		if id == playerID {
			return true
		}
	}
	return false
}

// CreateGameRequest represents a request to configure a new game
type CreateGameRequest struct {
	Opponent string    `json:"opponent"`
	HomeAway HomeAway  `json:"homeaway"`
	Venue    string    `json:"venue,omitempty"`
	Date     time.Time `json:"date"`
	Starters []int64   `json:"starters"`
}

// ToGame converts a CreateGameRequest to a Game with defaults
func (r *CreateGameRequest) ToGame(now time.Time) Game {
	starters := make([]int64, len(r.Starters))
	copy(starters, r.Starters)

	game := Game{
		Opponent:       r.Opponent,
		HomeAway:       r.HomeAway,
		Venue:          r.Venue,
		Date:           r.Date,
		Starters:       starters,
		Status:         GameStatusScheduled,
		CurrentQuarter: 1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if game.Date.IsZero() {
		game.Date = now
	}

	return game
}

// SetQuarterRequest moves a game to another quarter
type SetQuarterRequest struct {
	Quarter int `json:"quarter"`
}
