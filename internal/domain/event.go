package domain

import (
	"sort"
	"time"
)

// EventKind tags what happened in a game event
type EventKind string

const (
	KindTwoPointMade     EventKind = "2PM"
	KindTwoPointMiss     EventKind = "2PA"
	KindThreePointMade   EventKind = "3PM"
	KindThreePointMiss   EventKind = "3PA"
	KindFreeThrowMade    EventKind = "FTM"
	KindFreeThrowMiss    EventKind = "FTA"
	KindOffensiveRebound EventKind = "OREB"
	KindDefensiveRebound EventKind = "DREB"
	KindAssist           EventKind = "AST"
	KindSteal            EventKind = "STL"
	KindBlock            EventKind = "BLK"
	KindTurnover         EventKind = "TOV"
	KindPersonalFoul     EventKind = "PF"
	KindSubstitution     EventKind = "SUB"
)

// Valid reports whether the kind is one of the known event kinds
func (k EventKind) Valid() bool {
	switch k {
	case KindTwoPointMade, KindTwoPointMiss, KindThreePointMade, KindThreePointMiss,
		KindFreeThrowMade, KindFreeThrowMiss,
		KindOffensiveRebound, KindDefensiveRebound, KindAssist, KindSteal,
		KindBlock, KindTurnover, KindPersonalFoul, KindSubstitution:
		return true
	}
	return false
}

// IsShot reports whether the kind is any shot attempt, free throws included
func (k EventKind) IsShot() bool {
	return k.IsFieldGoal() || k == KindFreeThrowMade || k == KindFreeThrowMiss
}

// IsFieldGoal reports whether the kind is a two or three point attempt
func (k EventKind) IsFieldGoal() bool {
	switch k {
	case KindTwoPointMade, KindTwoPointMiss, KindThreePointMade, KindThreePointMiss:
		return true
	}
	return false
}

// IsMade reports whether the shot went in
func (k EventKind) IsMade() bool {
	return k == KindTwoPointMade || k == KindThreePointMade || k == KindFreeThrowMade
}

// IsThree reports whether the kind is a three point attempt
func (k EventKind) IsThree() bool {
	return k == KindThreePointMade || k == KindThreePointMiss
}

// Points returns the points scored by the event
func (k EventKind) Points() int {
	switch k {
	case KindTwoPointMade:
		return 2
	case KindThreePointMade:
		return 3
	case KindFreeThrowMade:
		return 1
	}
	return 0
}

// Label returns a human readable action name
func (k EventKind) Label() string {
	switch k {
	case KindTwoPointMade:
		return "2PT made"
	case KindTwoPointMiss:
		return "2PT missed"
	case KindThreePointMade:
		return "3PT made"
	case KindThreePointMiss:
		return "3PT missed"
	case KindFreeThrowMade:
		return "Free throw made"
	case KindFreeThrowMiss:
		return "Free throw missed"
	case KindOffensiveRebound:
		return "Offensive rebound"
	case KindDefensiveRebound:
		return "Defensive rebound"
	case KindAssist:
		return "Assist"
	case KindSteal:
		return "Steal"
	case KindBlock:
		return "Block"
	case KindTurnover:
		return "Turnover"
	case KindPersonalFoul:
		return "Personal foul"
	case KindSubstitution:
		return "Substitution"
	}
	return string(k)
}

// EventPayload carries the kind-specific fields of an event.
// Player fields are empty for substitutions; Out/In are empty for everything else.
type EventPayload struct {
	PlayerID         int64        `json:"player_id,omitempty"`
	PlayerNumber     int          `json:"player_number,omitempty"`
	PlayerName       string       `json:"player_name,omitempty"`
	GameClockSeconds int          `json:"game_clock_seconds"`
	ShotZone         ShotZone     `json:"shot_zone,omitempty"`
	ShotDetails      *ZoneDetails `json:"shot_details,omitempty"`
	Out              int64        `json:"out,omitempty"`
	In               int64        `json:"in,omitempty"`
}

// Event is an immutable record of one in-game occurrence
type Event struct {
	ID        int64        `json:"id"`
	GameID    int64        `json:"game_id"`
	Quarter   int          `json:"quarter"`
	Kind      EventKind    `json:"type"`
	Payload   EventPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

// RecordEventRequest represents a request to append an event to a game
type RecordEventRequest struct {
	GameID           int64     `json:"game_id"`
	Kind             EventKind `json:"type"`
	PlayerID         int64     `json:"player_id,omitempty"`
	ShotZone         ShotZone  `json:"shot_zone,omitempty"`
	GameClockSeconds int       `json:"game_clock_seconds"`
	Quarter          int       `json:"quarter,omitempty"`
	Out              int64     `json:"out,omitempty"`
	In               int64     `json:"in,omitempty"`
}

// Ingestion sources, used as metric labels
const (
	SourceHTTP  = "http"
	SourceKafka = "kafka"
)

// BatchRecordEvents represents multiple event submissions
type BatchRecordEvents struct {
	Events []RecordEventRequest `json:"events"`
}

// SortChronological returns a copy of events ordered by timestamp.
// Ties keep id order, then input order.
func SortChronological(events []Event) []Event {
	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Timestamp.Equal(sorted[j].Timestamp) {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		}
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}
