package stats

import (
	"sort"

	"github.com/statsbasket/internal/domain"
)

const (
	// StreakWindow is how many recent shots are kept per player
	StreakWindow = 5
	// StreakSample is how many of the most recent shots decide a streak
	StreakSample = 4
	// StreakMakes is how many makes within the sample make a player hot
	StreakMakes = 3
	// MinHotShots guards the hot players list against tiny samples
	MinHotShots = 3
)

// ShotOutcome is one entry of a player's recent shot window
type ShotOutcome struct {
	Kind domain.EventKind `json:"type"`
	Made bool             `json:"made"`
}

// StreakRecord tracks a player's most recent shots
type StreakRecord struct {
	PlayerID    int64         `json:"player_id"`
	Number      int           `json:"number"`
	Name        string        `json:"name"`
	RecentShots []ShotOutcome `json:"recent_shots"`
	HotStreak   bool          `json:"hot_streak"`
}

// RecentMakes counts makes in the window
func (r StreakRecord) RecentMakes() int {
	n := 0
	for _, s := range r.RecentShots {
		if s.Made {
			n++
		}
	}
	return n
}

// push appends a shot, evicts beyond the window and recomputes the flag
// from the current last-4 snapshot.
func (r *StreakRecord) push(shot ShotOutcome) {
	r.RecentShots = append(r.RecentShots, shot)
	if len(r.RecentShots) > StreakWindow {
		r.RecentShots = r.RecentShots[len(r.RecentShots)-StreakWindow:]
	}
	if len(r.RecentShots) >= StreakSample {
		made := 0
		for _, s := range r.RecentShots[len(r.RecentShots)-StreakSample:] {
			if s.Made {
				made++
			}
		}
		r.HotStreak = made >= StreakMakes
	}
}

// StreakReport holds every shooter's window plus the players currently hot
type StreakReport struct {
	Players    map[int64]StreakRecord `json:"players"`
	HotPlayers []StreakRecord         `json:"hot_players"`
}

// DetectHotStreaks replays shot attempts in chronological order and flags
// players who made at least 3 of their last 4 shots. Hot players are
// ordered by player id.
func DetectHotStreaks(events []domain.Event, roster []domain.Player) StreakReport {
	players := domain.PlayerIndex(roster)
	records := make(map[int64]*StreakRecord)

	for _, e := range domain.SortChronological(events) {
		if !e.Kind.IsShot() || e.Payload.PlayerID == 0 {
			continue
		}
		rec, ok := records[e.Payload.PlayerID]
		if !ok {
			rec = &StreakRecord{
				PlayerID: e.Payload.PlayerID,
				Number:   e.Payload.PlayerNumber,
				Name:     e.Payload.PlayerName,
			}
			if p, known := players[e.Payload.PlayerID]; known {
				rec.Number = p.Number
				rec.Name = p.Name
			}
			records[e.Payload.PlayerID] = rec
		}
		rec.push(ShotOutcome{Kind: e.Kind, Made: e.Kind.IsMade()})
	}

	report := StreakReport{
		Players:    make(map[int64]StreakRecord, len(records)),
		HotPlayers: []StreakRecord{},
	}
	ids := make([]int64, 0, len(records))
	for id, rec := range records {
		report.Players[id] = *rec
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		rec := records[id]
		if rec.HotStreak && len(rec.RecentShots) >= MinHotShots {
			report.HotPlayers = append(report.HotPlayers, *rec)
		}
	}
	return report
}
