package stats

import (
	"fmt"
	"time"

	"github.com/statsbasket/internal/domain"
)

// TimelineEntry is a rendered game event
type TimelineEntry struct {
	EventID     int64            `json:"event_id"`
	Kind        domain.EventKind `json:"type"`
	Timestamp   time.Time        `json:"timestamp"`
	Description string           `json:"description"`
}

// QuarterTimeline lists one quarter's events, newest first
type QuarterTimeline struct {
	Quarter int             `json:"quarter"`
	Entries []TimelineEntry `json:"entries"`
}

// Timeline groups events per quarter with human readable descriptions
func Timeline(events []domain.Event, roster []domain.Player) []QuarterTimeline {
	players := domain.PlayerIndex(roster)

	quarters := make([]QuarterTimeline, domain.QuarterCount)
	for i := range quarters {
		quarters[i] = QuarterTimeline{Quarter: i + 1, Entries: []TimelineEntry{}}
	}

	sorted := domain.SortChronological(events)
	for i := len(sorted) - 1; i >= 0; i-- {
		e := sorted[i]
		if e.Quarter < 1 || e.Quarter > domain.QuarterCount {
			continue
		}
		q := &quarters[e.Quarter-1]
		q.Entries = append(q.Entries, TimelineEntry{
			EventID:     e.ID,
			Kind:        e.Kind,
			Timestamp:   e.Timestamp,
			Description: Describe(e, players),
		})
	}
	return quarters
}

// Describe renders a single event
func Describe(e domain.Event, players map[int64]domain.Player) string {
	if e.Kind == domain.KindSubstitution {
		return fmt.Sprintf("SUB: out %s, in %s",
			playerTag(players, e.Payload.Out, 0, ""),
			playerTag(players, e.Payload.In, 0, ""))
	}

	who := playerTag(players, e.Payload.PlayerID, e.Payload.PlayerNumber, e.Payload.PlayerName)
	if e.Payload.ShotZone != "" {
		return fmt.Sprintf("%s - %s (%s)", e.Kind.Label(), who, e.Payload.ShotZone.DisplayName())
	}
	return fmt.Sprintf("%s - %s", e.Kind.Label(), who)
}

func playerTag(players map[int64]domain.Player, id int64, number int, name string) string {
	if p, ok := players[id]; ok {
		return fmt.Sprintf("#%d %s", p.Number, p.Name)
	}
	if name != "" {
		return fmt.Sprintf("#%d %s", number, name)
	}
	return fmt.Sprintf("player %d", id)
}
