package stats

import (
	"time"

	"github.com/statsbasket/internal/domain"
)

// GameReport is every derived view of one game.
// When Empty is true the game has no events and all sections are omitted.
type GameReport struct {
	Game        domain.Game       `json:"game"`
	Empty       bool              `json:"empty"`
	EventCount  int               `json:"event_count"`
	Starters    []PlayerLine      `json:"starters,omitempty"`
	Bench       []PlayerLine      `json:"bench,omitempty"`
	Team        *TeamLine         `json:"team,omitempty"`
	Shots       *ShotAnalysis     `json:"shots,omitempty"`
	Streaks     *StreakReport     `json:"streaks,omitempty"`
	Quarters    []QuarterLine     `json:"quarters,omitempty"`
	Insights    *Insights         `json:"insights,omitempty"`
	Timeline    []QuarterTimeline `json:"timeline,omitempty"`
	OnCourt     []int64           `json:"on_court,omitempty"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// Lines returns the starters and bench lines keyed by player id
func (r *GameReport) Lines() map[int64]PlayerLine {
	lines := make(map[int64]PlayerLine, len(r.Starters)+len(r.Bench))
	for _, l := range r.Starters {
		lines[l.Player.ID] = l
	}
	for _, l := range r.Bench {
		lines[l.Player.ID] = l
	}
	return lines
}

// BuildReport runs every fold over the events belonging to the game.
// Events from other games are ignored.
func BuildReport(game domain.Game, roster []domain.Player, events []domain.Event) *GameReport {
	own := make([]domain.Event, 0, len(events))
	for _, e := range events {
		if e.GameID == game.ID {
			own = append(own, e)
		}
	}

	report := &GameReport{
		Game:       game,
		EventCount: len(own),
	}
	if len(own) == 0 {
		report.Empty = true
		return report
	}

	lines := AggregatePlayerStats(own, roster, game.Starters)
	shots := AnalyzeShotZones(own)
	streaks := DetectHotStreaks(own, roster)
	insights := GenerateInsights(shots, streaks)
	team := TeamTotals(lines)

	report.Starters, report.Bench = SplitLineup(lines)
	report.Team = &team
	report.Shots = &shots
	report.Streaks = &streaks
	report.Quarters = AggregateQuarters(own)
	report.Insights = &insights
	report.Timeline = Timeline(own, roster)
	report.OnCourt = OnCourt(game.Starters, roster, own)
	return report
}
