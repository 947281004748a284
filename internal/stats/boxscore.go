// Package stats folds a game's event log into box scores, shot-zone
// efficiency, hot streaks, quarter breakdowns and coaching insights.
//
// Every function here is a pure transformation of in-memory data: no I/O,
// no shared state, no errors. Malformed input degrades to empty or zero
// output instead of failing.
package stats

import (
	"sort"

	"github.com/statsbasket/internal/domain"
)

// PlayerLine is a player's box score for one game
type PlayerLine struct {
	Player    domain.Player `json:"player"`
	Starter   bool          `json:"is_starter"`
	FG2Made   int           `json:"fg2_made"`
	FG2Att    int           `json:"fg2_att"`
	FG3Made   int           `json:"fg3_made"`
	FG3Att    int           `json:"fg3_att"`
	FTMade    int           `json:"ft_made"`
	FTAtt     int           `json:"ft_att"`
	OffReb    int           `json:"oreb"`
	DefReb    int           `json:"dreb"`
	Assists   int           `json:"ast"`
	Steals    int           `json:"stl"`
	Blocks    int           `json:"blk"`
	Turnovers int           `json:"tov"`
	Fouls     int           `json:"pf"`
	Points    int           `json:"points"`
}

// Rebounds returns offensive plus defensive rebounds
func (l PlayerLine) Rebounds() int {
	return l.OffReb + l.DefReb
}

// FG2Pct returns two point percentage
func (l PlayerLine) FG2Pct() float64 { return Percent(l.FG2Made, l.FG2Att) }

// FG3Pct returns three point percentage
func (l PlayerLine) FG3Pct() float64 { return Percent(l.FG3Made, l.FG3Att) }

// FTPct returns free throw percentage
func (l PlayerLine) FTPct() float64 { return Percent(l.FTMade, l.FTAtt) }

// Percent returns made/attempted as a percentage, 0 when nothing was attempted
func Percent(made, attempted int) float64 {
	if attempted <= 0 {
		return 0
	}
	return float64(made) / float64(attempted) * 100
}

// AggregatePlayerStats folds a game's events into per-player box scores.
//
// A line exists for every roster player who started or appears as the
// player of any event. Events for players outside that set are dropped,
// and unknown kinds are skipped.
func AggregatePlayerStats(events []domain.Event, roster []domain.Player, starters []int64) map[int64]PlayerLine {
	isStarter := make(map[int64]bool, len(starters))
	for _, id := range starters {
		isStarter[id] = true
	}
	appears := make(map[int64]bool)
	for _, e := range events {
		if e.Payload.PlayerID != 0 {
			appears[e.Payload.PlayerID] = true
		}
	}

	lines := make(map[int64]*PlayerLine)
	for _, p := range roster {
		if isStarter[p.ID] || appears[p.ID] {
			lines[p.ID] = &PlayerLine{Player: p, Starter: isStarter[p.ID]}
		}
	}

	for _, e := range events {
		line, ok := lines[e.Payload.PlayerID]
		if !ok {
			continue
		}
		applyEvent(line, e.Kind)
	}

	result := make(map[int64]PlayerLine, len(lines))
	for id, line := range lines {
		result[id] = *line
	}
	return result
}

func applyEvent(line *PlayerLine, kind domain.EventKind) {
	switch kind {
	case domain.KindTwoPointMade:
		line.FG2Made++
		line.FG2Att++
		line.Points += 2
	case domain.KindTwoPointMiss:
		line.FG2Att++
	case domain.KindThreePointMade:
		line.FG3Made++
		line.FG3Att++
		line.Points += 3
	case domain.KindThreePointMiss:
		line.FG3Att++
	case domain.KindFreeThrowMade:
		line.FTMade++
		line.FTAtt++
		line.Points++
	case domain.KindFreeThrowMiss:
		line.FTAtt++
	case domain.KindOffensiveRebound:
		line.OffReb++
	case domain.KindDefensiveRebound:
		line.DefReb++
	case domain.KindAssist:
		line.Assists++
	case domain.KindSteal:
		line.Steals++
	case domain.KindBlock:
		line.Blocks++
	case domain.KindTurnover:
		line.Turnovers++
	case domain.KindPersonalFoul:
		line.Fouls++
	case domain.KindSubstitution:
		// lineup only, see OnCourt
	default:
		// unknown kinds are ignored so a partial report can still render
	}
}

// SplitLineup separates starters from bench, each ordered by jersey number
func SplitLineup(lines map[int64]PlayerLine) (starters, bench []PlayerLine) {
	for _, line := range lines {
		if line.Starter {
			starters = append(starters, line)
		} else {
			bench = append(bench, line)
		}
	}
	byNumber := func(s []PlayerLine) {
		sort.Slice(s, func(i, j int) bool {
			if s[i].Player.Number != s[j].Player.Number {
				return s[i].Player.Number < s[j].Player.Number
			}
			return s[i].Player.ID < s[j].Player.ID
		})
	}
	byNumber(starters)
	byNumber(bench)
	return starters, bench
}

// TeamLine is the sum of every player line
type TeamLine struct {
	FG2Made   int     `json:"fg2_made"`
	FG2Att    int     `json:"fg2_att"`
	FG2Pct    float64 `json:"fg2_pct"`
	FG3Made   int     `json:"fg3_made"`
	FG3Att    int     `json:"fg3_att"`
	FG3Pct    float64 `json:"fg3_pct"`
	FTMade    int     `json:"ft_made"`
	FTAtt     int     `json:"ft_att"`
	FTPct     float64 `json:"ft_pct"`
	OffReb    int     `json:"oreb"`
	DefReb    int     `json:"dreb"`
	Rebounds  int     `json:"reb"`
	Assists   int     `json:"ast"`
	Steals    int     `json:"stl"`
	Blocks    int     `json:"blk"`
	Turnovers int     `json:"tov"`
	Fouls     int     `json:"pf"`
	Points    int     `json:"points"`
}

// TeamTotals sums player lines into team totals
func TeamTotals(lines map[int64]PlayerLine) TeamLine {
	var t TeamLine
	for _, l := range lines {
		t.FG2Made += l.FG2Made
		t.FG2Att += l.FG2Att
		t.FG3Made += l.FG3Made
		t.FG3Att += l.FG3Att
		t.FTMade += l.FTMade
		t.FTAtt += l.FTAtt
		t.OffReb += l.OffReb
		t.DefReb += l.DefReb
		t.Assists += l.Assists
		t.Steals += l.Steals
		t.Blocks += l.Blocks
		t.Turnovers += l.Turnovers
		t.Fouls += l.Fouls
		t.Points += l.Points
	}
	t.Rebounds = t.OffReb + t.DefReb
	t.FG2Pct = Percent(t.FG2Made, t.FG2Att)
	t.FG3Pct = Percent(t.FG3Made, t.FG3Att)
	t.FTPct = Percent(t.FTMade, t.FTAtt)
	return t
}
