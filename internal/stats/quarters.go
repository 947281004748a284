package stats

import "github.com/statsbasket/internal/domain"

// QuarterLine holds team totals for one quarter
type QuarterLine struct {
	Quarter   int `json:"quarter"`
	Points    int `json:"points"`
	FG2Made   int `json:"fg2_made"`
	FG2Att    int `json:"fg2_att"`
	FG3Made   int `json:"fg3_made"`
	FG3Att    int `json:"fg3_att"`
	Rebounds  int `json:"rebounds"`
	Assists   int `json:"assists"`
	Steals    int `json:"steals"`
	Blocks    int `json:"blocks"`
	Turnovers int `json:"turnovers"`
	Fouls     int `json:"fouls"`
	Events    int `json:"events"`
}

// HasActivity separates a quarter with no events at all from one whose
// events happen to produce zero stats
func (q QuarterLine) HasActivity() bool {
	return q.Events > 0
}

// AggregateQuarters buckets events by their declared quarter, never by
// timestamp. The result always has one line per regulation quarter;
// events outside 1..4 are ignored.
func AggregateQuarters(events []domain.Event) []QuarterLine {
	lines := make([]QuarterLine, domain.QuarterCount)
	for i := range lines {
		lines[i].Quarter = i + 1
	}

	for _, e := range events {
		if e.Quarter < 1 || e.Quarter > domain.QuarterCount {
			continue
		}
		q := &lines[e.Quarter-1]
		q.Events++
		q.Points += e.Kind.Points()

		switch e.Kind {
		case domain.KindTwoPointMade:
			q.FG2Made++
			q.FG2Att++
		case domain.KindTwoPointMiss:
			q.FG2Att++
		case domain.KindThreePointMade:
			q.FG3Made++
			q.FG3Att++
		case domain.KindThreePointMiss:
			q.FG3Att++
		case domain.KindOffensiveRebound, domain.KindDefensiveRebound:
			q.Rebounds++
		case domain.KindAssist:
			q.Assists++
		case domain.KindSteal:
			q.Steals++
		case domain.KindBlock:
			q.Blocks++
		case domain.KindTurnover:
			q.Turnovers++
		case domain.KindPersonalFoul:
			q.Fouls++
		default:
			// free throws only add points; substitutions and unknown kinds add nothing
		}
	}
	return lines
}
