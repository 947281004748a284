package stats

import "fmt"

// Insight thresholds
const (
	criticalMinAttempts  = 5
	criticalMaxPct       = 25.0
	hotZoneMinAttempts   = 4
	hotZoneMinPct        = 60.0
	underusedMaxAttempts = 6
	underusedMinPct      = 50.0
)

// Insight is one coaching recommendation
type Insight struct {
	Message string `json:"message"`
	Action  string `json:"recommended_action"`
}

// Insights groups recommendations by priority
type Insights struct {
	Critical      []Insight `json:"critical"`
	Opportunities []Insight `json:"opportunities"`
	Tactical      []Insight `json:"tactical"`
}

// GenerateInsights turns zone efficiency and hot streaks into coaching
// recommendations. Rules are independent, so one zone may appear more
// than once. Zones are visited in canonical order and hot players in the
// order the streak report lists them.
func GenerateInsights(shots ShotAnalysis, streaks StreakReport) Insights {
	insights := Insights{
		Critical:      []Insight{},
		Opportunities: []Insight{},
		Tactical:      []Insight{},
	}

	zones := shots.Ordered()

	for _, z := range zones {
		if z.TotalAtt >= criticalMinAttempts && z.TotalPct < criticalMaxPct {
			insights.Critical = append(insights.Critical, Insight{
				Message: fmt.Sprintf("Cold from %s: %.1f%% on %d attempts", z.Name, z.TotalPct, z.TotalAtt),
				Action:  fmt.Sprintf("AVOID shots from %s. Look for better shot selection.", z.Name),
			})
		}
	}

	for _, z := range zones {
		if z.TotalAtt >= hotZoneMinAttempts && z.TotalPct >= hotZoneMinPct {
			insights.Opportunities = append(insights.Opportunities, Insight{
				Message: fmt.Sprintf("%s is on fire: %.1f%% on %d attempts", z.Name, z.TotalPct, z.TotalAtt),
				Action:  fmt.Sprintf("EXPLOIT %s. Run plays into this zone.", z.Name),
			})
		}
	}

	for _, p := range streaks.HotPlayers {
		insights.Opportunities = append(insights.Opportunities, Insight{
			Message: fmt.Sprintf("#%d %s is on a hot streak: %d/%d", p.Number, p.Name, p.RecentMakes(), len(p.RecentShots)),
			Action:  fmt.Sprintf("FEED #%d. Get them more shots.", p.Number),
		})
	}

	if best := shots.BestZone; best != nil && best.TotalAtt < underusedMaxAttempts && best.TotalPct >= underusedMinPct {
		insights.Opportunities = append(insights.Opportunities, Insight{
			Message: fmt.Sprintf("%s is our best zone (%.1f%%) but only %d attempts", best.Name, best.TotalPct, best.TotalAtt),
			Action:  fmt.Sprintf("INCREASE shots from %s. Design more plays for it.", best.Name),
		})
	}

	return insights
}
