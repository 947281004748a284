package stats

import "github.com/statsbasket/internal/domain"

// MinQualifyingAttempts is the sample size a zone needs before it can be
// labeled best or worst
const MinQualifyingAttempts = 3

// ZoneStat is the team's shooting from one zone
type ZoneStat struct {
	Zone      domain.ShotZone `json:"zone"`
	Name      string          `json:"name"`
	Made2     int             `json:"made2"`
	Att2      int             `json:"att2"`
	Made3     int             `json:"made3"`
	Att3      int             `json:"att3"`
	TotalMade int             `json:"total_made"`
	TotalAtt  int             `json:"total_att"`
	Pct2      float64         `json:"pct2"`
	Pct3      float64         `json:"pct3"`
	TotalPct  float64         `json:"total_pct"`
	Heat      int             `json:"heat"`
}

// ShotAnalysis is the per-zone breakdown of field goal attempts
type ShotAnalysis struct {
	Zones     map[domain.ShotZone]ZoneStat `json:"zones"`
	BestZone  *ZoneStat                    `json:"best_zone,omitempty"`
	WorstZone *ZoneStat                    `json:"worst_zone,omitempty"`
	Shots     int                          `json:"shots"`
}

// Ordered returns the zones in canonical order
func (a ShotAnalysis) Ordered() []ZoneStat {
	out := make([]ZoneStat, 0, len(domain.Zones))
	for _, z := range domain.Zones {
		if stat, ok := a.Zones[z]; ok {
			out = append(out, stat)
		}
	}
	return out
}

// AnalyzeShotZones buckets field goal attempts by zone.
//
// All six zones are always present. Free throws and shots without a
// canonical zone are left out. Best and worst zone are picked among zones
// with at least MinQualifyingAttempts; ties go to the earlier zone in
// canonical order.
func AnalyzeShotZones(events []domain.Event) ShotAnalysis {
	zones := make(map[domain.ShotZone]*ZoneStat, len(domain.Zones))
	for _, z := range domain.Zones {
		zones[z] = &ZoneStat{Zone: z, Name: z.DisplayName()}
	}

	shots := 0
	for _, e := range events {
		if !e.Kind.IsFieldGoal() {
			continue
		}
		stat, ok := zones[e.Payload.ShotZone]
		if !ok {
			// missing or unknown zone
			continue
		}
		made := e.Kind.IsMade()
		if e.Kind.IsThree() {
			stat.Att3++
			if made {
				stat.Made3++
			}
		} else {
			stat.Att2++
			if made {
				stat.Made2++
			}
		}
		stat.TotalAtt++
		if made {
			stat.TotalMade++
		}
		shots++
	}

	analysis := ShotAnalysis{
		Zones: make(map[domain.ShotZone]ZoneStat, len(zones)),
		Shots: shots,
	}
	var best, worst *ZoneStat
	for _, z := range domain.Zones {
		stat := zones[z]
		stat.Pct2 = Percent(stat.Made2, stat.Att2)
		stat.Pct3 = Percent(stat.Made3, stat.Att3)
		stat.TotalPct = Percent(stat.TotalMade, stat.TotalAtt)
		stat.Heat = HeatLevel(stat.TotalPct)
		analysis.Zones[z] = *stat

		if stat.TotalAtt < MinQualifyingAttempts {
			continue
		}
		if best == nil || stat.TotalPct > best.TotalPct {
			best = stat
		}
		if worst == nil || stat.TotalPct < worst.TotalPct {
			worst = stat
		}
	}

	if best != nil {
		b := *best
		analysis.BestZone = &b
	}
	if worst != nil {
		w := *worst
		analysis.WorstZone = &w
	}
	return analysis
}

// HeatLevel grades a shooting percentage from 1 (cold) to 5 (hot)
func HeatLevel(pct float64) int {
	switch {
	case pct >= 50:
		return 5
	case pct >= 40:
		return 4
	case pct >= 30:
		return 3
	case pct >= 20:
		return 2
	}
	return 1
}
