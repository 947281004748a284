package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/statsbasket/internal/stats"
)

// palette holds the colors used by the report renderer
type palette struct {
	title    *color.Color
	critical *color.Color
	good     *color.Color
	muted    *color.Color
	heat     [6]*color.Color
}

func newPalette(enabled bool) *palette {
	p := &palette{
		title:    color.New(color.Bold, color.FgWhite),
		critical: color.New(color.FgRed, color.Bold),
		good:     color.New(color.FgGreen),
		muted:    color.New(color.Faint),
		heat: [6]*color.Color{
			color.New(color.Reset),
			color.New(color.FgBlue),
			color.New(color.FgCyan),
			color.New(color.FgYellow),
			color.New(color.FgRed),
			color.New(color.FgRed, color.Bold),
		},
	}
	if !enabled {
		for _, c := range p.all() {
			c.DisableColor()
		}
	}
	return p
}

func (p *palette) all() []*color.Color {
	return append([]*color.Color{p.title, p.critical, p.good, p.muted}, p.heat[:]...)
}

// heatBar draws a zone's heat level 1-5 as a colored bar
func (p *palette) heatBar(level int) string {
	if level < 1 || level > 5 {
		level = 1
	}
	return p.heat[level].Sprint(strings.Repeat("█", level) + strings.Repeat("░", 5-level))
}

func renderReport(w io.Writer, r *stats.GameReport, p *palette) {
	g := r.Game
	p.title.Fprintf(w, "vs %s (%s) %s\n", g.Opponent, g.HomeAway, g.Date.Format("2006-01-02"))
	fmt.Fprintf(w, "Status %s, quarter %d, %d events\n\n", g.Status, g.CurrentQuarter, r.EventCount)

	if r.Empty {
		p.muted.Fprintln(w, "No events recorded for this game.")
		return
	}

	renderBoxScore(w, "Starters", r.Starters, p)
	renderBoxScore(w, "Bench", r.Bench, p)

	t := r.Team
	fmt.Fprintf(w, "Team: %d PTS, 2PT %d/%d (%.1f%%), 3PT %d/%d (%.1f%%), FT %d/%d (%.1f%%), %d REB, %d AST\n\n",
		t.Points, t.FG2Made, t.FG2Att, t.FG2Pct, t.FG3Made, t.FG3Att, t.FG3Pct,
		t.FTMade, t.FTAtt, t.FTPct, t.Rebounds, t.Assists)

	p.title.Fprintln(w, "Shot zones")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ZONE\t2PT\t3PT\tFG\tFG%\tHEAT")
	for _, z := range r.Shots.Ordered() {
		fmt.Fprintf(tw, "%s\t%d/%d\t%d/%d\t%d/%d\t%.1f\t%s\n",
			z.Name, z.Made2, z.Att2, z.Made3, z.Att3, z.TotalMade, z.TotalAtt, z.TotalPct, p.heatBar(z.Heat))
	}
	tw.Flush()
	if b := r.Shots.BestZone; b != nil {
		p.good.Fprintf(w, "Best zone: %s (%.1f%%)\n", b.Name, b.TotalPct)
	}
	if wz := r.Shots.WorstZone; wz != nil {
		p.critical.Fprintf(w, "Worst zone: %s (%.1f%%)\n", wz.Name, wz.TotalPct)
	}
	fmt.Fprintln(w)

	if len(r.Streaks.HotPlayers) > 0 {
		p.title.Fprintln(w, "Hot hands")
		for _, rec := range r.Streaks.HotPlayers {
			fmt.Fprintf(w, "  #%d %s: %d of last %d\n", rec.Number, rec.Name, rec.RecentMakes(), len(rec.RecentShots))
		}
		fmt.Fprintln(w)
	}

	p.title.Fprintln(w, "Quarters")
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Q\tPTS\t2PT\t3PT\tREB\tAST\tTOV\tPF")
	for _, q := range r.Quarters {
		if !q.HasActivity() {
			continue
		}
		fmt.Fprintf(tw, "%d\t%d\t%d/%d\t%d/%d\t%d\t%d\t%d\t%d\n",
			q.Quarter, q.Points, q.FG2Made, q.FG2Att, q.FG3Made, q.FG3Att,
			q.Rebounds, q.Assists, q.Turnovers, q.Fouls)
	}
	tw.Flush()
	fmt.Fprintln(w)

	renderInsights(w, r.Insights, p)
}

func renderBoxScore(w io.Writer, title string, lines []stats.PlayerLine, p *palette) {
	if len(lines) == 0 {
		return
	}
	p.title.Fprintln(w, title)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPLAYER\tPTS\t2PT\t3PT\tFT\tREB\tAST\tSTL\tBLK\tTOV\tPF")
	for _, l := range lines {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d/%d\t%d/%d\t%d/%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
			l.Player.Number, l.Player.Name, l.Points,
			l.FG2Made, l.FG2Att, l.FG3Made, l.FG3Att, l.FTMade, l.FTAtt,
			l.Rebounds(), l.Assists, l.Steals, l.Blocks, l.Turnovers, l.Fouls)
	}
	tw.Flush()
	fmt.Fprintln(w)
}

func renderInsights(w io.Writer, in *stats.Insights, p *palette) {
	if in == nil {
		return
	}
	sections := []struct {
		label string
		c     *color.Color
		items []stats.Insight
	}{
		{"Critical", p.critical, in.Critical},
		{"Opportunities", p.good, in.Opportunities},
		{"Tactical", p.title, in.Tactical},
	}
	for _, s := range sections {
		if len(s.items) == 0 {
			continue
		}
		s.c.Fprintln(w, s.label)
		for _, item := range s.items {
			fmt.Fprintf(w, "  - %s\n    %s\n", item.Message, item.Action)
		}
	}
}
