package main

import (
	"math/rand"

	"github.com/statsbasket/internal/domain"
)

var countingKinds = []domain.EventKind{
	domain.KindOffensiveRebound,
	domain.KindDefensiveRebound,
	domain.KindAssist,
	domain.KindSteal,
	domain.KindBlock,
	domain.KindTurnover,
	domain.KindPersonalFoul,
}

// generator produces plausible events for one live game. It tracks the
// lineup itself so every substitution it emits passes server validation.
type generator struct {
	rng     *rand.Rand
	gameID  int64
	onCourt []int64
	bench   []int64
	subPct  int
}

func newGenerator(rng *rand.Rand, gameID int64, starters, bench []int64) *generator {
	return &generator{
		rng:     rng,
		gameID:  gameID,
		onCourt: append([]int64{}, starters...),
		bench:   append([]int64{}, bench...),
		subPct:  5,
	}
}

func (g *generator) next(clock int) domain.RecordEventRequest {
	roll := g.rng.Intn(100)

	if roll < g.subPct && len(g.bench) > 0 {
		slot := g.rng.Intn(len(g.onCourt))
		pick := g.rng.Intn(len(g.bench))
		out, in := g.onCourt[slot], g.bench[pick]
		g.onCourt[slot], g.bench[pick] = in, out
		return domain.RecordEventRequest{
			GameID:           g.gameID,
			Kind:             domain.KindSubstitution,
			Out:              out,
			In:               in,
			GameClockSeconds: clock,
		}
	}

	req := domain.RecordEventRequest{
		GameID:           g.gameID,
		PlayerID:         g.onCourt[g.rng.Intn(len(g.onCourt))],
		GameClockSeconds: clock,
	}

	switch {
	case roll < 55:
		req.Kind, req.ShotZone = g.fieldGoal()
	case roll < 65:
		req.Kind = domain.KindFreeThrowMiss
		if g.rng.Intn(100) < 75 {
			req.Kind = domain.KindFreeThrowMade
		}
	default:
		req.Kind = countingKinds[g.rng.Intn(len(countingKinds))]
	}
	return req
}

func (g *generator) fieldGoal() (domain.EventKind, domain.ShotZone) {
	zone := domain.Zones[g.rng.Intn(len(domain.Zones))]
	if zone == domain.ZonePaint || g.rng.Intn(100) < 40 {
		if g.rng.Intn(100) < 52 {
			return domain.KindTwoPointMade, zone
		}
		return domain.KindTwoPointMiss, zone
	}
	if g.rng.Intn(100) < 35 {
		return domain.KindThreePointMade, zone
	}
	return domain.KindThreePointMiss, zone
}
