package stats

import "github.com/statsbasket/internal/domain"

// OnCourt replays substitutions in chronological order starting from the
// starters and returns who is on the floor, in lineup slot order.
//
// A substitution only applies when the outgoing player is on court and the
// incoming player is on the roster but off court; anything else is skipped.
// A nil roster accepts any incoming player.
func OnCourt(starters []int64, roster []domain.Player, events []domain.Event) []int64 {
	lineup := make([]int64, len(starters))
	copy(lineup, starters)

	var onRoster map[int64]domain.Player
	if roster != nil {
		onRoster = domain.PlayerIndex(roster)
	}

	for _, e := range domain.SortChronological(events) {
		if e.Kind != domain.KindSubstitution {
			continue
		}
		lineup = applySub(lineup, onRoster, e.Payload.Out, e.Payload.In)
	}
	return lineup
}

func applySub(lineup []int64, roster map[int64]domain.Player, out, in int64) []int64 {
	if out == 0 || in == 0 || out == in {
		return lineup
	}
	if roster != nil {
		if _, ok := roster[in]; !ok {
			return lineup
		}
	}
	slot := -1
	for i, id := range lineup {
		if id == in {
			return lineup
		}
		if id == out {
			slot = i
		}
	}
	if slot < 0 {
		return lineup
	}
	lineup[slot] = in
	return lineup
}

// IsOnCourt reports whether a player id is part of the lineup
func IsOnCourt(lineup []int64, playerID int64) bool {
	for _, id := range lineup {
		if id == playerID {
			return true
		}
	}
	return false
}
