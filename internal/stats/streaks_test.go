package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statsbasket/internal/domain"
)

func TestDetectHotStreaks_WindowEviction(t *testing.T) {
	kinds := []domain.EventKind{
		domain.KindTwoPointMade,
		domain.KindTwoPointMade,
		domain.KindThreePointMade,
		domain.KindTwoPointMiss,
		domain.KindThreePointMiss,
	}
	events := shots(1, "", kinds...)

	afterFour := DetectHotStreaks(events[:4], testRoster)
	assert.True(t, afterFour.Players[1].HotStreak, "3 of last 4 made")
	require.Len(t, afterFour.HotPlayers, 1)

	afterFive := DetectHotStreaks(events, testRoster)
	rec := afterFive.Players[1]
	assert.False(t, rec.HotStreak, "made, made, miss, miss in the last 4")
	assert.Len(t, rec.RecentShots, 5)
	assert.Empty(t, afterFive.HotPlayers)
}

func TestDetectHotStreaks_KeepsFiveMostRecent(t *testing.T) {
	events := shots(1, "",
		domain.KindTwoPointMiss, domain.KindTwoPointMiss,
		domain.KindTwoPointMade, domain.KindTwoPointMade, domain.KindTwoPointMade,
		domain.KindTwoPointMade, domain.KindThreePointMiss)

	rec := DetectHotStreaks(events, testRoster).Players[1]

	require.Len(t, rec.RecentShots, 5)
	assert.True(t, rec.RecentShots[0].Made)
	assert.False(t, rec.RecentShots[4].Made)
	assert.Equal(t, domain.KindThreePointMiss, rec.RecentShots[4].Kind)
	assert.Equal(t, 4, rec.RecentMakes())
	assert.True(t, rec.HotStreak)
}

func TestDetectHotStreaks_NeedsFourShots(t *testing.T) {
	events := shots(1, "", domain.KindTwoPointMade, domain.KindTwoPointMade, domain.KindTwoPointMade)

	report := DetectHotStreaks(events, testRoster)

	assert.False(t, report.Players[1].HotStreak)
	assert.Empty(t, report.HotPlayers)
}

func TestDetectHotStreaks_SortsByTimestamp(t *testing.T) {
	// recorded out of order: the two misses actually happened last
	events := shots(1, "",
		domain.KindTwoPointMiss, domain.KindTwoPointMiss,
		domain.KindTwoPointMade, domain.KindTwoPointMade, domain.KindTwoPointMade)
	events[0].Timestamp = baseTime.Add(time.Minute)
	events[1].Timestamp = baseTime.Add(2 * time.Minute)

	rec := DetectHotStreaks(events, testRoster).Players[1]

	assert.False(t, rec.HotStreak)
	assert.False(t, rec.RecentShots[4].Made)
}

func TestDetectHotStreaks_IncludesFreeThrowsAndIgnoresOthers(t *testing.T) {
	log := &eventLog{}
	log.add(domain.KindFreeThrowMade, 2, "", 1).
		add(domain.KindAssist, 2, "", 1).
		add(domain.KindFreeThrowMade, 2, "", 1).
		add(domain.KindTwoPointMiss, 2, domain.ZonePaint, 1).
		add(domain.KindThreePointMade, 2, domain.ZoneCenter, 1).
		sub(2, 6, 1)

	report := DetectHotStreaks(log.events, testRoster)

	rec := report.Players[2]
	assert.Len(t, rec.RecentShots, 4)
	assert.True(t, rec.HotStreak)
	assert.Equal(t, 7, rec.Number)
	assert.Equal(t, "Alvarez", rec.Name)
	assert.NotContains(t, report.Players, int64(6))
}

func TestDetectHotStreaks_HotPlayersOrderedByID(t *testing.T) {
	var events []domain.Event
	for _, id := range []int64{5, 3, 1} {
		batch := shots(id, "", domain.KindTwoPointMade, domain.KindTwoPointMade, domain.KindTwoPointMade, domain.KindTwoPointMade)
		for i := range batch {
			batch[i].ID += id * 100
		}
		events = append(events, batch...)
	}

	report := DetectHotStreaks(events, testRoster)

	require.Len(t, report.HotPlayers, 3)
	assert.Equal(t, int64(1), report.HotPlayers[0].PlayerID)
	assert.Equal(t, int64(3), report.HotPlayers[1].PlayerID)
	assert.Equal(t, int64(5), report.HotPlayers[2].PlayerID)
}

func TestDetectHotStreaks_UnknownPlayerUsesPayload(t *testing.T) {
	events := shots(42, "", domain.KindTwoPointMade)
	events[0].Payload.PlayerNumber = 9
	events[0].Payload.PlayerName = "Guest"

	rec := DetectHotStreaks(events, testRoster).Players[42]

	assert.Equal(t, 9, rec.Number)
	assert.Equal(t, "Guest", rec.Name)
}
