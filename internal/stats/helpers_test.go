package stats

import (
	"time"

	"github.com/statsbasket/internal/domain"
)

var baseTime = time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)

var testRoster = []domain.Player{
	{ID: 1, Name: "Dominguez", Number: 23},
	{ID: 2, Name: "Alvarez", Number: 7},
	{ID: 3, Name: "Brooks", Number: 11},
	{ID: 4, Name: "Chen", Number: 4},
	{ID: 5, Name: "Diaz", Number: 15},
	{ID: 6, Name: "Evans", Number: 30},
	{ID: 7, Name: "Fischer", Number: 2},
}

var testStarters = []int64{1, 2, 3, 4, 5}

// eventLog builds events with increasing ids and timestamps one second apart
type eventLog struct {
	events []domain.Event
}

func (l *eventLog) add(kind domain.EventKind, playerID int64, zone domain.ShotZone, quarter int) *eventLog {
	id := int64(len(l.events) + 1)
	l.events = append(l.events, domain.Event{
		ID:      id,
		GameID:  1,
		Quarter: quarter,
		Kind:    kind,
		Payload: domain.EventPayload{
			PlayerID: playerID,
			ShotZone: zone,
		},
		Timestamp: baseTime.Add(time.Duration(id) * time.Second),
	})
	return l
}

func (l *eventLog) sub(out, in int64, quarter int) *eventLog {
	id := int64(len(l.events) + 1)
	l.events = append(l.events, domain.Event{
		ID:        id,
		GameID:    1,
		Quarter:   quarter,
		Kind:      domain.KindSubstitution,
		Payload:   domain.EventPayload{Out: out, In: in},
		Timestamp: baseTime.Add(time.Duration(id) * time.Second),
	})
	return l
}

func shots(playerID int64, zone domain.ShotZone, kinds ...domain.EventKind) []domain.Event {
	l := &eventLog{}
	for _, k := range kinds {
		l.add(k, playerID, zone, 1)
	}
	return l.events
}
