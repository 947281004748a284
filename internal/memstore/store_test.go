package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statsbasket/internal/domain"
)

func TestStore_Players(t *testing.T) {
	ctx := context.Background()
	s := New()

	a, err := s.CreatePlayer(ctx, domain.Player{Name: "Ana", Number: 12})
	require.NoError(t, err)
	b, err := s.CreatePlayer(ctx, domain.Player{Name: "Bea", Number: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(1), a.ID)
	assert.Equal(t, int64(2), b.ID)

	_, err = s.CreatePlayer(ctx, domain.Player{Name: "Cai", Number: 12})
	assert.ErrorIs(t, err, domain.ErrDuplicateNumber)

	players, err := s.ListPlayers(ctx)
	require.NoError(t, err)
	require.Len(t, players, 2)
	assert.Equal(t, "Bea", players[0].Name, "ordered by number")

	require.NoError(t, s.DeletePlayer(ctx, a.ID))
	_, err = s.GetPlayer(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrPlayerNotFound)
	assert.ErrorIs(t, s.DeletePlayer(ctx, a.ID), domain.ErrPlayerNotFound)
}

func TestStore_GamesAndEvents(t *testing.T) {
	ctx := context.Background()
	s := New()
	day := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	g1, err := s.CreateGame(ctx, domain.Game{Opponent: "North", Date: day, Starters: []int64{1, 2, 3, 4, 5}})
	require.NoError(t, err)
	g2, err := s.CreateGame(ctx, domain.Game{Opponent: "South", Date: day.AddDate(0, 0, 7), Status: domain.GameStatusFinished})
	require.NoError(t, err)

	games, err := s.ListGames(ctx)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, g2.ID, games[0].ID, "latest date first")

	e, err := s.AppendEvent(ctx, domain.Event{GameID: g1.ID, Kind: domain.KindAssist, Payload: domain.EventPayload{PlayerID: 4}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), e.ID)

	_, err = s.AppendEvent(ctx, domain.Event{GameID: 99, Kind: domain.KindAssist})
	assert.ErrorIs(t, err, domain.ErrGameNotFound)

	used, err := s.PlayerHasEvents(ctx, 4)
	require.NoError(t, err)
	assert.True(t, used)
	used, err = s.PlayerHasEvents(ctx, 5)
	require.NoError(t, err)
	assert.False(t, used)

	g1.Status = domain.GameStatusInProgress
	g1.CurrentQuarter = 3
	require.NoError(t, s.UpdateGame(ctx, *g1))
	got, err := s.GetGame(ctx, g1.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.CurrentQuarter)

	ids, err := s.DeleteFinishedGames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{g2.ID}, ids)

	require.NoError(t, s.DeleteGame(ctx, g1.ID))
	_, err = s.ListEvents(ctx, g1.ID)
	assert.ErrorIs(t, err, domain.ErrGameNotFound)
}

func TestStore_ExportRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := New()
	p, _ := src.CreatePlayer(ctx, domain.Player{Name: "Ana", Number: 12})
	g, _ := src.CreateGame(ctx, domain.Game{Opponent: "North", Starters: []int64{p.ID}})
	_, _ = src.AppendEvent(ctx, domain.Event{GameID: g.ID, Kind: domain.KindSteal, Payload: domain.EventPayload{PlayerID: p.ID}})

	backup, err := src.Export(ctx)
	require.NoError(t, err)
	require.Len(t, backup.Events, 1)

	dst := New()
	_, _ = dst.CreatePlayer(ctx, domain.Player{Name: "Old", Number: 1})
	require.NoError(t, dst.Restore(ctx, *backup))

	again, err := dst.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, backup.Players, again.Players)
	assert.Equal(t, backup.Games, again.Games)
	assert.Equal(t, backup.Events, again.Events)

	next, err := dst.CreatePlayer(ctx, domain.Player{Name: "New", Number: 30})
	require.NoError(t, err)
	assert.Equal(t, p.ID+1, next.ID, "id sequence continues after restore")
}

func TestStore_ClearGamesDoesNotReuseIDs(t *testing.T) {
	ctx := context.Background()
	s := New()
	first, err := s.CreateGame(ctx, domain.Game{Opponent: "North"})
	require.NoError(t, err)

	require.NoError(t, s.ClearGames(ctx))
	_, err = s.GetGame(ctx, first.ID)
	assert.ErrorIs(t, err, domain.ErrGameNotFound)

	next, err := s.CreateGame(ctx, domain.Game{Opponent: "South"})
	require.NoError(t, err)
	assert.Greater(t, next.ID, first.ID)
}
