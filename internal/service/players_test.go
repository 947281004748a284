package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statsbasket/internal/domain"
)

func TestRegisterPlayer_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.RegisterPlayer(ctx, domain.CreatePlayerRequest{Name: "José María", Number: 9})
	require.NoError(t, err)

	tests := []struct {
		name string
		req  domain.CreatePlayerRequest
		want error
	}{
		{"too short", domain.CreatePlayerRequest{Name: " A ", Number: 1}, domain.ErrInvalidPlayer},
		{"digits in name", domain.CreatePlayerRequest{Name: "R2D2", Number: 1}, domain.ErrInvalidPlayer},
		{"number too high", domain.CreatePlayerRequest{Name: "Valid Name", Number: 100}, domain.ErrInvalidPlayer},
		{"negative number", domain.CreatePlayerRequest{Name: "Valid Name", Number: -1}, domain.ErrInvalidPlayer},
		{"duplicate number", domain.CreatePlayerRequest{Name: "Other", Number: 9}, domain.ErrDuplicateNumber},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.RegisterPlayer(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRegisterPlayer_RosterCap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	letters := "ABCDEFGHIJKLMNOPQ"

	for i := 0; i < 17; i++ {
		_, err := f.svc.RegisterPlayer(ctx, domain.CreatePlayerRequest{Name: fmt.Sprintf("Player %c", letters[i]), Number: i})
		require.NoError(t, err)
	}
	_, err := f.svc.RegisterPlayer(ctx, domain.CreatePlayerRequest{Name: "One Too Many", Number: 50})
	assert.ErrorIs(t, err, domain.ErrRosterFull)
}

func TestRemovePlayer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	game := f.liveGame(t)

	assert.ErrorIs(t, f.svc.RemovePlayer(ctx, 1), domain.ErrPlayerReferenced, "starter")

	f.record(t, game.ID, domain.KindAssist, 6, "")
	assert.ErrorIs(t, f.svc.RemovePlayer(ctx, 6), domain.ErrPlayerReferenced, "has events")

	require.NoError(t, f.svc.RemovePlayer(ctx, 7))
	assert.ErrorIs(t, f.svc.RemovePlayer(ctx, 7), domain.ErrPlayerNotFound)

	players, err := f.svc.ListPlayers(ctx)
	require.NoError(t, err)
	assert.Len(t, players, 6)
}
