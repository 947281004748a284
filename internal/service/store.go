package service

import (
	"context"

	"github.com/statsbasket/internal/domain"
	"github.com/statsbasket/internal/stats"
)

// Store persists players, games and the append-only event log.
// Implemented by postgres.Repository and memstore.Store.
type Store interface {
	Ping(ctx context.Context) error

	CreatePlayer(ctx context.Context, p domain.Player) (*domain.Player, error)
	GetPlayer(ctx context.Context, id int64) (*domain.Player, error)
	ListPlayers(ctx context.Context) ([]domain.Player, error)
	DeletePlayer(ctx context.Context, id int64) error
	PlayerHasEvents(ctx context.Context, id int64) (bool, error)

	CreateGame(ctx context.Context, g domain.Game) (*domain.Game, error)
	GetGame(ctx context.Context, id int64) (*domain.Game, error)
	ListGames(ctx context.Context) ([]domain.Game, error)
	UpdateGame(ctx context.Context, g domain.Game) error
	DeleteGame(ctx context.Context, id int64) error
	DeleteFinishedGames(ctx context.Context) ([]int64, error)
	ClearGames(ctx context.Context) error

	AppendEvent(ctx context.Context, e domain.Event) (*domain.Event, error)
	ListEvents(ctx context.Context, gameID int64) ([]domain.Event, error)

	Export(ctx context.Context) (*domain.Backup, error)
	Restore(ctx context.Context, b domain.Backup) error
}

// ReportCache keeps derived reports and scoring leaders close to readers.
// Implemented by redis.GameCache.
type ReportCache interface {
	GetReport(ctx context.Context, gameID int64) (*stats.GameReport, error)
	SetReport(ctx context.Context, report *stats.GameReport) error
	InvalidateReport(ctx context.Context, gameID int64) error
	AddPoints(ctx context.Context, gameID, playerID int64, points int) (int64, error)
	ReplaceScoring(ctx context.Context, gameID int64, points map[int64]int64) error
	Scoring(ctx context.Context, gameID int64) (map[int64]int64, error)
	DeleteGame(ctx context.Context, gameID int64) error
}

// Broadcaster pushes live updates to subscribers of a game.
// Implemented by websocket.Hub.
type Broadcaster interface {
	BroadcastEvent(event domain.Event)
	BroadcastReport(report *stats.GameReport)
}
