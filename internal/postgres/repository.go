package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/statsbasket/internal/config"
	"github.com/statsbasket/internal/domain"
)

// PostgreSQL error codes
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Repository provides PostgreSQL-based data access
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// Ping checks the database connection
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS players (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			number INT NOT NULL UNIQUE CHECK (number BETWEEN 0 AND 99),
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS games (
			id BIGSERIAL PRIMARY KEY,
			opponent VARCHAR(255) NOT NULL,
			homeaway VARCHAR(10) NOT NULL,
			venue VARCHAR(255) NOT NULL DEFAULT '',
			game_date TIMESTAMPTZ NOT NULL,
			starters BIGINT[] NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'SCHEDULED',
			current_quarter INT NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS game_events (
			id BIGSERIAL PRIMARY KEY,
			game_id BIGINT NOT NULL REFERENCES games(id) ON DELETE CASCADE,
			quarter INT NOT NULL,
			kind VARCHAR(8) NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_game_events_game ON game_events(game_id, created_at, id)`,
		`CREATE INDEX IF NOT EXISTS idx_games_status ON games(status)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

// CreatePlayer inserts a player and returns it with its id
func (r *Repository) CreatePlayer(ctx context.Context, p domain.Player) (*domain.Player, error) {
	query := `
		INSERT INTO players (name, number, created_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	err := r.pool.QueryRow(ctx, query, p.Name, p.Number, p.CreatedAt).Scan(&p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateNumber
		}
		return nil, fmt.Errorf("creating player: %w", err)
	}
	return &p, nil
}

// GetPlayer retrieves a player by id
func (r *Repository) GetPlayer(ctx context.Context, id int64) (*domain.Player, error) {
	query := `SELECT id, name, number, created_at FROM players WHERE id = $1`
	var p domain.Player
	err := r.pool.QueryRow(ctx, query, id).Scan(&p.ID, &p.Name, &p.Number, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("getting player: %w", err)
	}
	return &p, nil
}

// ListPlayers retrieves the roster ordered by jersey number
func (r *Repository) ListPlayers(ctx context.Context) ([]domain.Player, error) {
	return r.listPlayers(ctx, `SELECT id, name, number, created_at FROM players ORDER BY number`)
}

func (r *Repository) listPlayers(ctx context.Context, query string) ([]domain.Player, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}
	defer rows.Close()

	players := []domain.Player{}
	for rows.Next() {
		var p domain.Player
		if err := rows.Scan(&p.ID, &p.Name, &p.Number, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// DeletePlayer removes a player
func (r *Repository) DeletePlayer(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting player: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrPlayerNotFound
	}
	return nil
}

// PlayerHasEvents reports whether any recorded event involves the player
func (r *Repository) PlayerHasEvents(ctx context.Context, id int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM game_events
			WHERE (payload->>'player_id')::BIGINT = $1
			   OR (payload->>'out')::BIGINT = $1
			   OR (payload->>'in')::BIGINT = $1
		)
	`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("checking player events: %w", err)
	}
	return exists, nil
}

const gameColumns = `id, opponent, homeaway, venue, game_date, starters, status, current_quarter, created_at, updated_at`

func scanGame(row pgx.Row) (*domain.Game, error) {
	var g domain.Game
	err := row.Scan(
		&g.ID,
		&g.Opponent,
		&g.HomeAway,
		&g.Venue,
		&g.Date,
		&g.Starters,
		&g.Status,
		&g.CurrentQuarter,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// CreateGame inserts a game and returns it with its id
func (r *Repository) CreateGame(ctx context.Context, g domain.Game) (*domain.Game, error) {
	query := `
		INSERT INTO games (opponent, homeaway, venue, game_date, starters, status, current_quarter, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := r.pool.QueryRow(ctx, query,
		g.Opponent,
		string(g.HomeAway),
		g.Venue,
		g.Date,
		g.Starters,
		string(g.Status),
		g.CurrentQuarter,
		g.CreatedAt,
		g.UpdatedAt,
	).Scan(&g.ID)
	if err != nil {
		return nil, fmt.Errorf("creating game: %w", err)
	}
	return &g, nil
}

// GetGame retrieves a game by id
func (r *Repository) GetGame(ctx context.Context, id int64) (*domain.Game, error) {
	g, err := scanGame(r.pool.QueryRow(ctx, `SELECT `+gameColumns+` FROM games WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGameNotFound
		}
		return nil, fmt.Errorf("getting game: %w", err)
	}
	return g, nil
}

// ListGames retrieves every game, most recent date first
func (r *Repository) ListGames(ctx context.Context) ([]domain.Game, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+gameColumns+` FROM games ORDER BY game_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing games: %w", err)
	}
	defer rows.Close()

	games := []domain.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning game: %w", err)
		}
		games = append(games, *g)
	}
	return games, rows.Err()
}

// UpdateGame stores the game's status and quarter
func (r *Repository) UpdateGame(ctx context.Context, g domain.Game) error {
	query := `UPDATE games SET status = $2, current_quarter = $3, updated_at = $4 WHERE id = $1`
	result, err := r.pool.Exec(ctx, query, g.ID, string(g.Status), g.CurrentQuarter, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("updating game: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrGameNotFound
	}
	return nil
}

// DeleteGame removes a game; its events cascade
func (r *Repository) DeleteGame(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM games WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting game: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrGameNotFound
	}
	return nil
}

// DeleteFinishedGames removes every finished game and returns their ids
func (r *Repository) DeleteFinishedGames(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `DELETE FROM games WHERE status = $1 RETURNING id`, string(domain.GameStatusFinished))
	if err != nil {
		return nil, fmt.Errorf("deleting finished games: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning game id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ClearGames removes all games and events, keeping the roster
func (r *Repository) ClearGames(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `TRUNCATE game_events, games`); err != nil {
		return fmt.Errorf("clearing games: %w", err)
	}
	return nil
}

// AppendEvent inserts an event and returns it with its id
func (r *Repository) AppendEvent(ctx context.Context, e domain.Event) (*domain.Event, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}

	query := `
		INSERT INTO game_events (game_id, quarter, kind, payload, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err = r.pool.QueryRow(ctx, query, e.GameID, e.Quarter, string(e.Kind), payload, e.Timestamp).Scan(&e.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return nil, domain.ErrGameNotFound
		}
		return nil, fmt.Errorf("recording event: %w", err)
	}
	return &e, nil
}

// ListEvents retrieves a game's events in insertion order
func (r *Repository) ListEvents(ctx context.Context, gameID int64) ([]domain.Event, error) {
	if _, err := r.GetGame(ctx, gameID); err != nil {
		return nil, err
	}
	return r.queryEvents(ctx, `
		SELECT id, game_id, quarter, kind, payload, created_at
		FROM game_events
		WHERE game_id = $1
		ORDER BY id
	`, gameID)
}

func (r *Repository) queryEvents(ctx context.Context, query string, args ...any) ([]domain.Event, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	events := []domain.Event{}
	for rows.Next() {
		var e domain.Event
		var payload []byte
		if err := rows.Scan(&e.ID, &e.GameID, &e.Quarter, &e.Kind, &payload, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		if err := json.Unmarshal(payload, &e.Payload); err != nil {
			return nil, fmt.Errorf("decoding event payload %d: %w", e.ID, err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Export snapshots every record
func (r *Repository) Export(ctx context.Context) (*domain.Backup, error) {
	players, err := r.listPlayers(ctx, `SELECT id, name, number, created_at FROM players ORDER BY id`)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+gameColumns+` FROM games ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("exporting games: %w", err)
	}
	games := []domain.Game{}
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning game: %w", err)
		}
		games = append(games, *g)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("exporting games: %w", err)
	}

	events, err := r.queryEvents(ctx, `
		SELECT id, game_id, quarter, kind, payload, created_at
		FROM game_events
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}

	return &domain.Backup{
		Players: players,
		Games:   games,
		Events:  events,
	}, nil
}

// Restore replaces all data with the backup contents in one transaction,
// keeping ids and advancing the sequences past them
func (r *Repository) Restore(ctx context.Context, b domain.Backup) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning restore: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE game_events, games, players RESTART IDENTITY`); err != nil {
		return fmt.Errorf("truncating tables: %w", err)
	}

	batch := &pgx.Batch{}
	for _, p := range b.Players {
		batch.Queue(`INSERT INTO players (id, name, number, created_at) VALUES ($1, $2, $3, $4)`,
			p.ID, p.Name, p.Number, p.CreatedAt)
	}
	for _, g := range b.Games {
		batch.Queue(`
			INSERT INTO games (`+gameColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, g.ID, g.Opponent, string(g.HomeAway), g.Venue, g.Date, g.Starters,
			string(g.Status), g.CurrentQuarter, g.CreatedAt, g.UpdatedAt)
	}
	for _, e := range b.Events {
		payload, err := json.Marshal(e.Payload)
		if err != nil {
			return fmt.Errorf("marshaling payload: %w", err)
		}
		batch.Queue(`
			INSERT INTO game_events (id, game_id, quarter, kind, payload, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, e.ID, e.GameID, e.Quarter, string(e.Kind), payload, e.Timestamp)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("restoring records: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("restoring records: %w", err)
	}

	for _, table := range []string{"players", "games", "game_events"} {
		query := fmt.Sprintf(
			`SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 0) + 1, false)`,
			table, table)
		if _, err := tx.Exec(ctx, query); err != nil {
			return fmt.Errorf("resetting %s sequence: %w", table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing restore: %w", err)
	}

	r.logger.Info("restored backup",
		"players", len(b.Players),
		"games", len(b.Games),
		"events", len(b.Events),
	)
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
