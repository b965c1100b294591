package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps recommendation history in PostgreSQL. Each Record
// runs in a transaction so the append, the window prune and the counter
// increment are atomic per user.
type PostgresStore struct {
	pool   *pgxpool.Pool
	window int
}

func NewPostgresStore(ctx context.Context, databaseURL string, window int) (*PostgresStore, error) {
	if window <= 0 {
		window = DefaultWindow
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initHistorySchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool, window: window}, nil
}

func initHistorySchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS recommendation_log (
			seq BIGSERIAL PRIMARY KEY,
			id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			venue_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_recommendation_log_user_seq ON recommendation_log (user_id, seq);`,
		`CREATE TABLE IF NOT EXISTS recommendation_totals (
			user_id TEXT PRIMARY KEY,
			total BIGINT NOT NULL DEFAULT 0
		);`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init history schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Record(ctx context.Context, userID, venueID string) (int, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin record: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO recommendation_log (id, user_id, venue_id) VALUES ($1, $2, $3)`,
		uuid.NewString(), userID, venueID,
	)
	if err != nil {
		return 0, fmt.Errorf("append recommendation: %w", err)
	}

	_, err = tx.Exec(ctx,
		`DELETE FROM recommendation_log
		 WHERE user_id = $1 AND seq NOT IN (
			SELECT seq FROM recommendation_log WHERE user_id = $1 ORDER BY seq DESC LIMIT $2
		 )`,
		userID, s.window,
	)
	if err != nil {
		return 0, fmt.Errorf("prune window: %w", err)
	}

	var total int
	err = tx.QueryRow(ctx,
		`INSERT INTO recommendation_totals (user_id, total) VALUES ($1, 1)
		 ON CONFLICT (user_id) DO UPDATE SET total = recommendation_totals.total + 1
		 RETURNING total`,
		userID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("increment total: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit record: %w", err)
	}
	return total, nil
}

func (s *PostgresStore) Recent(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT venue_id FROM recommendation_log WHERE user_id = $1 ORDER BY seq ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan recent row: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent rows: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) Count(ctx context.Context, userID string) (int, error) {
	var total int
	err := s.pool.QueryRow(ctx,
		`SELECT total FROM recommendation_totals WHERE user_id = $1`, userID,
	).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query total: %w", err)
	}
	return total, nil
}

func (s *PostgresStore) Clear(ctx context.Context, userID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM recommendation_log WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear log: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM recommendation_totals WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear total: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
