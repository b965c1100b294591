package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"whatevereat/internal/geo"
)

// PostgresStore keeps sessions in PostgreSQL so multiple instances can
// share them. The expiry contract is identical to the in-memory store:
// rows past expires_at are treated as absent, not proactively deleted.
type PostgresStore struct {
	pool *pgxpool.Pool
	ttl  time.Duration
	now  func() time.Time
}

func NewPostgresStore(ctx context.Context, databaseURL string, ttl time.Duration) (*PostgresStore, error) {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initSessionSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool, ttl: ttl, now: time.Now}, nil
}

func initSessionSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmt := `CREATE TABLE IF NOT EXISTS user_sessions (
		user_id TEXT PRIMARY KEY,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		label TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	);`
	if _, err := pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("init session schema: %w", err)
	}
	return nil
}

// SetNowFunc replaces the clock used for expiry comparisons.
func (s *PostgresStore) SetNowFunc(now func() time.Time) { s.now = now }

func (s *PostgresStore) Set(ctx context.Context, userID string, coord geo.Coordinate, label, address string) (*UserSession, error) {
	now := s.now().UTC()
	sess := &UserSession{
		UserID:     userID,
		Coordinate: coord,
		Label:      label,
		Address:    address,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_sessions (user_id, latitude, longitude, label, address, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id) DO UPDATE SET
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			label = EXCLUDED.label,
			address = EXCLUDED.address,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at`,
		sess.UserID, coord.Latitude, coord.Longitude, sess.Label, sess.Address, sess.CreatedAt, sess.ExpiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("set session: %w", err)
	}
	return sess, nil
}

func (s *PostgresStore) Get(ctx context.Context, userID string) (*UserSession, error) {
	var sess UserSession
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, latitude, longitude, label, address, created_at, expires_at
		 FROM user_sessions WHERE user_id = $1 AND expires_at > $2`,
		userID, s.now().UTC(),
	).Scan(&sess.UserID, &sess.Coordinate.Latitude, &sess.Coordinate.Longitude,
		&sess.Label, &sess.Address, &sess.CreatedAt, &sess.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &sess, nil
}

func (s *PostgresStore) Clear(ctx context.Context, userID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM user_sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *PostgresStore) ActiveCount(ctx context.Context) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM user_sessions WHERE expires_at > $1`, s.now().UTC(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count sessions: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
