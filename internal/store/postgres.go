package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies it.
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres connects a PostgresStore to the given database URL.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool (used by tests).
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS spots (
	id           BIGINT PRIMARY KEY,
	name         TEXT NOT NULL,
	image_url    TEXT NOT NULL DEFAULT '',
	address      TEXT NOT NULL DEFAULT '',
	ticket_price DOUBLE PRECISION NOT NULL DEFAULT 0,
	category     TEXT NOT NULL DEFAULT '其他',
	longitude    DOUBLE PRECISION,
	latitude     DOUBLE PRECISION,
	description  TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_spots_category ON spots(category);
CREATE INDEX IF NOT EXISTS idx_spots_name ON spots(name);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) GetSpot(ctx context.Context, id int64) (*Spot, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, image_url, address, ticket_price, category, longitude, latitude, description, created_at, updated_at
		 FROM spots WHERE id = $1`,
		id,
	)

	var sp Spot
	err := row.Scan(&sp.ID, &sp.Name, &sp.ImageURL, &sp.Address, &sp.Price, &sp.Category, &sp.Longitude, &sp.Latitude, &sp.Description, &sp.CreatedAt, &sp.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get spot %d", id)
	}
	return &sp, nil
}

func (s *PostgresStore) CreateSpot(ctx context.Context, sp *Spot) error {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO spots (id, name, image_url, address, ticket_price, category, longitude, latitude, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		sp.ID, sp.Name, sp.ImageURL, sp.Address, sp.Price, sp.Category, sp.Longitude, sp.Latitude, sp.Description, now, now,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert spot %d", sp.ID)
	}
	sp.CreatedAt = now
	sp.UpdatedAt = now
	return nil
}

func (s *PostgresStore) UpdateSpot(ctx context.Context, sp *Spot) error {
	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE spots SET name = $1, image_url = $2, address = $3, ticket_price = $4, category = $5, longitude = $6, latitude = $7, description = $8, updated_at = $9
		 WHERE id = $10`,
		sp.Name, sp.ImageURL, sp.Address, sp.Price, sp.Category, sp.Longitude, sp.Latitude, sp.Description, now, sp.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update spot %d", sp.ID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: spot not found: %d", sp.ID)
	}
	sp.UpdatedAt = now
	return nil
}

func (s *PostgresStore) CountSpots(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM spots`).Scan(&n)
	return n, eris.Wrap(err, "postgres: count spots")
}
