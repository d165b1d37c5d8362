package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS spots (
	id           INTEGER PRIMARY KEY,
	name         TEXT NOT NULL,
	image_url    TEXT NOT NULL DEFAULT '',
	address      TEXT NOT NULL DEFAULT '',
	ticket_price REAL NOT NULL DEFAULT 0,
	category     TEXT NOT NULL DEFAULT '其他',
	longitude    REAL,
	latitude     REAL,
	description  TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_spots_category ON spots(category);
CREATE INDEX IF NOT EXISTS idx_spots_name ON spots(name);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetSpot(ctx context.Context, id int64) (*Spot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, image_url, address, ticket_price, category, longitude, latitude, description, created_at, updated_at
		 FROM spots WHERE id = ?`,
		id,
	)

	var sp Spot
	var lng, lat sql.NullFloat64
	err := row.Scan(&sp.ID, &sp.Name, &sp.ImageURL, &sp.Address, &sp.Price, &sp.Category, &lng, &lat, &sp.Description, &sp.CreatedAt, &sp.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get spot %d", id)
	}
	if lng.Valid {
		sp.Longitude = &lng.Float64
	}
	if lat.Valid {
		sp.Latitude = &lat.Float64
	}
	return &sp, nil
}

func (s *SQLiteStore) CreateSpot(ctx context.Context, sp *Spot) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO spots (id, name, image_url, address, ticket_price, category, longitude, latitude, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sp.ID, sp.Name, sp.ImageURL, sp.Address, sp.Price, sp.Category, nullFloat(sp.Longitude), nullFloat(sp.Latitude), sp.Description, now, now,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert spot %d", sp.ID)
	}
	sp.CreatedAt = now
	sp.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) UpdateSpot(ctx context.Context, sp *Spot) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE spots SET name = ?, image_url = ?, address = ?, ticket_price = ?, category = ?, longitude = ?, latitude = ?, description = ?, updated_at = ?
		 WHERE id = ?`,
		sp.Name, sp.ImageURL, sp.Address, sp.Price, sp.Category, nullFloat(sp.Longitude), nullFloat(sp.Latitude), sp.Description, now, sp.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update spot %d", sp.ID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: spot not found: %d", sp.ID)
	}
	sp.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) CountSpots(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM spots`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count spots")
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
