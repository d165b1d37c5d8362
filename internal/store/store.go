// Package store persists scenic spots behind an upsert-by-identifier
// contract. Identifiers are caller-supplied (the source API's POI id),
// never store-generated.
package store

import (
	"context"
	"time"
)

// Spot is a persisted scenic spot row. CreatedAt/UpdatedAt are maintained
// by the store implementations.
type Spot struct {
	ID          int64
	Name        string
	ImageURL    string
	Address     string
	Price       float64
	Category    string
	Longitude   *float64
	Latitude    *float64
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Store is the persistence interface used by the ingestion pipeline.
type Store interface {
	// GetSpot returns the spot with the given identifier, or (nil, nil)
	// when none exists.
	GetSpot(ctx context.Context, id int64) (*Spot, error)
	CreateSpot(ctx context.Context, s *Spot) error
	UpdateSpot(ctx context.Context, s *Spot) error
	CountSpots(ctx context.Context) (int, error)

	Migrate(ctx context.Context) error
	Close() error
}
