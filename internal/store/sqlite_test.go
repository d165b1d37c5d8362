package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "spots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func floatPtr(f float64) *float64 { return &f }

func TestSQLiteStore_CreateAndGet(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	sp := &Spot{
		ID:          75628,
		Name:        "宽窄巷子",
		ImageURL:    "https://img.example.com/75628.jpg",
		Address:     "青羊区长顺街附近",
		Price:       0,
		Category:    "历史文化",
		Longitude:   floatPtr(104.0617),
		Latitude:    floatPtr(30.6636),
		Description: "老成都的院落 | 历史街区",
	}
	require.NoError(t, s.CreateSpot(ctx, sp))
	assert.False(t, sp.CreatedAt.IsZero())

	got, err := s.GetSpot(ctx, 75628)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "宽窄巷子", got.Name)
	assert.Equal(t, "历史文化", got.Category)
	require.NotNil(t, got.Longitude)
	assert.InDelta(t, 104.0617, *got.Longitude, 1e-9)

	n, err := s.CountSpots(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	s := newTestSQLite(t)

	got, err := s.GetSpot(context.Background(), 999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStore_NullCoordinates(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSpot(ctx, &Spot{ID: 1, Name: "无坐标景点", Category: "其他"}))

	got, err := s.GetSpot(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.Longitude)
	assert.Nil(t, got.Latitude)
}

func TestSQLiteStore_Update(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSpot(ctx, &Spot{ID: 2, Name: "都江堰", Price: 80, Category: "历史文化"}))

	updated := &Spot{
		ID:        2,
		Name:      "都江堰景区",
		Price:     90,
		Category:  "历史文化",
		Longitude: floatPtr(103.6055),
		Latitude:  floatPtr(31.0088),
	}
	require.NoError(t, s.UpdateSpot(ctx, updated))

	got, err := s.GetSpot(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "都江堰景区", got.Name)
	assert.Equal(t, 90.0, got.Price)
	require.NotNil(t, got.Latitude)
	assert.InDelta(t, 31.0088, *got.Latitude, 1e-9)
}

func TestSQLiteStore_UpdateMissing(t *testing.T) {
	s := newTestSQLite(t)

	err := s.UpdateSpot(context.Background(), &Spot{ID: 404, Name: "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteStore_DuplicateCreate(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.CreateSpot(ctx, &Spot{ID: 3, Name: "青城山"}))
	assert.Error(t, s.CreateSpot(ctx, &Spot{ID: 3, Name: "青城山"}))
}
