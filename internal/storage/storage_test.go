package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0x0BSoD/ansaNewsBot/internal/model"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := Open(context.Background(), "sqlite://"+filepath.Join(t.TempDir(), "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return db
}

func seed(t *testing.T, db *sqlx.DB) *CategoryStorage {
	t.Helper()

	categories := NewCategoryStorage(db)
	require.NoError(t, categories.Add(context.Background(), []model.Category{
		{ID: 1, Name: "Abruzzo", FeedURL: "https://example.com/abruzzo.xml", Watermark: 1000},
		{ID: 2, Name: "Basilicata", FeedURL: "https://example.com/basilicata.xml", Watermark: 1000},
		{ID: 7, Name: "Lazio", FeedURL: "https://example.com/lazio.xml", Watermark: 1000},
	}))

	return categories
}

func TestParseDSN(t *testing.T) {
	tests := []struct {
		dsn        string
		wantDriver string
		wantErr    bool
	}{
		{dsn: "postgres://u:p@localhost:5432/ansa?sslmode=disable", wantDriver: "postgres"},
		{dsn: "postgresql://localhost/ansa", wantDriver: "postgres"},
		{dsn: "sqlite://bot.db", wantDriver: "sqlite"},
		{dsn: "sqlite://", wantErr: true},
		{dsn: "mysql://localhost/ansa", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			driver, source, err := ParseDSN(tt.dsn)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDriver, driver)
			assert.NotEmpty(t, source)
		})
	}

	_, source, err := ParseDSN("sqlite://bot.db")
	require.NoError(t, err)
	assert.Contains(t, source, "foreign_keys(1)")
}

func TestOpenIsIdempotent(t *testing.T) {
	dsn := "sqlite://" + filepath.Join(t.TempDir(), "bot.db")

	first, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(context.Background(), dsn)
	require.NoError(t, err)
	defer second.Close()

	n, err := NewCategoryStorage(second).Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWatermarkIsMonotonic(t *testing.T) {
	ctx := context.Background()
	categories := seed(t, newTestDB(t))

	require.NoError(t, categories.SetWatermark(ctx, 7, 1200))
	require.NoError(t, categories.SetWatermark(ctx, 7, 1100))

	lazio, err := categories.CategoryByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1200), lazio.Watermark)

	require.NoError(t, categories.RaiseWatermarks(ctx, 1150))

	all, err := categories.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(1150), all[0].Watermark)
	assert.Equal(t, int64(1150), all[1].Watermark)
	assert.Equal(t, int64(1200), all[2].Watermark)
}

func TestCategoryByIDNotFound(t *testing.T) {
	categories := seed(t, newTestDB(t))

	_, err := categories.CategoryByID(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDestinationUpsert(t *testing.T) {
	ctx := context.Background()
	destinations := NewDestinationStorage(newTestDB(t))

	_, renamed, err := destinations.Upsert(ctx, model.Destination{ID: -100, Name: "news"})
	require.NoError(t, err)
	assert.False(t, renamed)

	_, renamed, err = destinations.Upsert(ctx, model.Destination{ID: -100, Name: "news"})
	require.NoError(t, err)
	assert.False(t, renamed)

	previous, renamed, err := destinations.Upsert(ctx, model.Destination{ID: -100, Name: "breaking"})
	require.NoError(t, err)
	assert.True(t, renamed)
	assert.Equal(t, "news", previous)

	ids, err := destinations.IDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{-100}, ids)
}

func TestEnableDisable(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seed(t, db)
	destinations := NewDestinationStorage(db)

	_, _, err := destinations.Upsert(ctx, model.Destination{ID: 42, Name: "mario"})
	require.NoError(t, err)

	enabled, err := destinations.Enable(ctx, 42, []int64{7, 1, 99})
	require.NoError(t, err)
	require.Len(t, enabled, 2)
	assert.Equal(t, "Abruzzo", enabled[0].Name)
	assert.Equal(t, "Lazio", enabled[1].Name)

	_, err = destinations.Enable(ctx, 42, []int64{7})
	require.NoError(t, err)

	subscribers, err := destinations.Subscribers(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, []int64{42}, subscribers)

	disabled, err := destinations.Disable(ctx, 42, []int64{7})
	require.NoError(t, err)
	require.Len(t, disabled, 1)

	active, err := destinations.EnabledCategories(ctx, 42)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, int64(1), active[0].ID)
}

func TestEnableAllWithoutPriorRows(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seed(t, db)
	destinations := NewDestinationStorage(db)

	_, _, err := destinations.Upsert(ctx, model.Destination{ID: 42, Name: "mario"})
	require.NoError(t, err)

	require.NoError(t, destinations.EnableAll(ctx, 42))
	require.NoError(t, destinations.EnableAll(ctx, 42))

	active, err := destinations.EnabledCategories(ctx, 42)
	require.NoError(t, err)
	assert.Len(t, active, 3)

	require.NoError(t, destinations.DisableAll(ctx, 42))
	active, err = destinations.EnabledCategories(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestDeleteDestinationCascades(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seed(t, db)
	destinations := NewDestinationStorage(db)
	deliveries := NewDeliveryStorage(db)

	_, _, err := destinations.Upsert(ctx, model.Destination{ID: 42, Name: "mario"})
	require.NoError(t, err)
	require.NoError(t, destinations.EnableAll(ctx, 42))
	require.NoError(t, deliveries.SetLastTitle(ctx, 42, 7, "Roma, incendio"))

	require.NoError(t, destinations.Delete(ctx, 42))

	subscribers, err := destinations.Subscribers(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, subscribers)

	title, err := deliveries.LastTitle(ctx, 42, 7)
	require.NoError(t, err)
	assert.Empty(t, title)
}

func TestLastTitle(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	seed(t, db)
	_, _, err := NewDestinationStorage(db).Upsert(ctx, model.Destination{ID: 42, Name: "mario"})
	require.NoError(t, err)
	deliveries := NewDeliveryStorage(db)

	title, err := deliveries.LastTitle(ctx, 42, 7)
	require.NoError(t, err)
	assert.Empty(t, title)

	require.NoError(t, deliveries.SetLastTitle(ctx, 42, 7, "first"))
	require.NoError(t, deliveries.SetLastTitle(ctx, 42, 7, "second"))

	title, err = deliveries.LastTitle(ctx, 42, 7)
	require.NoError(t, err)
	assert.Equal(t, "second", title)
}
