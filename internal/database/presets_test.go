package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"expertrait/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.Nop()
	db, err := NewDB(filepath.Join(t.TempDir(), "dashboard.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPresets(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	t.Run("create assigns id and defaults", func(t *testing.T) {
		preset := &models.FilterPreset{
			Role:     models.RoleHandler,
			ViewerID: "h-1",
			Name:     "Today's confirmed",
			Filter:   models.FilterState{StatusFilter: "confirmed", DateFilter: models.DateFilterToday},
		}
		require.NoError(t, db.CreatePreset(ctx, preset))
		assert.NotEmpty(t, preset.ID)
	})

	t.Run("list is scoped to the viewer", func(t *testing.T) {
		other := &models.FilterPreset{
			Role:     models.RoleCustomer,
			ViewerID: "c-1",
			Name:     "Past jobs",
			Filter:   models.FilterState{DateFilter: models.DateFilterPast},
		}
		require.NoError(t, db.CreatePreset(ctx, other))

		presets, err := db.ListPresets(ctx, models.RoleHandler, "h-1")
		require.NoError(t, err)
		require.Len(t, presets, 1)
		assert.Equal(t, "Today's confirmed", presets[0].Name)
		assert.Equal(t, "confirmed", presets[0].Filter.StatusFilter)
		// Empty search term normalizes, not NULLs.
		assert.Equal(t, "", presets[0].Filter.SearchTerm)
	})

	t.Run("delete requires matching viewer", func(t *testing.T) {
		presets, err := db.ListPresets(ctx, models.RoleHandler, "h-1")
		require.NoError(t, err)
		require.Len(t, presets, 1)

		err = db.DeletePreset(ctx, presets[0].ID, models.RoleCustomer, "c-1")
		assert.ErrorIs(t, err, ErrPresetNotFound)

		require.NoError(t, db.DeletePreset(ctx, presets[0].ID, models.RoleHandler, "h-1"))

		remaining, err := db.ListPresets(ctx, models.RoleHandler, "h-1")
		require.NoError(t, err)
		assert.Empty(t, remaining)
	})
}

func TestExportAudit(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	for i, format := range []string{models.FormatCSV, models.FormatXLSX, models.FormatCSV} {
		audit := &models.ExportAudit{
			Role:      models.RoleHandler,
			ViewerID:  "h-1",
			Format:    format,
			RowCount:  i + 1,
			CreatedAt: time.Date(2024, 5, 15, 10, i, 0, 0, time.UTC),
		}
		require.NoError(t, db.RecordExport(ctx, audit))
	}

	audits, err := db.ListExports(ctx, models.RoleHandler, "h-1", 2)
	require.NoError(t, err)
	require.Len(t, audits, 2)
	// Newest first.
	assert.Equal(t, 3, audits[0].RowCount)
	assert.Equal(t, 2, audits[1].RowCount)

	none, err := db.ListExports(ctx, models.RoleCustomer, "h-1", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
