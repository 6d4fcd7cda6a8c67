package storage

import (
	"context"
	"testing"
	"time"

	"github.com/solarsim/solarsim/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseDatabase runs the same checks against any Database.
func exerciseDatabase(t *testing.T, db Database, prefix string) {
	ctx := context.Background()
	base := time.Now().Truncate(time.Millisecond).UTC()

	older := types.ExportRecord{
		ID:         prefix + "older",
		LocationID: "mumbai",
		ModelID:    "ensemble",
		RangeDays:  7,
		Format:     types.ExportFormatCSV,
		Filename:   "solar_forecast_mumbai_2024-06-01.csv",
		Rows:       168,
		CreatedAt:  base.Add(-time.Minute),
		Data:       []byte("Time,Actual (kW)\n"),
	}
	newer := types.ExportRecord{
		ID:         prefix + "newer",
		LocationID: "delhi",
		ModelID:    "arima",
		RangeDays:  1,
		Format:     types.ExportFormatXLSX,
		Filename:   "solar_forecast_delhi_2024-06-01.xlsx",
		Rows:       24,
		CreatedAt:  base,
		Data:       []byte{0x50, 0x4b, 0x03, 0x04},
	}

	t.Run("Save And Get", func(t *testing.T) {
		require.NoError(t, db.SaveExport(ctx, older))
		require.NoError(t, db.SaveExport(ctx, newer))

		got, err := db.GetExport(ctx, older.ID)
		require.NoError(t, err)
		assert.Equal(t, older.ID, got.ID)
		assert.Equal(t, older.LocationID, got.LocationID)
		assert.Equal(t, older.Format, got.Format)
		assert.Equal(t, older.Rows, got.Rows)
		assert.True(t, older.CreatedAt.Equal(got.CreatedAt))
		assert.Equal(t, older.Data, got.Data)
	})

	t.Run("Not Found", func(t *testing.T) {
		_, err := db.GetExport(ctx, prefix+"missing")
		assert.ErrorIs(t, err, ErrExportNotFound)
	})

	t.Run("Empty ID", func(t *testing.T) {
		err := db.SaveExport(ctx, types.ExportRecord{})
		assert.ErrorIs(t, err, types.ErrInvalidParameter)
	})

	t.Run("List Newest First Without Data", func(t *testing.T) {
		list, err := db.ListExports(ctx, 0)
		require.NoError(t, err)

		var ids []string
		for _, rec := range list {
			assert.Nil(t, rec.Data)
			if rec.ID == older.ID || rec.ID == newer.ID {
				ids = append(ids, rec.ID)
			}
		}
		assert.Equal(t, []string{newer.ID, older.ID}, ids)
	})

	t.Run("List Limit", func(t *testing.T) {
		list, err := db.ListExports(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}

func TestMemory(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	exerciseDatabase(t, m, "")

	t.Run("Stored Data Is Copied", func(t *testing.T) {
		ctx := context.Background()
		data := []byte("abc")
		require.NoError(t, m.SaveExport(ctx, types.ExportRecord{ID: "copy", Data: data}))
		data[0] = 'z'

		got, err := m.GetExport(ctx, "copy")
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), got.Data)

		got.Data[1] = 'z'
		again, err := m.GetExport(ctx, "copy")
		require.NoError(t, err)
		assert.Equal(t, []byte("abc"), again.Data)
	})
}
