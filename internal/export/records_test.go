package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structdraw/backend/internal/models"
)

func sampleRows() []models.Row {
	return []models.Row{
		{ID: "bom-1", ElementID: "beam-1", Type: "I-Beam", Size: "W12x26", Length: 240, Quantity: 2, Weight: 520.5, Material: "A992 Steel", Notes: "Main floor beam"},
		{ID: "bom-2", ElementID: "column-1", Type: "Column", Size: "HSS6x6x3/8", Length: 144, Quantity: 4, Weight: 432.8, Material: "A500 Grade B", Notes: "Corner column"},
	}
}

func allOff() models.ExportConfig {
	return models.ExportConfig{FileName: "bom", Format: models.ExportFormatExcel}
}

func TestBuildRecords_AllFlags(t *testing.T) {
	records := BuildRecords(sampleRows(), models.DefaultExportConfig())
	require.Len(t, records, 2)

	names := make([]string, 0, len(records[0]))
	for _, f := range records[0] {
		names = append(names, f.Name)
	}
	assert.Equal(t, Columns(models.DefaultExportConfig()), names)
	assert.Equal(t, []string{
		ColumnType, ColumnSize, ColumnLength, ColumnQuantity,
		ColumnWeight, ColumnTotalWeight, ColumnMaterial, ColumnNotes,
	}, names)

	total, ok := records[0].Get(ColumnTotalWeight)
	require.True(t, ok)
	assert.Equal(t, 1041.0, total)
	assert.Equal(t, "Corner column", records[1].Map()[ColumnNotes])
}

func TestBuildRecords_Flags(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.ExportConfig)
		present []string
		absent  []string
	}{
		{
			name:    "only mandatory columns",
			mutate:  func(*models.ExportConfig) {},
			present: []string{ColumnType, ColumnSize},
			absent:  []string{ColumnLength, ColumnQuantity, ColumnWeight, ColumnTotalWeight, ColumnMaterial, ColumnNotes},
		},
		{
			name:    "dimensions",
			mutate:  func(c *models.ExportConfig) { c.IncludeDimensions = true },
			present: []string{ColumnLength, ColumnQuantity},
			absent:  []string{ColumnWeight, ColumnTotalWeight},
		},
		{
			name:    "weights",
			mutate:  func(c *models.ExportConfig) { c.IncludeWeights = true },
			present: []string{ColumnWeight, ColumnTotalWeight},
			absent:  []string{ColumnLength, ColumnMaterial},
		},
		{
			name: "everything but weights",
			mutate: func(c *models.ExportConfig) {
				c.IncludeDimensions, c.IncludeMaterials, c.IncludeNotes, c.IncludeImages = true, true, true, true
			},
			present: []string{ColumnLength, ColumnMaterial, ColumnNotes},
			absent:  []string{ColumnWeight, ColumnTotalWeight},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := allOff()
			tt.mutate(&cfg)
			for _, rec := range BuildRecords(sampleRows(), cfg) {
				for _, col := range tt.present {
					_, ok := rec.Get(col)
					assert.True(t, ok, "expected column %s", col)
				}
				for _, col := range tt.absent {
					_, ok := rec.Get(col)
					assert.False(t, ok, "unexpected column %s", col)
				}
			}
		})
	}
}

func TestBuildRecords_Empty(t *testing.T) {
	assert.Empty(t, BuildRecords(nil, models.DefaultExportConfig()))
}
