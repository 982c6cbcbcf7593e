// Package export turns bill-of-materials rows into downloadable documents.
package export

import "github.com/structdraw/backend/internal/models"

// Column headers of exported records.
const (
	ColumnType        = "Type"
	ColumnSize        = "Size"
	ColumnLength      = "Length (in)"
	ColumnQuantity    = "Quantity"
	ColumnWeight      = "Weight (lb)"
	ColumnTotalWeight = "Total Weight (lb)"
	ColumnMaterial    = "Material"
	ColumnNotes       = "Notes"
)

// Field is one named value of a record.
type Field struct {
	Name  string `json:"name" msgpack:"name"`
	Value any    `json:"value" msgpack:"value"`
}

// Record is a flat, ordered export row.
type Record []Field

// Get returns the value of a named field.
func (r Record) Get(name string) (any, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// Map returns the record keyed by column name.
func (r Record) Map() map[string]any {
	m := make(map[string]any, len(r))
	for _, f := range r {
		m[f.Name] = f.Value
	}
	return m
}

// Columns lists the record columns selected by cfg, in output order.
func Columns(cfg models.ExportConfig) []string {
	cols := []string{ColumnType, ColumnSize}
	if cfg.IncludeDimensions {
		cols = append(cols, ColumnLength, ColumnQuantity)
	}
	if cfg.IncludeWeights {
		cols = append(cols, ColumnWeight, ColumnTotalWeight)
	}
	if cfg.IncludeMaterials {
		cols = append(cols, ColumnMaterial)
	}
	if cfg.IncludeNotes {
		cols = append(cols, ColumnNotes)
	}
	return cols
}

// BuildRecords reshapes rows into flat records gated by the include flags.
// Type and size are always present.
func BuildRecords(rows []models.Row, cfg models.ExportConfig) []Record {
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec := Record{
			{Name: ColumnType, Value: row.Type},
			{Name: ColumnSize, Value: row.Size},
		}
		if cfg.IncludeDimensions {
			rec = append(rec,
				Field{Name: ColumnLength, Value: row.Length},
				Field{Name: ColumnQuantity, Value: row.Quantity},
			)
		}
		if cfg.IncludeWeights {
			rec = append(rec,
				Field{Name: ColumnWeight, Value: row.Weight},
				Field{Name: ColumnTotalWeight, Value: row.Weight * float64(row.Quantity)},
			)
		}
		if cfg.IncludeMaterials {
			rec = append(rec, Field{Name: ColumnMaterial, Value: row.Material})
		}
		if cfg.IncludeNotes {
			rec = append(rec, Field{Name: ColumnNotes, Value: row.Notes})
		}
		records = append(records, rec)
	}
	return records
}
