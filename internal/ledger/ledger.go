// Package ledger implements the editable, searchable bill of materials.
package ledger

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/structdraw/backend/internal/models"
)

var (
	// ErrInvalidFieldValue is returned for unparseable or out-of-range edits.
	ErrInvalidFieldValue = errors.New("invalid field value")
	// ErrUnknownRow is returned when a row id is not in the ledger.
	ErrUnknownRow = errors.New("unknown row")
	// ErrNotEditing is returned when a field edit targets a row not under edit.
	ErrNotEditing = errors.New("row is not being edited")
)

// Field names an editable row field.
type Field string

const (
	FieldSize     Field = "size"
	FieldLength   Field = "length"
	FieldQuantity Field = "quantity"
	FieldMaterial Field = "material"
	FieldNotes    Field = "notes"
)

// EditableFields lists the fields exposed by the edit form, in column order.
var EditableFields = []Field{FieldSize, FieldLength, FieldQuantity, FieldMaterial, FieldNotes}

// ParseField validates a field name.
func ParseField(name string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range EditableFields {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: field %q is not editable", ErrInvalidFieldValue, name)
}

// WeightFormula selects how the weight total is computed.
type WeightFormula string

const (
	// WeightFormulaUnit sums unit weights only.
	WeightFormulaUnit WeightFormula = "unit"
	// WeightFormulaExtended sums unit weight times quantity.
	WeightFormulaExtended WeightFormula = "extended"
)

// Ledger is the row store plus the single in-progress edit.
type Ledger struct {
	rows  []models.Row
	index map[string]int

	editing string
	buffer  map[Field]any
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{index: make(map[string]int)}
}

// Replace swaps in a new row set. An edit on a row that no longer exists is dropped.
func (l *Ledger) Replace(rows []models.Row) {
	l.rows = make([]models.Row, len(rows))
	copy(l.rows, rows)

	l.index = make(map[string]int, len(rows))
	for i, r := range l.rows {
		l.index[r.ID] = i
	}

	if _, ok := l.index[l.editing]; !ok {
		l.CancelEdit()
	}
}

// Rows returns a copy of every row.
func (l *Ledger) Rows() []models.Row {
	out := make([]models.Row, len(l.rows))
	copy(out, l.rows)
	return out
}

// Len returns the number of rows.
func (l *Ledger) Len() int { return len(l.rows) }

// Get looks up a row by id.
func (l *Ledger) Get(id string) (models.Row, bool) {
	i, ok := l.index[id]
	if !ok {
		return models.Row{}, false
	}
	return l.rows[i], true
}

// Filter returns the rows whose type, size, material or notes contain query,
// ignoring case. The store is not modified.
func (l *Ledger) Filter(query string) []models.Row {
	return Filter(l.rows, query)
}

// Filter applies the ledger search to an arbitrary row set.
func Filter(rows []models.Row, query string) []models.Row {
	q := strings.ToLower(query)
	out := make([]models.Row, 0, len(rows))
	for _, r := range rows {
		if q == "" || matches(r, q) {
			out = append(out, r)
		}
	}
	return out
}

func matches(r models.Row, q string) bool {
	for _, field := range []string{r.Type, r.Size, r.Material, r.Notes} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

// BeginEdit puts a row into edit mode. Any other row's unsaved edit is discarded.
func (l *Ledger) BeginEdit(rowID string) error {
	if _, ok := l.index[rowID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRow, rowID)
	}
	if l.editing == rowID {
		return nil
	}
	l.editing = rowID
	l.buffer = make(map[Field]any)
	return nil
}

// SetField buffers one field change for the row under edit. Numeric fields are
// parsed here; a parse failure leaves the buffer unchanged.
func (l *Ledger) SetField(rowID string, field Field, value string) error {
	if l.editing == "" || l.editing != rowID {
		return fmt.Errorf("%w: %s", ErrNotEditing, rowID)
	}

	switch field {
	case FieldLength:
		v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return fmt.Errorf("%w: length %q is not a number", ErrInvalidFieldValue, value)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: length %q is not a finite number", ErrInvalidFieldValue, value)
		}
		l.buffer[field] = v
	case FieldQuantity:
		v, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: quantity %q is not an integer", ErrInvalidFieldValue, value)
		}
		l.buffer[field] = v
	case FieldSize, FieldMaterial, FieldNotes:
		l.buffer[field] = value
	default:
		return fmt.Errorf("%w: field %q is not editable", ErrInvalidFieldValue, field)
	}
	return nil
}

// CommitEdit merges the buffered changes into the row and leaves edit mode.
// Non-positive lengths and quantities are rejected; the edit stays open so the
// caller can correct it.
func (l *Ledger) CommitEdit(rowID string) (models.Row, error) {
	if l.editing == "" || l.editing != rowID {
		return models.Row{}, fmt.Errorf("%w: %s", ErrNotEditing, rowID)
	}
	i, ok := l.index[rowID]
	if !ok {
		l.CancelEdit()
		return models.Row{}, fmt.Errorf("%w: %s", ErrUnknownRow, rowID)
	}

	row := l.rows[i]
	for field, v := range l.buffer {
		switch field {
		case FieldSize:
			row.Size = v.(string)
		case FieldMaterial:
			row.Material = v.(string)
		case FieldNotes:
			row.Notes = v.(string)
		case FieldLength:
			length := v.(float64)
			if length <= 0 {
				return models.Row{}, fmt.Errorf("%w: length must be positive, got %v", ErrInvalidFieldValue, length)
			}
			row.Length = length
		case FieldQuantity:
			qty := v.(int)
			if qty <= 0 {
				return models.Row{}, fmt.Errorf("%w: quantity must be positive, got %d", ErrInvalidFieldValue, qty)
			}
			row.Quantity = qty
		}
	}

	l.rows[i] = row
	l.CancelEdit()
	return row, nil
}

// CancelEdit leaves edit mode without saving.
func (l *Ledger) CancelEdit() {
	l.editing = ""
	l.buffer = nil
}

// Editing returns the row under edit and its buffered values, if any.
func (l *Ledger) Editing() (*models.EditState, bool) {
	if l.editing == "" {
		return nil, false
	}
	state := &models.EditState{
		RowID:  l.editing,
		Buffer: make(map[string]string, len(l.buffer)),
	}
	for field, v := range l.buffer {
		switch tv := v.(type) {
		case string:
			state.Buffer[string(field)] = tv
		case float64:
			state.Buffer[string(field)] = strconv.FormatFloat(tv, 'f', -1, 64)
		case int:
			state.Buffer[string(field)] = strconv.Itoa(tv)
		}
	}
	return state, true
}

// TotalWeight sums unit weights over rows. Quantity is not applied.
func TotalWeight(rows []models.Row) float64 {
	var total float64
	for _, r := range rows {
		total += r.Weight
	}
	return total
}

// ExtendedWeight sums unit weight times quantity over rows.
func ExtendedWeight(rows []models.Row) float64 {
	var total float64
	for _, r := range rows {
		total += r.Weight * float64(r.Quantity)
	}
	return total
}

// Total computes the weight total with the chosen formula.
func (f WeightFormula) Total(rows []models.Row) float64 {
	if f == WeightFormulaExtended {
		return ExtendedWeight(rows)
	}
	return TotalWeight(rows)
}

// ParseWeightFormula accepts "unit" or "extended"; anything else is unit.
func ParseWeightFormula(s string) WeightFormula {
	if WeightFormula(strings.ToLower(strings.TrimSpace(s))) == WeightFormulaExtended {
		return WeightFormulaExtended
	}
	return WeightFormulaUnit
}
