package ledger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structdraw/backend/internal/models"
)

func sampleRows() []models.Row {
	return []models.Row{
		{ID: "bom-1", ElementID: "beam-1", Type: "I-Beam", Size: "W12x26", Length: 240, Quantity: 2, Weight: 520.5, Material: "A992 Steel", Notes: "Main floor beam"},
		{ID: "bom-2", ElementID: "column-1", Type: "Column", Size: "HSS6x6x3/8", Length: 144, Quantity: 4, Weight: 432.8, Material: "A500 Grade B", Notes: "Corner column"},
		{ID: "bom-3", ElementID: "brace-1", Type: "Brace", Size: "L3x3x1/4", Length: 180, Quantity: 8, Weight: 288.5, Material: "A36 Steel", Notes: "Lateral bracing"},
	}
}

func newLedger(t *testing.T) *Ledger {
	t.Helper()
	l := New()
	l.Replace(sampleRows())
	return l
}

func ids(rows []models.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func TestLedger_Filter(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty query matches all", "", []string{"bom-1", "bom-2", "bom-3"}},
		{"type match", "column", []string{"bom-2"}},
		{"case insensitive size", "w12X26", []string{"bom-1"}},
		{"material match", "steel", []string{"bom-1", "bom-3"}},
		{"notes match", "bracing", []string{"bom-3"}},
		{"element id is not searched", "beam-1", []string{}},
		{"no match", "timber", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger(t)
			got := l.Filter(tt.query)
			assert.Equal(t, tt.want, ids(got))
			assert.Equal(t, 3, l.Len(), "filter must not mutate the store")
		})
	}
}

func TestLedger_FilterIdempotent(t *testing.T) {
	l := newLedger(t)
	for _, q := range []string{"", "a", "steel", "/", "x"} {
		once := l.Filter(q)
		twice := Filter(once, q)
		assert.Equal(t, once, twice, "query %q", q)
	}
}

func TestLedger_CommitOnlySize(t *testing.T) {
	l := newLedger(t)
	before, _ := l.Get("bom-2")

	require.NoError(t, l.BeginEdit("bom-2"))
	require.NoError(t, l.SetField("bom-2", FieldSize, "HSS8x8x1/2"))
	after, err := l.CommitEdit("bom-2")
	require.NoError(t, err)

	want := before
	want.Size = "HSS8x8x1/2"
	assert.Equal(t, want, after)
	stored, _ := l.Get("bom-2")
	assert.Equal(t, want, stored)

	_, editing := l.Editing()
	assert.False(t, editing)
}

func TestLedger_SetFieldNumeric(t *testing.T) {
	t.Run("non numeric length rejected and buffer kept", func(t *testing.T) {
		l := newLedger(t)
		require.NoError(t, l.BeginEdit("bom-1"))
		require.NoError(t, l.SetField("bom-1", FieldLength, "300"))

		err := l.SetField("bom-1", FieldLength, "three hundred")
		if !errors.Is(err, ErrInvalidFieldValue) {
			t.Fatalf("expected ErrInvalidFieldValue, got %v", err)
		}

		state, ok := l.Editing()
		require.True(t, ok)
		assert.Equal(t, "300", state.Buffer["length"])
	})

	for _, value := range []string{"NaN", "Inf", "+Inf", "-Inf"} {
		t.Run("non finite length "+value+" rejected", func(t *testing.T) {
			l := newLedger(t)
			require.NoError(t, l.BeginEdit("bom-1"))
			require.NoError(t, l.SetField("bom-1", FieldLength, "300"))

			err := l.SetField("bom-1", FieldLength, value)
			assert.ErrorIs(t, err, ErrInvalidFieldValue)

			state, ok := l.Editing()
			require.True(t, ok)
			assert.Equal(t, "300", state.Buffer["length"])
		})
	}

	t.Run("fractional quantity rejected", func(t *testing.T) {
		l := newLedger(t)
		require.NoError(t, l.BeginEdit("bom-1"))
		err := l.SetField("bom-1", FieldQuantity, "2.5")
		assert.ErrorIs(t, err, ErrInvalidFieldValue)
		state, _ := l.Editing()
		assert.Empty(t, state.Buffer)
	})

	t.Run("numeric values parsed", func(t *testing.T) {
		l := newLedger(t)
		require.NoError(t, l.BeginEdit("bom-3"))
		require.NoError(t, l.SetField("bom-3", FieldLength, " 96.5 "))
		require.NoError(t, l.SetField("bom-3", FieldQuantity, "12"))
		row, err := l.CommitEdit("bom-3")
		require.NoError(t, err)
		assert.Equal(t, 96.5, row.Length)
		assert.Equal(t, 12, row.Quantity)
	})
}

func TestLedger_CommitRejectsNonPositive(t *testing.T) {
	for _, tc := range []struct {
		field Field
		value string
	}{
		{FieldLength, "0"},
		{FieldLength, "-12"},
		{FieldQuantity, "0"},
		{FieldQuantity, "-1"},
	} {
		t.Run(string(tc.field)+"="+tc.value, func(t *testing.T) {
			l := newLedger(t)
			before, _ := l.Get("bom-1")
			require.NoError(t, l.BeginEdit("bom-1"))
			require.NoError(t, l.SetField("bom-1", tc.field, tc.value))

			_, err := l.CommitEdit("bom-1")
			assert.ErrorIs(t, err, ErrInvalidFieldValue)

			stored, _ := l.Get("bom-1")
			assert.Equal(t, before, stored)
			state, ok := l.Editing()
			require.True(t, ok, "edit stays open for correction")
			assert.Equal(t, tc.value, state.Buffer[string(tc.field)])
		})
	}
}

func TestLedger_SwitchingRowsDiscardsEdit(t *testing.T) {
	l := newLedger(t)
	before, _ := l.Get("bom-1")

	require.NoError(t, l.BeginEdit("bom-1"))
	require.NoError(t, l.SetField("bom-1", FieldNotes, "unsaved"))
	require.NoError(t, l.BeginEdit("bom-2"))

	state, ok := l.Editing()
	require.True(t, ok)
	assert.Equal(t, "bom-2", state.RowID)
	assert.Empty(t, state.Buffer)

	stored, _ := l.Get("bom-1")
	assert.Equal(t, before, stored)

	assert.ErrorIs(t, l.SetField("bom-1", FieldNotes, "late"), ErrNotEditing)
	_, err := l.CommitEdit("bom-1")
	assert.ErrorIs(t, err, ErrNotEditing)
}

func TestLedger_EditErrors(t *testing.T) {
	l := newLedger(t)
	assert.ErrorIs(t, l.BeginEdit("bom-404"), ErrUnknownRow)
	assert.ErrorIs(t, l.SetField("bom-1", FieldSize, "x"), ErrNotEditing)

	require.NoError(t, l.BeginEdit("bom-1"))
	assert.ErrorIs(t, l.SetField("bom-1", Field("weight"), "1"), ErrInvalidFieldValue)

	_, err := ParseField("Type")
	assert.ErrorIs(t, err, ErrInvalidFieldValue)
	f, err := ParseField(" Quantity ")
	require.NoError(t, err)
	assert.Equal(t, FieldQuantity, f)
}

func TestLedger_ReplaceDropsStaleEdit(t *testing.T) {
	l := newLedger(t)
	require.NoError(t, l.BeginEdit("bom-3"))
	l.Replace(sampleRows()[:2])
	_, ok := l.Editing()
	assert.False(t, ok)

	require.NoError(t, l.BeginEdit("bom-1"))
	l.Replace(sampleRows())
	state, ok := l.Editing()
	require.True(t, ok)
	assert.Equal(t, "bom-1", state.RowID)
}

func TestTotalWeight(t *testing.T) {
	row := models.Row{ID: "bom-1", Length: 240, Quantity: 2, Weight: 520.5}

	assert.Equal(t, 520.5, TotalWeight([]models.Row{row}))
	assert.Equal(t, 1041.0, ExtendedWeight([]models.Row{row}))
	assert.Equal(t, 520.5, WeightFormulaUnit.Total([]models.Row{row}))
	assert.Equal(t, 1041.0, WeightFormulaExtended.Total([]models.Row{row}))
	assert.Equal(t, 0.0, TotalWeight(nil))

	assert.InDelta(t, 1241.8, TotalWeight(sampleRows()), 1e-9)
	assert.Equal(t, WeightFormulaExtended, ParseWeightFormula("Extended"))
	assert.Equal(t, WeightFormulaUnit, ParseWeightFormula("bogus"))
}
