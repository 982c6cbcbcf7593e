package overlay

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/structdraw/backend/internal/models"
)

func sampleElements() []models.Element {
	return []models.Element{
		{ID: "beam-1", Type: "I-Beam", X: 20, Y: 20, Width: 200, Height: 50},
		{ID: "column-1", Type: "Column", X: 250, Y: 30, Width: 50, Height: 200},
		{ID: "brace-1", Type: "Brace", X: 350, Y: 150, Width: 150, Height: 20},
	}
}

func TestModel_Select(t *testing.T) {
	m := New()
	m.Replace(sampleElements())

	require.NoError(t, m.Select("column-1"))
	assert.Equal(t, "column-1", m.Selected())

	err := m.Select("girder-9")
	if !errors.Is(err, ErrUnknownElement) {
		t.Fatalf("expected ErrUnknownElement, got %v", err)
	}
	assert.Equal(t, "column-1", m.Selected(), "failed select must keep previous selection")

	m.ClearSelection()
	assert.Empty(t, m.Selected())
}

func TestModel_ReplaceSelection(t *testing.T) {
	t.Run("keeps selection present in new set", func(t *testing.T) {
		m := New()
		m.Replace(sampleElements())
		require.NoError(t, m.Select("beam-1"))

		m.Replace(sampleElements()[:1])
		assert.Equal(t, "beam-1", m.Selected())
	})

	t.Run("clears selection absent from new set", func(t *testing.T) {
		m := New()
		m.Replace(sampleElements())
		require.NoError(t, m.Select("brace-1"))

		m.Replace(sampleElements()[:2])
		assert.Empty(t, m.Selected())
		_, ok := m.Get("brace-1")
		assert.False(t, ok)
	})
}

func TestModel_ElementsIsACopy(t *testing.T) {
	in := sampleElements()
	m := New()
	m.Replace(in)
	in[0].X = 9999

	out := m.Elements()
	out[1].Width = -1

	e, ok := m.Get("beam-1")
	require.True(t, ok)
	assert.Equal(t, 20.0, e.X)
	e, _ = m.Get("column-1")
	assert.Equal(t, 50.0, e.Width)
	assert.Equal(t, 3, m.Len())
}
