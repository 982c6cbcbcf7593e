// Package overlay tracks the detected elements of a drawing and the current selection.
package overlay

import (
	"errors"
	"fmt"

	"github.com/structdraw/backend/internal/models"
)

// ErrUnknownElement is returned when an element id is not in the current set.
var ErrUnknownElement = errors.New("unknown element")

// Model holds an immutable element set and at most one selected id.
type Model struct {
	elements []models.Element
	index    map[string]int
	selected string
}

// New creates an empty model.
func New() *Model {
	return &Model{index: make(map[string]int)}
}

// Replace swaps in a new element set. The selection survives only when the
// selected id is still present.
func (m *Model) Replace(elements []models.Element) {
	m.elements = make([]models.Element, len(elements))
	copy(m.elements, elements)

	m.index = make(map[string]int, len(elements))
	for i, e := range m.elements {
		m.index[e.ID] = i
	}

	if _, ok := m.index[m.selected]; !ok {
		m.selected = ""
	}
}

// Elements returns a copy of the element set in draw order.
func (m *Model) Elements() []models.Element {
	out := make([]models.Element, len(m.elements))
	copy(out, m.elements)
	return out
}

// Len returns the number of elements.
func (m *Model) Len() int { return len(m.elements) }

// Get looks up an element by id.
func (m *Model) Get(id string) (models.Element, bool) {
	i, ok := m.index[id]
	if !ok {
		return models.Element{}, false
	}
	return m.elements[i], true
}

// Select marks an element as selected.
func (m *Model) Select(id string) error {
	if _, ok := m.index[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownElement, id)
	}
	m.selected = id
	return nil
}

// ClearSelection drops the current selection.
func (m *Model) ClearSelection() {
	m.selected = ""
}

// Selected returns the selected id, or "" when nothing is selected.
func (m *Model) Selected() string { return m.selected }
