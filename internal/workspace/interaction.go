package workspace

import (
	"fmt"

	"github.com/structdraw/backend/internal/ledger"
	"github.com/structdraw/backend/internal/models"
)

// Pointer phases accepted by Pointer.
const (
	PointerDown = "down"
	PointerMove = "move"
	PointerUp   = "up"
)

// PointerResult reports what a pointer event did.
type PointerResult struct {
	SelectedID string               `json:"selectedId,omitempty"`
	Dragging   bool                 `json:"dragging"`
	Viewport   models.ViewportState `json:"viewport"`
}

// ProjectedElement is an element in screen coordinates.
type ProjectedElement struct {
	ID       string      `json:"id"`
	Type     string      `json:"type"`
	Color    string      `json:"color"`
	Rect     models.Rect `json:"rect"`
	Selected bool        `json:"selected"`
}

// Projection is the viewport state plus the overlay as drawn on screen.
type Projection struct {
	Viewport models.ViewportState `json:"viewport"`
	Elements []ProjectedElement   `json:"elements"`
}

// LedgerView is a filtered listing of the ledger.
type LedgerView struct {
	Query         string               `json:"query"`
	Rows          []models.Row         `json:"rows"`
	Shown         int                  `json:"shown"`
	Total         int                  `json:"total"`
	TotalWeight   float64              `json:"totalWeight"`
	WeightFormula ledger.WeightFormula `json:"weightFormula"`
	Edit          *models.EditState    `json:"edit,omitempty"`
}

// ZoomIn steps the zoom up.
func (w *Workspace) ZoomIn() models.ViewportState {
	return w.updateView(func() { w.view.ZoomIn() })
}

// ZoomOut steps the zoom down.
func (w *Workspace) ZoomOut() models.ViewportState {
	return w.updateView(func() { w.view.ZoomOut() })
}

// SetZoom sets the zoom factor, clamped to the configured range.
func (w *Workspace) SetZoom(v float64) models.ViewportState {
	return w.updateView(func() { w.view.SetZoom(v) })
}

// SetZoomPercent sets the zoom from a slider value in percent.
func (w *Workspace) SetZoomPercent(percent float64) models.ViewportState {
	return w.SetZoom(percent / 100)
}

// Wheel applies a wheel gesture. suppress reports whether the client must
// cancel the native scroll.
func (w *Workspace) Wheel(deltaY float64, modifierHeld bool) (models.ViewportState, bool) {
	var suppress bool
	state := w.updateView(func() { _, suppress = w.view.Wheel(deltaY, modifierHeld) })
	return state, suppress
}

// ToggleOverlay flips overlay visibility.
func (w *Workspace) ToggleOverlay() models.ViewportState {
	return w.updateView(func() { w.view.ToggleOverlay() })
}

// Viewport returns the viewport state.
func (w *Workspace) Viewport() models.ViewportState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.view.State()
}

func (w *Workspace) updateView(fn func()) models.ViewportState {
	w.mu.Lock()
	defer w.mu.Unlock()

	before := w.view.State()
	fn()
	after := w.view.State()
	if after != before {
		w.publish(EventViewportChanged, after)
	}
	return after
}

// Pointer routes a pointer event. On "down" a visible element under the
// pointer (given explicitly or found by hit test) is selected and no drag
// starts; otherwise the primary button starts a pan.
func (w *Workspace) Pointer(phase string, p models.Point, button int, elementID string) (PointerResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	var res PointerResult
	switch phase {
	case PointerDown:
		target := ""
		if w.view.OverlayVisible() {
			if elementID != "" {
				target = elementID
			} else if id, ok := w.view.HitTest(w.overlay.Elements(), p); ok {
				target = id
			}
		}
		if target != "" {
			if err := w.selectLocked(target); err != nil {
				return res, err
			}
			res.SelectedID = target
			break
		}
		w.view.BeginDrag(p, button)
	case PointerMove:
		if w.view.Dragging() {
			w.view.DragTo(p)
		}
	case PointerUp:
		if w.view.Dragging() {
			w.view.EndDrag()
			w.publish(EventViewportChanged, w.view.State())
		}
	default:
		return res, fmt.Errorf("unknown pointer phase %q", phase)
	}

	res.Dragging = w.view.Dragging()
	res.Viewport = w.view.State()
	return res, nil
}

// Project returns the overlay in screen coordinates. A hidden overlay
// projects no elements.
func (w *Workspace) Project() Projection {
	w.mu.Lock()
	defer w.mu.Unlock()

	proj := Projection{Viewport: w.view.State(), Elements: []ProjectedElement{}}
	if !w.view.OverlayVisible() {
		return proj
	}
	selected := w.overlay.Selected()
	for _, e := range w.overlay.Elements() {
		proj.Elements = append(proj.Elements, ProjectedElement{
			ID:       e.ID,
			Type:     e.Type,
			Color:    e.Color,
			Rect:     w.view.Project(e),
			Selected: e.ID == selected,
		})
	}
	return proj
}

// Elements returns the detected elements and the selected id.
func (w *Workspace) Elements() ([]models.Element, string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.overlay.Elements(), w.overlay.Selected()
}

// SelectElement selects an element by id.
func (w *Workspace) SelectElement(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selectLocked(id)
}

// ClearSelection drops the selection.
func (w *Workspace) ClearSelection() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.overlay.Selected() == "" {
		return
	}
	w.overlay.ClearSelection()
	w.publish(EventSelectionChanged, selectionPayload{})
}

func (w *Workspace) selectLocked(id string) error {
	prev := w.overlay.Selected()
	if err := w.overlay.Select(id); err != nil {
		return err
	}
	if prev != id {
		w.publish(EventSelectionChanged, selectionPayload{SelectedID: id})
	}
	return nil
}

// Ledger returns the rows matching query with counts and the weight total
// of the shown rows.
func (w *Workspace) Ledger(query string) LedgerView {
	w.mu.Lock()
	defer w.mu.Unlock()

	rows := w.ledger.Filter(query)
	view := LedgerView{
		Query:         query,
		Rows:          rows,
		Shown:         len(rows),
		Total:         w.ledger.Len(),
		TotalWeight:   w.formula.Total(rows),
		WeightFormula: w.formula,
	}
	if edit, ok := w.ledger.Editing(); ok {
		view.Edit = edit
	}
	return view
}

// Rows returns the full, unfiltered ledger.
func (w *Workspace) Rows() []models.Row {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ledger.Rows()
}

// BeginEdit puts a row into edit mode.
func (w *Workspace) BeginEdit(rowID string) (*models.EditState, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.ledger.BeginEdit(rowID); err != nil {
		return nil, err
	}
	edit, _ := w.ledger.Editing()
	return edit, nil
}

// SetField buffers one field edit.
func (w *Workspace) SetField(rowID, field, value string) (*models.EditState, error) {
	f, err := ledger.ParseField(field)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.ledger.SetField(rowID, f, value); err != nil {
		return nil, err
	}
	edit, _ := w.ledger.Editing()
	return edit, nil
}

// CommitEdit saves the buffered edit.
func (w *Workspace) CommitEdit(rowID string) (models.Row, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	row, err := w.ledger.CommitEdit(rowID)
	if err != nil {
		return models.Row{}, err
	}
	w.publish(EventLedgerUpdated, row)
	return row, nil
}

// CancelEdit leaves edit mode. rowID must be the row under edit.
func (w *Workspace) CancelEdit(rowID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	edit, ok := w.ledger.Editing()
	if !ok || edit.RowID != rowID {
		return fmt.Errorf("%w: %s", ledger.ErrNotEditing, rowID)
	}
	w.ledger.CancelEdit()
	return nil
}

// ViewInDrawing surfaces the element a row refers to: it is selected and the
// overlay is made visible.
func (w *Workspace) ViewInDrawing(rowID string) (models.Element, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	row, ok := w.ledger.Get(rowID)
	if !ok {
		return models.Element{}, fmt.Errorf("%w: %s", ledger.ErrUnknownRow, rowID)
	}
	if row.ElementID == "" {
		return models.Element{}, fmt.Errorf("%w: row %s has no element", ErrOrphanedReference, rowID)
	}
	el, ok := w.overlay.Get(row.ElementID)
	if !ok {
		return models.Element{}, fmt.Errorf("%w: row %s refers to missing element %s", ErrOrphanedReference, rowID, row.ElementID)
	}

	if err := w.selectLocked(el.ID); err != nil {
		return models.Element{}, err
	}
	if !w.view.OverlayVisible() {
		w.view.ShowOverlay()
		w.publish(EventViewportChanged, w.view.State())
	}
	return el, nil
}
