// Package viewport holds the pan/zoom state of the drawing viewer.
package viewport

import (
	"math"

	"github.com/structdraw/backend/internal/models"
)

// Default zoom limits.
const (
	DefaultMinZoom  = 0.5
	DefaultMaxZoom  = 3.0
	DefaultZoomStep = 0.1
)

// PrimaryButton is the only pointer button that starts a pan.
const PrimaryButton = 0

// Limits bounds the zoom factor and sets the step used by buttons and the wheel.
type Limits struct {
	MinZoom float64
	MaxZoom float64
	Step    float64
}

// DefaultLimits returns the viewer's standard zoom range.
func DefaultLimits() Limits {
	return Limits{MinZoom: DefaultMinZoom, MaxZoom: DefaultMaxZoom, Step: DefaultZoomStep}
}

// Transform converts pointer, wheel and slider input into a pan offset and a
// clamped zoom factor. Screen coordinates are pan + zoom*local.
type Transform struct {
	limits         Limits
	zoom           float64
	pan            models.Point
	overlayVisible bool

	dragging  bool
	dragStart models.Point
	panStart  models.Point
}

// New creates a transform at zoom 1 with no pan and the overlay shown.
func New(limits Limits) *Transform {
	if limits.MinZoom <= 0 || limits.MaxZoom < limits.MinZoom {
		limits = DefaultLimits()
	}
	if limits.Step <= 0 {
		limits.Step = DefaultZoomStep
	}
	t := &Transform{limits: limits}
	t.Reset()
	return t
}

// Reset restores the initial view.
func (t *Transform) Reset() {
	t.zoom = t.clamp(1)
	t.pan = models.Point{}
	t.overlayVisible = true
	t.dragging = false
}

// Zoom returns the current zoom factor.
func (t *Transform) Zoom() float64 { return t.zoom }

// Pan returns the current pan offset.
func (t *Transform) Pan() models.Point { return t.pan }

// OverlayVisible reports whether elements are drawn.
func (t *Transform) OverlayVisible() bool { return t.overlayVisible }

// Dragging reports whether a pan gesture is in progress.
func (t *Transform) Dragging() bool { return t.dragging }

// ZoomIn increases the zoom by one step.
func (t *Transform) ZoomIn() float64 { return t.SetZoom(t.zoom + t.limits.Step) }

// ZoomOut decreases the zoom by one step.
func (t *Transform) ZoomOut() float64 { return t.SetZoom(t.zoom - t.limits.Step) }

// SetZoom sets the zoom factor, clamped to the configured range.
func (t *Transform) SetZoom(value float64) float64 {
	t.zoom = t.clamp(value)
	return t.zoom
}

// Wheel applies one wheel event. Without the modifier the event is ignored and
// the platform keeps its native scroll. The returned flag tells the caller to
// suppress native behaviour.
func (t *Transform) Wheel(deltaY float64, modifierHeld bool) (zoom float64, suppress bool) {
	if !modifierHeld {
		return t.zoom, false
	}
	if deltaY > 0 {
		t.ZoomOut()
	} else {
		t.ZoomIn()
	}
	return t.zoom, true
}

// BeginDrag starts a pan gesture. Only the primary button starts one.
func (t *Transform) BeginDrag(p models.Point, button int) bool {
	if button != PrimaryButton {
		return false
	}
	t.dragging = true
	t.dragStart = p
	t.panStart = t.pan
	return true
}

// DragTo moves the pan so it tracks the pointer 1:1 from the drag start.
func (t *Transform) DragTo(p models.Point) models.Point {
	if !t.dragging {
		return t.pan
	}
	t.pan = models.Point{
		X: t.panStart.X + (p.X - t.dragStart.X),
		Y: t.panStart.Y + (p.Y - t.dragStart.Y),
	}
	return t.pan
}

// EndDrag finishes the pan gesture.
func (t *Transform) EndDrag() {
	t.dragging = false
}

// ToggleOverlay hides or shows all elements without touching geometry.
func (t *Transform) ToggleOverlay() bool {
	t.overlayVisible = !t.overlayVisible
	return t.overlayVisible
}

// ShowOverlay forces the elements visible.
func (t *Transform) ShowOverlay() {
	t.overlayVisible = true
}

// ToScreen maps an image-local point to screen space.
func (t *Transform) ToScreen(local models.Point) models.Point {
	return models.Point{
		X: t.pan.X + t.zoom*local.X,
		Y: t.pan.Y + t.zoom*local.Y,
	}
}

// ToLocal maps a screen point back to image-local space.
func (t *Transform) ToLocal(screen models.Point) models.Point {
	return models.Point{
		X: (screen.X - t.pan.X) / t.zoom,
		Y: (screen.Y - t.pan.Y) / t.zoom,
	}
}

// Project returns the screen rectangle of an element.
func (t *Transform) Project(e models.Element) models.Rect {
	origin := t.ToScreen(models.Point{X: e.X, Y: e.Y})
	return models.Rect{
		X:      origin.X,
		Y:      origin.Y,
		Width:  e.Width * t.zoom,
		Height: e.Height * t.zoom,
	}
}

// HitTest returns the id of the topmost element under a screen point. Later
// elements are drawn above earlier ones.
func (t *Transform) HitTest(elements []models.Element, screen models.Point) (string, bool) {
	if !t.overlayVisible {
		return "", false
	}
	for i := len(elements) - 1; i >= 0; i-- {
		r := t.Project(elements[i])
		if screen.X >= r.X && screen.X <= r.X+r.Width && screen.Y >= r.Y && screen.Y <= r.Y+r.Height {
			return elements[i].ID, true
		}
	}
	return "", false
}

// State returns a copy of the viewport state.
func (t *Transform) State() models.ViewportState {
	return models.ViewportState{
		Zoom:           t.zoom,
		Pan:            t.pan,
		OverlayVisible: t.overlayVisible,
		Dragging:       t.dragging,
	}
}

// clamp bounds z to the zoom range and drops float drift from repeated steps.
func (t *Transform) clamp(z float64) float64 {
	if math.IsNaN(z) {
		return t.zoom
	}
	z = math.Round(z*1e9) / 1e9
	if z < t.limits.MinZoom {
		z = t.limits.MinZoom
	}
	if z > t.limits.MaxZoom {
		z = t.limits.MaxZoom
	}
	return z
}
