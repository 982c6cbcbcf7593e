// handlers_viewport.go - Zoom, pan and overlay handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/structdraw/backend/internal/models"
	"github.com/structdraw/backend/internal/workspace"
)

// ViewportHandlerImpl implements the ViewportHandler interface
type ViewportHandlerImpl struct {
	sessions SessionManager
}

// NewViewportHandler creates a new viewport handler
func NewViewportHandler(sessions SessionManager) ViewportHandler {
	return &ViewportHandlerImpl{sessions: sessions}
}

// HandleGetViewport returns the viewport state and the overlay in screen space
func (h *ViewportHandlerImpl) HandleGetViewport(c echo.Context) error {
	ws, err := lookupWorkspace(c, h.sessions)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ws.Project())
}

// HandleZoom applies a zoom button press or a slider value in percent
func (h *ViewportHandlerImpl) HandleZoom(c echo.Context) error {
	ws, err := lookupWorkspace(c, h.sessions)
	if err != nil {
		return err
	}

	var req zoomRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	var state models.ViewportState
	switch req.Action {
	case "in":
		state = ws.ZoomIn()
	case "out":
		state = ws.ZoomOut()
	case "set":
		if req.Percent == nil {
			return NewValidationError("percent")
		}
		state = ws.SetZoomPercent(*req.Percent)
	default:
		return NewValidationError("action")
	}
	return c.JSON(http.StatusOK, state)
}

// HandleWheel applies a wheel gesture. Without the modifier nothing changes and
// the client keeps its native scroll.
func (h *ViewportHandlerImpl) HandleWheel(c echo.Context) error {
	ws, err := lookupWorkspace(c, h.sessions)
	if err != nil {
		return err
	}

	var req wheelRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	state, suppress := ws.Wheel(req.DeltaY, req.CtrlKey || req.MetaKey)
	return c.JSON(http.StatusOK, map[string]interface{}{
		"viewport":       state,
		"preventDefault": suppress,
	})
}

// HandlePointer routes pointer down/move/up for selection and panning
func (h *ViewportHandlerImpl) HandlePointer(c echo.Context) error {
	ws, err := lookupWorkspace(c, h.sessions)
	if err != nil {
		return err
	}

	var req pointerRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	res, err := ws.Pointer(req.Phase, models.Point{X: req.X, Y: req.Y}, req.Button, req.ElementID)
	if err != nil {
		return domainError(err, "pointer event failed")
	}
	return c.JSON(http.StatusOK, res)
}

// HandleToggleOverlay shows or hides the element overlay
func (h *ViewportHandlerImpl) HandleToggleOverlay(c echo.Context) error {
	ws, err := lookupWorkspace(c, h.sessions)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ws.ToggleOverlay())
}

type zoomRequest struct {
	Action  string   `json:"action"`
	Percent *float64 `json:"percent,omitempty"`
}

type wheelRequest struct {
	DeltaY  float64 `json:"deltaY"`
	CtrlKey bool    `json:"ctrlKey"`
	MetaKey bool    `json:"metaKey"`
}

type pointerRequest struct {
	Phase     string  `json:"phase"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Button    int     `json:"button"`
	ElementID string  `json:"elementId,omitempty"`
}

func (r *pointerRequest) validate() error {
	switch r.Phase {
	case workspace.PointerDown, workspace.PointerMove, workspace.PointerUp:
		return nil
	}
	return NewValidationError("phase")
}
