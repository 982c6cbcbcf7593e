// handlers_elements.go - Detected element and selection handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ElementHandlerImpl implements the ElementHandler interface
type ElementHandlerImpl struct {
	sessions SessionManager
}

// NewElementHandler creates a new element handler
func NewElementHandler(sessions SessionManager) ElementHandler {
	return &ElementHandlerImpl{sessions: sessions}
}

// HandleListElements returns the detected elements and the selection
func (h *ElementHandlerImpl) HandleListElements(c echo.Context) error {
	ws, err := lookupWorkspace(c, h.sessions)
	if err != nil {
		return err
	}
	elements, selected := ws.Elements()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"elements":   elements,
		"selectedId": selected,
	})
}

// HandleSelectElement selects one element
func (h *ElementHandlerImpl) HandleSelectElement(c echo.Context) error {
	ws, err := lookupWorkspace(c, h.sessions)
	if err != nil {
		return err
	}
	id := c.Param("elementId")
	if err := ws.SelectElement(id); err != nil {
		return domainError(err, "failed to select element")
	}
	return c.JSON(http.StatusOK, map[string]string{"selectedId": id})
}

// HandleClearSelection drops the selection
func (h *ElementHandlerImpl) HandleClearSelection(c echo.Context) error {
	ws, err := lookupWorkspace(c, h.sessions)
	if err != nil {
		return err
	}
	ws.ClearSelection()
	return c.NoContent(http.StatusNoContent)
}
