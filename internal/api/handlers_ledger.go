// handlers_ledger.go - Bill of materials handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// LedgerHandlerImpl implements the LedgerHandler interface
type LedgerHandlerImpl struct {
	sessions SessionManager
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(sessions SessionManager) LedgerHandler {
	return &LedgerHandlerImpl{sessions: sessions}
}

// HandleListLedger returns the rows matching ?q= with counts and the weight total
func (h *LedgerHandlerImpl) HandleListLedger(c echo.Context) error {
	ws, err := lookupWorkspace(c, h.sessions)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ws.Ledger(c.QueryParam("q")))
}

// HandleBeginEdit puts a row into edit mode
func (h *LedgerHandlerImpl) HandleBeginEdit(c echo.Context) error {
	ws, err := lookupWorkspace(c, h.sessions)
	if err != nil {
		return err
	}
	edit, err := ws.BeginEdit(c.Param("rowId"))
	if err != nil {
		return domainError(err, "failed to start edit")
	}
	return c.JSON(http.StatusOK, edit)
}

// HandleSetField buffers one field value of the row under edit
func (h *LedgerHandlerImpl) HandleSetField(c echo.Context) error {
	ws, err := lookupWorkspace(c, h.sessions)
	if err != nil {
		return err
	}

	var req setFieldRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if req.Value == nil {
		return NewValidationError("value")
	}

	edit, err := ws.SetField(c.Param("rowId"), c.Param("field"), *req.Value)
	if err != nil {
		return domainError(err, "failed to update field")
	}
	return c.JSON(http.StatusOK, edit)
}

// HandleCommitEdit saves the buffered edit
func (h *LedgerHandlerImpl) HandleCommitEdit(c echo.Context) error {
	ws, err := lookupWorkspace(c, h.sessions)
	if err != nil {
		return err
	}
	row, err := ws.CommitEdit(c.Param("rowId"))
	if err != nil {
		return domainError(err, "failed to save row")
	}
	return c.JSON(http.StatusOK, row)
}

// HandleCancelEdit discards the buffered edit
func (h *LedgerHandlerImpl) HandleCancelEdit(c echo.Context) error {
	ws, err := lookupWorkspace(c, h.sessions)
	if err != nil {
		return err
	}
	if err := ws.CancelEdit(c.Param("rowId")); err != nil {
		return domainError(err, "failed to cancel edit")
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleViewInDrawing selects the element a row refers to
func (h *LedgerHandlerImpl) HandleViewInDrawing(c echo.Context) error {
	ws, err := lookupWorkspace(c, h.sessions)
	if err != nil {
		return err
	}
	el, err := ws.ViewInDrawing(c.Param("rowId"))
	if err != nil {
		return domainError(err, "failed to locate element")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"element":  el,
		"viewport": ws.Viewport(),
	})
}

type setFieldRequest struct {
	Value *string `json:"value"`
}
