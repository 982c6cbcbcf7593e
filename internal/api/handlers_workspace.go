// handlers_workspace.go - Workspace lifecycle handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/structdraw/backend/internal/workspace"
)

// WorkspaceHandlerImpl implements the WorkspaceHandler interface
type WorkspaceHandlerImpl struct {
	sessions SessionManager
}

// NewWorkspaceHandler creates a new workspace handler
func NewWorkspaceHandler(sessions SessionManager) WorkspaceHandler {
	return &WorkspaceHandlerImpl{sessions: sessions}
}

// HandleCreateWorkspace starts a new, empty workspace
func (h *WorkspaceHandlerImpl) HandleCreateWorkspace(c echo.Context) error {
	ws, err := h.sessions.Create()
	if err != nil {
		return NewServiceUnavailableError(err.Error())
	}
	return c.JSON(http.StatusCreated, ws.Snapshot())
}

// HandleListWorkspaces lists the live workspaces
func (h *WorkspaceHandlerImpl) HandleListWorkspaces(c echo.Context) error {
	return c.JSON(http.StatusOK, h.sessions.List())
}

// HandleGetWorkspace returns the full state of a workspace
func (h *WorkspaceHandlerImpl) HandleGetWorkspace(c echo.Context) error {
	ws, err := lookupWorkspace(c, h.sessions)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ws.Snapshot())
}

// HandleDeleteWorkspace closes a workspace and releases its upload
func (h *WorkspaceHandlerImpl) HandleDeleteWorkspace(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}
	if err := h.sessions.Delete(id); err != nil {
		return NewNotFoundError("workspace", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// lookupWorkspace resolves the :id path parameter.
func lookupWorkspace(c echo.Context, sessions SessionManager) (*workspace.Workspace, error) {
	id := c.Param("id")
	if id == "" {
		return nil, NewValidationError("id")
	}
	ws, err := sessions.Get(id)
	if err != nil {
		return nil, NewNotFoundError("workspace", id)
	}
	return ws, nil
}
