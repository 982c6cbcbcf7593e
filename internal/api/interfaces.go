// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/structdraw/backend/internal/models"
	"github.com/structdraw/backend/internal/session"
	"github.com/structdraw/backend/internal/workspace"
)

// WorkspaceHandler handles workspace lifecycle operations
type WorkspaceHandler interface {
	HandleCreateWorkspace(c echo.Context) error
	HandleListWorkspaces(c echo.Context) error
	HandleGetWorkspace(c echo.Context) error
	HandleDeleteWorkspace(c echo.Context) error
}

// AssetHandler handles the uploaded drawing
type AssetHandler interface {
	HandleUploadAsset(c echo.Context) error
	HandleRemoveAsset(c echo.Context) error
	HandleGetAssetContent(c echo.Context) error
}

// ViewportHandler handles zoom, pan and overlay visibility
type ViewportHandler interface {
	HandleGetViewport(c echo.Context) error
	HandleZoom(c echo.Context) error
	HandleWheel(c echo.Context) error
	HandlePointer(c echo.Context) error
	HandleToggleOverlay(c echo.Context) error
}

// ElementHandler handles detected elements and selection
type ElementHandler interface {
	HandleListElements(c echo.Context) error
	HandleSelectElement(c echo.Context) error
	HandleClearSelection(c echo.Context) error
}

// LedgerHandler handles the bill of materials
type LedgerHandler interface {
	HandleListLedger(c echo.Context) error
	HandleBeginEdit(c echo.Context) error
	HandleSetField(c echo.Context) error
	HandleCommitEdit(c echo.Context) error
	HandleCancelEdit(c echo.Context) error
	HandleViewInDrawing(c echo.Context) error
}

// ExportHandler handles exports and export history
type ExportHandler interface {
	HandleExportDefaults(c echo.Context) error
	HandleExportRecords(c echo.Context) error
	HandleExport(c echo.Context) error
	HandleRecentExports(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// EventHandler streams workspace events
type EventHandler interface {
	HandleEvents(c echo.Context) error
}

// SessionManager defines the interface for workspace session management
// This allows mocking in tests
type SessionManager interface {
	Create() (*workspace.Workspace, error)
	Get(id string) (*workspace.Workspace, error)
	Delete(id string) error
	List() []session.Summary
	Count() int
}

// ExportHistory lists recorded exports
type ExportHistory interface {
	Recent(ctx context.Context, limit int) ([]models.ExportEntry, error)
}
