// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"github.com/labstack/echo/v4"

	"github.com/structdraw/backend/internal/export"
	"github.com/structdraw/backend/internal/models"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Sessions    SessionManager
	Export      *export.Service
	History     ExportHistory // nil when history is disabled
	Defaults    models.ExportConfig
	Version     string
	WSMaxReadKB int
}

// Handlers holds all handler instances
type Handlers struct {
	Health    HealthHandler
	Workspace WorkspaceHandler
	Asset     AssetHandler
	Viewport  ViewportHandler
	Element   ElementHandler
	Ledger    LedgerHandler
	Export    ExportHandler
	Events    EventHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:    NewHealthHandler(deps.Version, deps.Sessions),
		Workspace: NewWorkspaceHandler(deps.Sessions),
		Asset:     NewAssetHandler(deps.Sessions),
		Viewport:  NewViewportHandler(deps.Sessions),
		Element:   NewElementHandler(deps.Sessions),
		Ledger:    NewLedgerHandler(deps.Sessions),
		Export:    NewExportHandler(deps.Sessions, deps.Export, deps.History, deps.Defaults),
		Events:    NewEventHandler(deps.Sessions, deps.WSMaxReadKB),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	api := e.Group("/api")

	// Health check
	api.GET("/health", handlers.Health.HandleHealth)

	// Workspace lifecycle
	api.POST("/workspaces", handlers.Workspace.HandleCreateWorkspace)
	api.GET("/workspaces", handlers.Workspace.HandleListWorkspaces)

	ws := api.Group("/workspaces/:id")
	ws.GET("", handlers.Workspace.HandleGetWorkspace)
	ws.DELETE("", handlers.Workspace.HandleDeleteWorkspace)

	// Drawing
	ws.POST("/asset", handlers.Asset.HandleUploadAsset)
	ws.DELETE("/asset", handlers.Asset.HandleRemoveAsset)
	ws.GET("/asset/content", handlers.Asset.HandleGetAssetContent)

	// Viewport
	ws.GET("/viewport", handlers.Viewport.HandleGetViewport)
	ws.POST("/viewport/zoom", handlers.Viewport.HandleZoom)
	ws.POST("/viewport/wheel", handlers.Viewport.HandleWheel)
	ws.POST("/viewport/pointer", handlers.Viewport.HandlePointer)
	ws.POST("/viewport/overlay/toggle", handlers.Viewport.HandleToggleOverlay)

	// Elements and selection
	ws.GET("/elements", handlers.Element.HandleListElements)
	ws.POST("/elements/:elementId/select", handlers.Element.HandleSelectElement)
	ws.DELETE("/selection", handlers.Element.HandleClearSelection)

	// Ledger
	ws.GET("/ledger", handlers.Ledger.HandleListLedger)
	ws.POST("/ledger/:rowId/edit", handlers.Ledger.HandleBeginEdit)
	ws.PUT("/ledger/:rowId/edit/fields/:field", handlers.Ledger.HandleSetField)
	ws.POST("/ledger/:rowId/edit/commit", handlers.Ledger.HandleCommitEdit)
	ws.DELETE("/ledger/:rowId/edit", handlers.Ledger.HandleCancelEdit)
	ws.POST("/ledger/:rowId/view", handlers.Ledger.HandleViewInDrawing)

	// Export
	api.GET("/export/defaults", handlers.Export.HandleExportDefaults)
	api.GET("/exports/recent", handlers.Export.HandleRecentExports)
	ws.POST("/export/records", handlers.Export.HandleExportRecords)
	ws.POST("/export", handlers.Export.HandleExport)
}

// RegisterWebSocketRoutes registers WebSocket routes
func RegisterWebSocketRoutes(e *echo.Echo, handlers *Handlers) {
	e.GET("/api/workspaces/:id/events", handlers.Events.HandleEvents)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo) {
	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler
}
