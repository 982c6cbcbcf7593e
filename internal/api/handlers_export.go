// handlers_export.go - Export and export history handlers
package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/structdraw/backend/internal/export"
	"github.com/structdraw/backend/internal/models"
)

// MIMEApplicationMsgpack is the content type of binary record responses.
const MIMEApplicationMsgpack = "application/msgpack"

// ExportHandlerImpl implements the ExportHandler interface
type ExportHandlerImpl struct {
	sessions SessionManager
	service  *export.Service
	history  ExportHistory
	defaults models.ExportConfig
}

// NewExportHandler creates a new export handler. history may be nil.
func NewExportHandler(sessions SessionManager, service *export.Service, history ExportHistory, defaults models.ExportConfig) ExportHandler {
	return &ExportHandlerImpl{
		sessions: sessions,
		service:  service,
		history:  history,
		defaults: defaults,
	}
}

// HandleExportDefaults returns the initial export panel state and the formats on offer
func (h *ExportHandlerImpl) HandleExportDefaults(c echo.Context) error {
	formats := h.service.Registry().Formats()
	names := make(map[models.ExportFormat]string, len(formats))
	for _, f := range formats {
		names[f] = export.DisplayName(f)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"config":  h.defaults,
		"formats": names,
	})
}

// HandleExportRecords returns the flat export records without encoding a file.
// Clients sending Accept: application/msgpack get a msgpack body.
func (h *ExportHandlerImpl) HandleExportRecords(c echo.Context) error {
	ws, err := lookupWorkspace(c, h.sessions)
	if err != nil {
		return err
	}

	cfg, err := h.bindConfig(c)
	if err != nil {
		return err
	}
	if err := h.service.Validate(cfg); err != nil {
		return domainError(err, "invalid export configuration")
	}

	records := export.BuildRecords(ws.Rows(), cfg)
	rows := make([]map[string]interface{}, len(records))
	for i, rec := range records {
		rows[i] = rec.Map()
	}
	resp := map[string]interface{}{
		"fileName": cfg.FileName,
		"format":   cfg.Format,
		"columns":  export.Columns(cfg),
		"records":  rows,
		"count":    len(rows),
	}

	if strings.Contains(c.Request().Header.Get(echo.HeaderAccept), MIMEApplicationMsgpack) {
		data, err := msgpack.Marshal(resp)
		if err != nil {
			return NewInternalError("failed to encode msgpack", err)
		}
		return c.Blob(http.StatusOK, MIMEApplicationMsgpack, data)
	}
	return c.JSON(http.StatusOK, resp)
}

// HandleExport encodes the full ledger and returns it as a download
func (h *ExportHandlerImpl) HandleExport(c echo.Context) error {
	ws, err := lookupWorkspace(c, h.sessions)
	if err != nil {
		return err
	}

	cfg, err := h.bindConfig(c)
	if err != nil {
		return err
	}

	artifact, err := ws.Export(c.Request().Context(), h.service, cfg)
	if err != nil {
		return domainError(err, "export failed")
	}

	header := c.Response().Header()
	header.Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", artifact.FileName))
	header.Set("X-Export-Notice", artifact.Notice)
	header.Set("X-Export-Rows", strconv.Itoa(len(artifact.Records)))
	return c.Blob(http.StatusOK, artifact.ContentType, artifact.Data)
}

// HandleRecentExports lists recorded exports, newest first
func (h *ExportHandlerImpl) HandleRecentExports(c echo.Context) error {
	if h.history == nil {
		return c.JSON(http.StatusOK, []models.ExportEntry{})
	}

	limit := 20
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return NewValidationError("limit")
		}
		limit = n
	}

	entries, err := h.history.Recent(c.Request().Context(), limit)
	if err != nil {
		return NewInternalError("failed to read export history", err)
	}
	return c.JSON(http.StatusOK, entries)
}

// bindConfig overlays the request body on the configured defaults.
func (h *ExportHandlerImpl) bindConfig(c echo.Context) (models.ExportConfig, error) {
	cfg := h.defaults
	if err := c.Bind(&cfg); err != nil {
		return cfg, NewBadRequestError("invalid JSON body", err)
	}
	return cfg, nil
}
