// handlers_asset.go - Drawing upload handlers
package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/structdraw/backend/internal/upload"
)

// AssetHandlerImpl implements the AssetHandler interface
type AssetHandlerImpl struct {
	sessions SessionManager
}

// NewAssetHandler creates a new asset handler
func NewAssetHandler(sessions SessionManager) AssetHandler {
	return &AssetHandlerImpl{sessions: sessions}
}

// HandleUploadAsset accepts a multipart "file" field holding an image or PDF.
// An optional "encoding" field of "gzip" marks a compressed file; its "type"
// field then names the drawing type, or it is sniffed. A rejected file leaves
// the current drawing in place.
func (h *AssetHandlerImpl) HandleUploadAsset(c echo.Context) error {
	ws, err := lookupWorkspace(c, h.sessions)
	if err != nil {
		return err
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return NewBadRequestError("multipart field \"file\" is required", err)
	}
	if fh.Filename == "" {
		return NewValidationError("file")
	}

	f, err := fh.Open()
	if err != nil {
		return NewBadRequestError("failed to read uploaded file", err)
	}
	defer f.Close()

	mimeType := fh.Header.Get(echo.HeaderContentType)
	encoding := c.FormValue("encoding")
	body, err := upload.Decode(encoding, f)
	if err != nil {
		return domainError(err, "failed to decode upload")
	}
	defer body.Close()
	if encoding != "" && encoding != "identity" {
		mimeType = c.FormValue("type")
	}

	asset, err := ws.Upload(fh.Filename, mimeType, body)
	if err != nil {
		return domainError(err, "failed to store drawing")
	}
	return c.JSON(http.StatusCreated, asset)
}

// HandleRemoveAsset drops the current drawing
func (h *AssetHandlerImpl) HandleRemoveAsset(c echo.Context) error {
	ws, err := lookupWorkspace(c, h.sessions)
	if err != nil {
		return err
	}
	if err := ws.RemoveAsset(); err != nil {
		return domainError(err, "failed to remove drawing")
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleGetAssetContent streams the stored drawing bytes
func (h *AssetHandlerImpl) HandleGetAssetContent(c echo.Context) error {
	ws, err := lookupWorkspace(c, h.sessions)
	if err != nil {
		return err
	}

	asset, rc, err := ws.OpenAsset()
	if err != nil {
		return domainError(err, "failed to open drawing")
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", asset.Name))
	c.Response().Header().Set(echo.HeaderContentLength, fmt.Sprintf("%d", asset.Size))
	return c.Stream(http.StatusOK, asset.MIMEType, rc)
}
