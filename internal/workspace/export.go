package workspace

import (
	"context"
	"fmt"
	"io"

	"github.com/structdraw/backend/internal/export"
	"github.com/structdraw/backend/internal/models"
)

// maxEmbeddedImage is the largest drawing attached to an export. Larger
// drawings are left out rather than truncated.
var maxEmbeddedImage = 32 << 20

// Exporter encodes export requests. export.Service implements it.
type Exporter interface {
	RequestExport(ctx context.Context, req export.Request) (*export.Artifact, error)
}

// Export encodes the full ledger with cfg. The drawing is attached when images
// are requested and the current asset is a raster image.
func (w *Workspace) Export(ctx context.Context, exporter Exporter, cfg models.ExportConfig) (*export.Artifact, error) {
	req := export.Request{
		WorkspaceID: w.id,
		Rows:        w.Rows(),
		Config:      cfg,
	}

	if cfg.IncludeImages {
		img, err := w.exportImage()
		if err != nil {
			fmt.Printf("[Export] Warning: drawing not attached: %v\n", err)
		}
		req.Image = img
	}

	artifact, err := exporter.RequestExport(ctx, req)
	if err != nil {
		return nil, err
	}

	w.publish(EventExportCompleted, map[string]interface{}{
		"fileName": artifact.FileName,
		"format":   cfg.Format,
		"rows":     len(artifact.Records),
		"notice":   artifact.Notice,
	})
	return artifact, nil
}

func (w *Workspace) exportImage() (*export.Image, error) {
	asset, ok := w.Asset()
	if !ok || !asset.IsImage() || w.assets == nil {
		return nil, nil
	}
	rc, err := w.assets.Open(asset)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, int64(maxEmbeddedImage)+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxEmbeddedImage {
		fmt.Printf("[Export] Skipping drawing %s: larger than %d bytes\n", asset.Name, maxEmbeddedImage)
		return nil, nil
	}
	return &export.Image{Name: asset.Name, MIMEType: asset.MIMEType, Data: data}, nil
}
