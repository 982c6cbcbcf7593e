package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/structdraw/backend/internal/models"
)

// ErrInvalidExportConfig is returned for an empty file name or unknown format.
var ErrInvalidExportConfig = errors.New("invalid export config")

// HistoryRecorder persists completed exports.
type HistoryRecorder interface {
	Record(ctx context.Context, entry models.ExportEntry) error
}

// Request is one export invocation.
type Request struct {
	WorkspaceID string
	Rows        []models.Row // Full, unfiltered ledger
	Image       *Image
	Config      models.ExportConfig
}

// Artifact is an encoded export ready for download.
type Artifact struct {
	FileName    string   `json:"fileName"`
	ContentType string   `json:"contentType"`
	Data        []byte   `json:"-"`
	Records     []Record `json:"records"`
	Notice      string   `json:"notice"`
}

// Service validates export requests, encodes them and records the result.
type Service struct {
	registry *Registry
	history  HistoryRecorder
}

// NewService creates an export service. history may be nil.
func NewService(registry *Registry, history HistoryRecorder) *Service {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Service{registry: registry, history: history}
}

// Registry returns the formatter registry.
func (s *Service) Registry() *Registry { return s.registry }

// Validate checks the file name and format of cfg.
func (s *Service) Validate(cfg models.ExportConfig) error {
	if strings.TrimSpace(cfg.FileName) == "" {
		return fmt.Errorf("%w: file name is required", ErrInvalidExportConfig)
	}
	if _, err := s.registry.Get(cfg.Format); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidExportConfig, err)
	}
	return nil
}

// RequestExport builds records from the full row set, encodes them with the
// configured formatter and records the export in history.
func (s *Service) RequestExport(ctx context.Context, req Request) (*Artifact, error) {
	if err := s.Validate(req.Config); err != nil {
		return nil, err
	}
	formatter, _ := s.registry.Get(req.Config.Format)

	fmt.Printf("[Export] Exporting to %s with filename: %s (%d rows, images=%t dimensions=%t weights=%t materials=%t notes=%t)\n",
		DisplayName(formatter.Name()), req.Config.FileName, len(req.Rows),
		req.Config.IncludeImages, req.Config.IncludeDimensions, req.Config.IncludeWeights,
		req.Config.IncludeMaterials, req.Config.IncludeNotes)

	records := BuildRecords(req.Rows, req.Config)
	doc := &Document{
		Title:   "Bill of Materials",
		Columns: Columns(req.Config),
		Records: records,
		Config:  req.Config,
	}
	if req.Config.IncludeImages && req.Image != nil {
		doc.Image = req.Image
	}

	data, err := formatter.Encode(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding %s export: %w", formatter.Name(), err)
	}

	artifact := &Artifact{
		FileName:    FileName(req.Config.FileName, formatter.Extension()),
		ContentType: formatter.ContentType(),
		Data:        data,
		Records:     records,
		Notice:      "Your file has been exported successfully.",
	}

	if s.history != nil {
		entry := models.ExportEntry{
			ID:          uuid.New().String(),
			WorkspaceID: req.WorkspaceID,
			FileName:    artifact.FileName,
			Format:      formatter.Name(),
			RowCount:    len(records),
			ByteSize:    int64(len(data)),
			CreatedAt:   time.Now().UnixMilli(),
		}
		if err := s.history.Record(ctx, entry); err != nil {
			// History is best effort.
			fmt.Printf("[Export] Warning: failed to record export history: %v\n", err)
		}
	}

	return artifact, nil
}

// FileName builds a safe download name with the formatter's extension.
func FileName(base, ext string) string {
	name := strings.TrimSpace(base)
	name = strings.NewReplacer("/", "_", "\\", "_", "\"", "_", "\n", "_", "\r", "_").Replace(name)
	if !strings.HasSuffix(strings.ToLower(name), ext) {
		name += ext
	}
	return name
}

// DisplayName returns the user-facing name of a format.
func DisplayName(format models.ExportFormat) string {
	switch format {
	case models.ExportFormatExcel:
		return "Excel"
	case models.ExportFormatPDF:
		return "PDF"
	}
	return strings.ToUpper(string(format))
}
