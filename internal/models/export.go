package models

// ExportFormat names an export target.
type ExportFormat string

const (
	ExportFormatExcel ExportFormat = "excel"
	ExportFormatPDF   ExportFormat = "pdf"
)

// DefaultExportFileName is the file name offered before the user edits it.
const DefaultExportFileName = "structural_analysis"

// ExportConfig holds the options collected by the export panel.
type ExportConfig struct {
	FileName          string       `json:"fileName"`
	Format            ExportFormat `json:"format"`
	IncludeImages     bool         `json:"includeImages"`
	IncludeDimensions bool         `json:"includeDimensions"`
	IncludeWeights    bool         `json:"includeWeights"`
	IncludeMaterials  bool         `json:"includeMaterials"`
	IncludeNotes      bool         `json:"includeNotes"`
}

// DefaultExportConfig returns the export panel's initial state.
func DefaultExportConfig() ExportConfig {
	return ExportConfig{
		FileName:          DefaultExportFileName,
		Format:            ExportFormatExcel,
		IncludeImages:     true,
		IncludeDimensions: true,
		IncludeWeights:    true,
		IncludeMaterials:  true,
		IncludeNotes:      true,
	}
}

// ExportEntry records a completed export.
type ExportEntry struct {
	ID          string       `json:"id"`
	WorkspaceID string       `json:"workspaceId"`
	FileName    string       `json:"fileName"`
	Format      ExportFormat `json:"format"`
	RowCount    int          `json:"rowCount"`
	ByteSize    int64        `json:"byteSize"`
	CreatedAt   int64        `json:"createdAt"` // Unix ms
}
