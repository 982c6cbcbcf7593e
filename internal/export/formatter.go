package export

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/structdraw/backend/internal/models"
)

// Image is a drawing embedded in an export.
type Image struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Document is everything a formatter needs to encode one export.
type Document struct {
	Title   string
	Columns []string
	Records []Record
	Config  models.ExportConfig
	Image   *Image // Set only when IncludeImages is on and the drawing is a raster image
}

// Formatter encodes a document into one file format.
type Formatter interface {
	Name() models.ExportFormat
	ContentType() string
	Extension() string
	Encode(doc *Document) ([]byte, error)
}

// Registry maps format names to formatters.
type Registry struct {
	mu         sync.RWMutex
	formatters map[models.ExportFormat]Formatter
}

// NewRegistry creates a registry with the spreadsheet and PDF formatters.
func NewRegistry() *Registry {
	r := &Registry{formatters: make(map[models.ExportFormat]Formatter)}
	r.Register(NewExcelFormatter())
	r.Register(NewPDFFormatter())
	return r
}

// Register adds or replaces a formatter.
func (r *Registry) Register(f Formatter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formatters[f.Name()] = f
}

// Get returns the formatter for a format name.
func (r *Registry) Get(format models.ExportFormat) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.formatters[models.ExportFormat(strings.ToLower(string(format)))]
	if !ok {
		return nil, fmt.Errorf("unknown export format: %q", format)
	}
	return f, nil
}

// Formats lists registered format names in sorted order.
func (r *Registry) Formats() []models.ExportFormat {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.ExportFormat, 0, len(r.formatters))
	for name := range r.formatters {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// formatValue renders a record value as cell text.
func formatValue(v any) string {
	switch tv := v.(type) {
	case nil:
		return ""
	case string:
		return tv
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64)
	case int:
		return strconv.Itoa(tv)
	default:
		return fmt.Sprint(tv)
	}
}

// imageExtension maps an image MIME type to the extension encoders expect.
func imageExtension(mimeType string) (string, bool) {
	switch strings.ToLower(mimeType) {
	case "image/png":
		return ".png", true
	case "image/jpeg", "image/jpg":
		return ".jpg", true
	case "image/gif":
		return ".gif", true
	}
	return "", false
}
