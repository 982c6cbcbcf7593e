package export

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/structdraw/backend/internal/models"
)

// PDFFormatter writes a landscape A4 report with the drawing and a table.
type PDFFormatter struct {
	Compress bool
}

// NewPDFFormatter creates the PDF formatter.
func NewPDFFormatter() *PDFFormatter { return &PDFFormatter{Compress: true} }

// Name implements Formatter.
func (f *PDFFormatter) Name() models.ExportFormat { return models.ExportFormatPDF }

// ContentType implements Formatter.
func (f *PDFFormatter) ContentType() string { return "application/pdf" }

// Extension implements Formatter.
func (f *PDFFormatter) Extension() string { return ".pdf" }

// Encode implements Formatter.
func (f *PDFFormatter) Encode(doc *Document) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetCompression(f.Compress)
	pdf.SetTitle(doc.Title, true)
	pdf.SetCreator("StructDrawAnalyzer", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(doc.Title), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	if doc.Image != nil {
		addPDFImage(pdf, doc.Image)
	}

	if len(doc.Columns) > 0 {
		pageW, _ := pdf.GetPageSize()
		left, _, right, _ := pdf.GetMargins()
		colW := (pageW - left - right) / float64(len(doc.Columns))

		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(220, 230, 241)
		for _, col := range doc.Columns {
			pdf.CellFormat(colW, 7, tr(col), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 9)
		for _, rec := range doc.Records {
			for _, col := range doc.Columns {
				v, _ := rec.Get(col)
				align := "L"
				switch v.(type) {
				case int, float64:
					align = "R"
				}
				pdf.CellFormat(colW, 6, tr(formatValue(v)), "1", 0, align, false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func addPDFImage(pdf *fpdf.Fpdf, img *Image) {
	ext, ok := imageExtension(img.MIMEType)
	if !ok {
		return
	}
	opts := fpdf.ImageOptions{ImageType: ext[1:], ReadDpi: true}
	info := pdf.RegisterImageOptionsReader(img.Name, opts, bytes.NewReader(img.Data))
	if info == nil || pdf.Err() {
		fmt.Printf("[Export] Skipping unreadable drawing %s: %v\n", img.Name, pdf.Error())
		pdf.ClearError()
		return
	}

	// Fit the drawing into the upper half of the page.
	maxW, maxH := 180.0, 90.0
	w, h := info.Width(), info.Height()
	if w <= 0 || h <= 0 {
		return
	}
	scale := maxW / w
	if h*scale > maxH {
		scale = maxH / h
	}
	pdf.ImageOptions(img.Name, pdf.GetX(), pdf.GetY(), w*scale, h*scale, true, opts, 0, "")
	pdf.Ln(4)
}
