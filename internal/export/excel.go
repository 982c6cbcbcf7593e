package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/structdraw/backend/internal/models"
)

const (
	excelSheet        = "Bill of Materials"
	excelDrawingSheet = "Drawing"
)

// ExcelFormatter writes an .xlsx workbook with one row per record.
type ExcelFormatter struct{}

// NewExcelFormatter creates the spreadsheet formatter.
func NewExcelFormatter() *ExcelFormatter { return &ExcelFormatter{} }

// Name implements Formatter.
func (f *ExcelFormatter) Name() models.ExportFormat { return models.ExportFormatExcel }

// ContentType implements Formatter.
func (f *ExcelFormatter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// Extension implements Formatter.
func (f *ExcelFormatter) Extension() string { return ".xlsx" }

// Encode implements Formatter.
func (f *ExcelFormatter) Encode(doc *Document) ([]byte, error) {
	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName("Sheet1", excelSheet); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	headerStyle, err := wb.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DCE6F1"}},
	})
	if err != nil {
		return nil, fmt.Errorf("creating header style: %w", err)
	}

	for i, col := range doc.Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := wb.SetCellValue(excelSheet, cell, col); err != nil {
			return nil, fmt.Errorf("writing header %s: %w", col, err)
		}
	}
	if len(doc.Columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(doc.Columns), 1)
		if err := wb.SetCellStyle(excelSheet, "A1", last, headerStyle); err != nil {
			return nil, fmt.Errorf("styling header: %w", err)
		}
		lastCol, _ := excelize.ColumnNumberToName(len(doc.Columns))
		if err := wb.SetColWidth(excelSheet, "A", lastCol, 18); err != nil {
			return nil, err
		}
	}

	for r, rec := range doc.Records {
		for c, col := range doc.Columns {
			v, ok := rec.Get(col)
			if !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := wb.SetCellValue(excelSheet, cell, v); err != nil {
				return nil, fmt.Errorf("writing %s: %w", cell, err)
			}
		}
	}

	if doc.Image != nil {
		if err := addExcelImage(wb, doc.Image); err != nil {
			return nil, err
		}
	}

	buf, err := wb.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("writing workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func addExcelImage(wb *excelize.File, img *Image) error {
	ext, ok := imageExtension(img.MIMEType)
	if !ok {
		return nil
	}
	if _, err := wb.NewSheet(excelDrawingSheet); err != nil {
		return fmt.Errorf("creating drawing sheet: %w", err)
	}
	err := wb.AddPictureFromBytes(excelDrawingSheet, "A1", &excelize.Picture{
		Extension: ext,
		File:      img.Data,
		Format:    &excelize.GraphicOptions{AltText: img.Name},
	})
	if err != nil {
		fmt.Printf("[Export] Skipping unreadable drawing %s: %v\n", img.Name, err)
		if err := wb.DeleteSheet(excelDrawingSheet); err != nil {
			return fmt.Errorf("removing drawing sheet: %w", err)
		}
	}
	return nil
}
