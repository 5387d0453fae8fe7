package sheet

import (
	"fmt"
	"strings"

	"github.com/garyjia/billwatch/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// XLSXContentType is the media type of exported workbooks
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// XLSXExporter implements port.SheetExporter
type XLSXExporter struct {
	sheetName string
}

// NewXLSXExporter creates an exporter writing to the named worksheet
func NewXLSXExporter(sheetName string) *XLSXExporter {
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	return &XLSXExporter{sheetName: sheetName}
}

// Export renders headers and rows as an XLSX workbook
func (e *XLSXExporter) Export(headers []string, rows []entity.SheetRow) ([]byte, error) {
	return BuildWorkbook(e.sheetName, headers, rows)
}

// ContentType returns the XLSX media type
func (e *XLSXExporter) ContentType() string {
	return XLSXContentType
}

// BuildWorkbook writes a bold header row followed by one line per row.
// Amount columns are written as numbers, everything else as text.
func BuildWorkbook(sheetName string, headers []string, rows []entity.SheetRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to name worksheet: %w", err)
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	if len(headers) > 0 {
		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return nil, fmt.Errorf("failed to create header style: %w", err)
		}
		last, _ := excelize.CoordinatesToCellName(len(headers), 1)
		_ = f.SetCellStyle(sheetName, "A1", last, style)
	}

	for r, row := range rows {
		for c, h := range headers {
			raw := row.Get(h)
			if raw == "" {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheetName, cell, cellValue(h, raw)); err != nil {
				return nil, fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func cellValue(column, raw string) interface{} {
	if !strings.HasSuffix(column, entity.AmountColumnSuffix) {
		return raw
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return raw
	}
	return amount.InexactFloat64()
}
