package sheet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/garyjia/billwatch/internal/domain/entity"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// DefaultSheetName is the worksheet that holds bill rows
const DefaultSheetName = "Bills"

// WorkbookSheet implements port.BillSheet on a single .xlsx file. Row 1 is
// the header. Every append rewrites the file through a temporary copy, so a
// failed write leaves the previous version in place.
type WorkbookSheet struct {
	mu        sync.Mutex
	path      string
	sheetName string
	logger    *zap.Logger
}

// NewWorkbookSheet creates a workbook-backed sheet at path. The file is
// created on the first append.
func NewWorkbookSheet(path, sheetName string, logger *zap.Logger) (*WorkbookSheet, error) {
	if path == "" {
		return nil, fmt.Errorf("workbook path is required")
	}
	if sheetName == "" {
		sheetName = DefaultSheetName
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create workbook directory: %w", err)
	}
	return &WorkbookSheet{path: path, sheetName: sheetName, logger: logger}, nil
}

// Headers returns the header row
func (s *WorkbookSheet) Headers(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	grid, err := s.readGrid()
	if err != nil {
		return nil, err
	}
	if len(grid) == 0 {
		return nil, nil
	}
	return grid[0], nil
}

// Rows returns every data row in file order
func (s *WorkbookSheet) Rows(ctx context.Context) ([]entity.SheetRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	grid, err := s.readGrid()
	if err != nil {
		return nil, err
	}
	if len(grid) < 2 {
		return nil, nil
	}

	headers := grid[0]
	rows := make([]entity.SheetRow, 0, len(grid)-1)
	for _, cells := range grid[1:] {
		rows = append(rows, rowFromCells(headers, cells))
	}
	return rows, nil
}

// FindByContentHash returns the first row with the given Bill_Hash, or nil
func (s *WorkbookSheet) FindByContentHash(ctx context.Context, hash string) (*entity.SheetRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	grid, err := s.readGrid()
	if err != nil {
		return nil, err
	}
	if len(grid) < 2 {
		return nil, nil
	}

	col := indexOf(grid[0], entity.ColumnBillHash)
	if col < 0 {
		return nil, nil
	}
	for _, cells := range grid[1:] {
		if col < len(cells) && cells[col] == hash {
			row := rowFromCells(grid[0], cells)
			return &row, nil
		}
	}
	return nil, nil
}

// AppendRow extends the header with the new columns of row and writes its
// values on the next free line
func (s *WorkbookSheet) AppendRow(ctx context.Context, row entity.SheetRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()

	grid, err := f.GetRows(s.sheetName)
	if err != nil {
		return fmt.Errorf("failed to read workbook rows: %w", err)
	}

	var headers []string
	if len(grid) > 0 {
		headers = grid[0]
	}
	added := 0
	for _, column := range row.Columns {
		if indexOf(headers, column) >= 0 {
			continue
		}
		headers = append(headers, column)
		cell, err := excelize.CoordinatesToCellName(len(headers), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(s.sheetName, cell, column); err != nil {
			return fmt.Errorf("failed to write header %q: %w", column, err)
		}
		added++
	}

	line := len(grid) + 1
	if line < 2 {
		line = 2
	}
	for i, column := range headers {
		value, ok := row.Values[column]
		if !ok {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(i+1, line)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(s.sheetName, cell, value); err != nil {
			return fmt.Errorf("failed to write cell %s: %w", cell, err)
		}
	}

	if err := s.save(f); err != nil {
		s.logger.Error("Failed to save workbook", zap.String("path", s.path), zap.Error(err))
		return err
	}

	s.logger.Debug("Appended workbook row",
		zap.String("bill_id", row.Get(entity.ColumnBillID)),
		zap.Int("line", line),
		zap.Int("new_columns", added))
	return nil
}

func (s *WorkbookSheet) readGrid() ([][]string, error) {
	f, err := excelize.OpenFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex(s.sheetName); idx == -1 {
		return nil, nil
	}
	grid, err := f.GetRows(s.sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook rows: %w", err)
	}
	return grid, nil
}

// open returns the existing workbook or a new one with the bill worksheet
func (s *WorkbookSheet) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		f = excelize.NewFile()
		if err := f.SetSheetName("Sheet1", s.sheetName); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to name worksheet: %w", err)
		}
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}

	if idx, _ := f.GetSheetIndex(s.sheetName); idx == -1 {
		if _, err := f.NewSheet(s.sheetName); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to add worksheet: %w", err)
		}
	}
	return f, nil
}

func (s *WorkbookSheet) save(f *excelize.File) error {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("failed to encode workbook: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace workbook: %w", err)
	}
	return nil
}

func rowFromCells(headers, cells []string) entity.SheetRow {
	values := make(map[string]string)
	for i, h := range headers {
		if i < len(cells) && cells[i] != "" {
			values[h] = cells[i]
		}
	}
	return newRow(headers, values)
}

func indexOf(items []string, item string) int {
	for i, v := range items {
		if v == item {
			return i
		}
	}
	return -1
}
