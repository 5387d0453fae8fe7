// Package sheet stores bill records as rows of a single append-only table
// whose header grows as new charge columns appear
package sheet

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/garyjia/billwatch/internal/domain/entity"
	"github.com/garyjia/billwatch/pkg/database"
	"go.uber.org/zap"
)

// SQLiteSheet implements port.BillSheet on the sheet_columns and sheet_rows
// tables
type SQLiteSheet struct {
	db     *database.DB
	logger *zap.Logger
}

// NewSQLiteSheet creates a new SQLiteSheet
func NewSQLiteSheet(db *database.DB, logger *zap.Logger) *SQLiteSheet {
	return &SQLiteSheet{db: db, logger: logger}
}

// Headers returns the column names in creation order
func (s *SQLiteSheet) Headers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM sheet_columns ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to query sheet columns: %w", err)
	}
	defer rows.Close()

	var headers []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan sheet column: %w", err)
		}
		headers = append(headers, name)
	}
	return headers, rows.Err()
}

// Rows returns every stored row in insertion order
func (s *SQLiteSheet) Rows(ctx context.Context) ([]entity.SheetRow, error) {
	headers, err := s.Headers(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, "SELECT values_json FROM sheet_rows ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query sheet rows: %w", err)
	}
	defer rows.Close()

	var out []entity.SheetRow
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan sheet row: %w", err)
		}
		row, err := decodeRow(raw, headers)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// FindByContentHash returns the first row with the given Bill_Hash, or nil
func (s *SQLiteSheet) FindByContentHash(ctx context.Context, hash string) (*entity.SheetRow, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT values_json FROM sheet_rows WHERE bill_hash = ? ORDER BY id LIMIT 1", hash).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sheet row by hash: %w", err)
	}

	headers, err := s.Headers(ctx)
	if err != nil {
		return nil, err
	}
	row, err := decodeRow(raw, headers)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// AppendRow adds the new columns of row and inserts it in one transaction
func (s *SQLiteSheet) AppendRow(ctx context.Context, row entity.SheetRow) error {
	values, err := json.Marshal(row.Values)
	if err != nil {
		return fmt.Errorf("failed to encode sheet row: %w", err)
	}

	added := 0
	err = s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		existing, next, err := loadColumns(ctx, tx)
		if err != nil {
			return err
		}

		for _, column := range row.Columns {
			if existing[column] {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO sheet_columns (position, name) VALUES (?, ?)", next, column); err != nil {
				return fmt.Errorf("failed to add sheet column %q: %w", column, err)
			}
			existing[column] = true
			next++
			added++
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO sheet_rows (bill_id, bill_hash, user_id, bill_month_year, values_json)
			VALUES (?, ?, ?, ?, ?)`,
			row.Get(entity.ColumnBillID),
			row.Get(entity.ColumnBillHash),
			row.Get(entity.ColumnUserID),
			row.Get(entity.ColumnBillMonthYear),
			string(values),
		)
		if err != nil {
			return fmt.Errorf("failed to insert sheet row: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to append sheet row",
			zap.String("bill_id", row.Get(entity.ColumnBillID)),
			zap.Error(err))
		return err
	}

	s.logger.Debug("Appended sheet row",
		zap.String("bill_id", row.Get(entity.ColumnBillID)),
		zap.Int("new_columns", added))
	return nil
}

func loadColumns(ctx context.Context, tx *sql.Tx) (map[string]bool, int, error) {
	rows, err := tx.QueryContext(ctx, "SELECT position, name FROM sheet_columns")
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query sheet columns: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]bool)
	next := 1
	for rows.Next() {
		var position int
		var name string
		if err := rows.Scan(&position, &name); err != nil {
			return nil, 0, fmt.Errorf("failed to scan sheet column: %w", err)
		}
		existing[name] = true
		if position >= next {
			next = position + 1
		}
	}
	return existing, next, rows.Err()
}

func decodeRow(raw string, headers []string) (entity.SheetRow, error) {
	values := make(map[string]string)
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return entity.SheetRow{}, fmt.Errorf("failed to decode sheet row: %w", err)
	}
	return newRow(headers, values), nil
}

// newRow orders the present columns of values by headers
func newRow(headers []string, values map[string]string) entity.SheetRow {
	row := entity.SheetRow{Values: values}
	for _, h := range headers {
		if _, ok := values[h]; ok {
			row.Columns = append(row.Columns, h)
		}
	}
	return row
}
