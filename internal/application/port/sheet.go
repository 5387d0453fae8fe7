package port

import (
	"context"

	"github.com/garyjia/billwatch/internal/domain/entity"
)

// BillSheet is the append-only table of bill records. Columns are only ever
// appended to the header, and rows are never updated or removed.
type BillSheet interface {
	// Headers returns the current column names in creation order
	Headers(ctx context.Context) ([]string, error)

	// Rows returns every stored row in insertion order
	Rows(ctx context.Context) ([]entity.SheetRow, error)

	// FindByContentHash returns the row whose Bill_Hash equals hash, or nil
	// when there is none
	FindByContentHash(ctx context.Context, hash string) (*entity.SheetRow, error)

	// AppendRow adds any new columns of row to the header and appends its
	// values. Either both happen or neither does.
	AppendRow(ctx context.Context, row entity.SheetRow) error
}

// BillIDLookup resolves the bill id already assigned to a document
type BillIDLookup interface {
	BillIDForHash(ctx context.Context, contentHash string) (string, bool, error)
}

// SheetExporter renders stored rows as a downloadable document
type SheetExporter interface {
	Export(headers []string, rows []entity.SheetRow) ([]byte, error)
	ContentType() string
}
