package port

import (
	"context"

	"github.com/garyjia/billwatch/internal/domain/entity"
)

// FileStorage defines file storage operations
type FileStorage interface {
	Save(ctx context.Context, path string, content []byte) error
	Read(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) bool
	GetFullPath(relativePath string) string
}

// BillArchive keeps a copy of every accepted bill PDF
type BillArchive interface {
	// Store saves content for record and returns the archive-relative path
	Store(ctx context.Context, record *entity.BillRecord, content []byte) (string, error)
}
