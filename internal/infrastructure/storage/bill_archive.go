package storage

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/garyjia/billwatch/internal/application/port"
	"github.com/garyjia/billwatch/internal/domain/entity"
	"go.uber.org/zap"
)

// unfiledFolder holds bills whose billing period could not be read
const unfiledFolder = "unfiled"

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)

// BillArchive implements port.BillArchive. PDFs are stored as
// "<MM-YYYY>/<contentHash>.pdf".
type BillArchive struct {
	files  port.FileStorage
	logger *zap.Logger
}

// NewBillArchive creates an archive on top of files
func NewBillArchive(files port.FileStorage, logger *zap.Logger) *BillArchive {
	return &BillArchive{files: files, logger: logger}
}

// Store saves content unless a file for the same document already exists
func (a *BillArchive) Store(ctx context.Context, record *entity.BillRecord, content []byte) (string, error) {
	hash := SanitizeName(record.ContentHash)
	if hash == "" {
		return "", fmt.Errorf("cannot archive bill: empty content hash")
	}

	folder := SanitizeName(record.Metadata.PeriodMonthYear)
	if folder == "" {
		folder = unfiledFolder
	}
	rel := path.Join(folder, hash+".pdf")

	if a.files.Exists(ctx, rel) {
		a.logger.Debug("Bill PDF already archived", zap.String("path", rel))
		return rel, nil
	}

	if err := a.files.Save(ctx, rel, content); err != nil {
		return "", fmt.Errorf("failed to archive bill: %w", err)
	}

	a.logger.Info("Bill PDF archived",
		zap.String("bill_id", record.BillID),
		zap.String("path", a.files.GetFullPath(rel)))
	return rel, nil
}

// SanitizeName returns a filesystem-safe version of name: path separators,
// parent references and anything outside [A-Za-z0-9_-] are removed
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "")
	name = strings.ReplaceAll(name, "\\", "")
	return unsafeNameChars.ReplaceAllString(name, "")
}
