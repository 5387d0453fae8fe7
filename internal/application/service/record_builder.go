package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/garyjia/billwatch/internal/application/port"
	"github.com/garyjia/billwatch/internal/domain/entity"
	"github.com/garyjia/billwatch/internal/extraction"
	"github.com/garyjia/billwatch/pkg/utils"
	"github.com/google/uuid"
)

// ContentHash returns the hex SHA-256 of the uploaded bytes. Re-uploading the
// same file always yields the same hash.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// UserIDFor derives the pseudonymous user id from the account identifier.
// Case and surrounding whitespace do not change the result. ok is false when
// the identifier is blank.
func UserIDFor(identifier string) (id string, ok bool) {
	normalized := strings.ToUpper(strings.TrimSpace(identifier))
	if normalized == "" {
		return "", false
	}
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:]), true
}

// BillRecordBuilder assembles the output record of one upload
type BillRecordBuilder struct {
	lookup port.BillIDLookup
	newID  func() string
}

// NewBillRecordBuilder creates a builder. lookup may be nil, in which case
// every document gets a fresh bill id.
func NewBillRecordBuilder(lookup port.BillIDLookup) *BillRecordBuilder {
	return &BillRecordBuilder{
		lookup: lookup,
		newID:  func() string { return uuid.New().String() },
	}
}

// Build creates the record for a document with the given content hash. The
// bill id of an earlier upload of the same document is reused; a document
// without an identifier gets a random user id.
func (b *BillRecordBuilder) Build(ctx context.Context, contentHash string, result *extraction.Result) (*entity.BillRecord, error) {
	billID := ""
	if b.lookup != nil {
		existing, found, err := b.lookup.BillIDForHash(ctx, contentHash)
		if err != nil {
			return nil, fmt.Errorf("failed to look up bill id: %w", err)
		}
		if found {
			billID = existing
		}
	}
	if billID == "" {
		billID = b.newID()
	}

	metadata := result.Metadata
	metadata.Identifier = utils.SanitizeString(metadata.Identifier)

	userID, ok := UserIDFor(metadata.Identifier)
	if !ok {
		userID = b.newID()
	}

	return &entity.BillRecord{
		UserID:      userID,
		BillID:      billID,
		ContentHash: contentHash,
		Metadata:    metadata,
		Charges:     result.Charges,
	}, nil
}

// sheetBillIDLookup resolves bill ids from the rows already in the sheet
type sheetBillIDLookup struct {
	sheet port.BillSheet
}

// NewSheetBillIDLookup returns a BillIDLookup backed by sheet
func NewSheetBillIDLookup(sheet port.BillSheet) port.BillIDLookup {
	return &sheetBillIDLookup{sheet: sheet}
}

func (l *sheetBillIDLookup) BillIDForHash(ctx context.Context, contentHash string) (string, bool, error) {
	row, err := l.sheet.FindByContentHash(ctx, contentHash)
	if err != nil {
		return "", false, err
	}
	if row == nil || row.Get(entity.ColumnBillID) == "" {
		return "", false, nil
	}
	return row.Get(entity.ColumnBillID), true, nil
}
