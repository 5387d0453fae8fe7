package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/garyjia/billwatch/internal/application/port"
	"github.com/garyjia/billwatch/internal/domain/entity"
	"github.com/garyjia/billwatch/internal/extraction"
	"github.com/garyjia/billwatch/pkg/utils"
	"go.uber.org/zap"
)

// BillPreview is the result of running the pipeline without storing anything
type BillPreview struct {
	Record    *entity.BillRecord      `json:"record"`
	Row       map[string]string       `json:"row"`
	Columns   []string                `json:"columns"`
	Duplicate bool                    `json:"duplicate"`
	Lines     []extraction.ParsedLine `json:"lines"`
	Sections  []extraction.Section    `json:"sections"`
}

// BillService processes uploaded bill PDFs
type BillService interface {
	// Submit extracts, records and archives one bill
	Submit(ctx context.Context, content []byte) (*entity.BillRecord, error)
	// Preview extracts one bill without recording it
	Preview(ctx context.Context, content []byte) (*BillPreview, error)
	// Export renders every recorded bill
	Export(ctx context.Context) ([]byte, string, error)
}

// BillServiceConfig holds the limits applied to uploads
type BillServiceConfig struct {
	MaxFileSize int64
}

// BillServiceDeps groups the collaborators of the bill service. Archive and
// Publisher are optional.
type BillServiceDeps struct {
	Source    port.PageTextSource
	Extractor *extraction.Extractor
	Sheet     port.BillSheet
	Exporter  port.SheetExporter
	Archive   port.BillArchive
	Publisher port.RecordPublisher
}

type billServiceImpl struct {
	cfg       BillServiceConfig
	source    port.PageTextSource
	extractor *extraction.Extractor
	builder   *BillRecordBuilder
	sheet     port.BillSheet
	exporter  port.SheetExporter
	archive   port.BillArchive
	publisher port.RecordPublisher
	logger    *zap.Logger
}

// NewBillService creates a new BillService
func NewBillService(cfg BillServiceConfig, deps BillServiceDeps, logger *zap.Logger) BillService {
	return &billServiceImpl{
		cfg:       cfg,
		source:    deps.Source,
		extractor: deps.Extractor,
		builder:   NewBillRecordBuilder(NewSheetBillIDLookup(deps.Sheet)),
		sheet:     deps.Sheet,
		exporter:  deps.Exporter,
		archive:   deps.Archive,
		publisher: deps.Publisher,
		logger:    logger,
	}
}

// Submit runs the full pipeline and appends the record to the sheet.
// Duplicate detection reads the sheet before writing, so two identical
// uploads racing each other may both be recorded.
func (s *billServiceImpl) Submit(ctx context.Context, content []byte) (*entity.BillRecord, error) {
	if err := utils.ValidatePDF(content, s.cfg.MaxFileSize); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	contentHash := ContentHash(content)

	existing, err := s.sheet.FindByContentHash(ctx, contentHash)
	if err != nil {
		s.logger.Error("Failed to check for duplicate bill",
			zap.String("content_hash", contentHash),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if existing != nil {
		s.logger.Info("Duplicate bill rejected",
			zap.String("content_hash", contentHash),
			zap.String("bill_id", existing.Get(entity.ColumnBillID)))
		return nil, fmt.Errorf("%w: bill_id %s", ErrDuplicateBill, existing.Get(entity.ColumnBillID))
	}

	record, result, err := s.process(ctx, content, contentHash)
	if err != nil {
		return nil, err
	}

	row := record.ToSheetRow()
	if err := s.sheet.AppendRow(ctx, row); err != nil {
		s.logger.Error("Failed to append bill row",
			zap.String("bill_id", record.BillID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	s.logger.Info("Bill recorded",
		zap.String("bill_id", record.BillID),
		zap.String("period", record.Metadata.PeriodMonthYear),
		zap.Int("charges", len(record.Charges)),
		zap.Int("sections", len(result.Sections)))

	if s.archive != nil {
		path, err := s.archive.Store(ctx, record, content)
		if err != nil {
			s.logger.Error("Failed to archive bill PDF",
				zap.String("bill_id", record.BillID),
				zap.Error(err))
		} else {
			s.logger.Debug("Bill PDF archived", zap.String("path", path))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishRecord(ctx, record); err != nil {
			s.logger.Error("Failed to publish bill record",
				zap.String("bill_id", record.BillID),
				zap.Error(err))
		}
	}

	return record, nil
}

// Preview runs the pipeline without touching the sheet beyond reads
func (s *billServiceImpl) Preview(ctx context.Context, content []byte) (*BillPreview, error) {
	if err := utils.ValidatePDF(content, s.cfg.MaxFileSize); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	contentHash := ContentHash(content)

	existing, err := s.sheet.FindByContentHash(ctx, contentHash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	record, result, err := s.process(ctx, content, contentHash)
	if err != nil {
		return nil, err
	}

	row := record.ToSheetRow()
	return &BillPreview{
		Record:    record,
		Row:       row.Values,
		Columns:   row.Columns,
		Duplicate: existing != nil,
		Lines:     result.Lines,
		Sections:  result.Sections,
	}, nil
}

// Export renders all stored rows with the configured exporter
func (s *billServiceImpl) Export(ctx context.Context) ([]byte, string, error) {
	headers, err := s.sheet.Headers(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	rows, err := s.sheet.Rows(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	data, err := s.exporter.Export(headers, rows)
	if err != nil {
		return nil, "", fmt.Errorf("failed to export bills: %w", err)
	}

	s.logger.Info("Bills exported", zap.Int("rows", len(rows)), zap.Int("columns", len(headers)))
	return data, s.exporter.ContentType(), nil
}

func (s *billServiceImpl) process(ctx context.Context, content []byte, contentHash string) (*entity.BillRecord, *extraction.Result, error) {
	pages, err := s.source.Pages(ctx, content)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	result := s.extractor.Extract(pages)

	record, err := s.builder.Build(ctx, contentHash, result)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	return record, result, nil
}
