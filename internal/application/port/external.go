package port

import (
	"context"

	"github.com/garyjia/billwatch/internal/domain/entity"
)

// PageTextSource extracts the text of every page of a PDF, first page first
type PageTextSource interface {
	Pages(ctx context.Context, content []byte) ([]string, error)
}

// SummaryMode selects the shape of an LLM bill summary
type SummaryMode string

const (
	// SummaryParagraph is a single free-form paragraph
	SummaryParagraph SummaryMode = "paragraph"
	// SummaryBullets follows a fixed bullet template
	SummaryBullets SummaryMode = "bullets"
)

// Summarizer produces a natural-language summary of bill text
type Summarizer interface {
	Summarize(ctx context.Context, text string, mode SummaryMode) (string, error)
}

// RecordPublisher announces stored bill records to downstream consumers
type RecordPublisher interface {
	PublishRecord(ctx context.Context, record *entity.BillRecord) error
	Close() error
}
