package pdf

import (
	"context"
	"fmt"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// FitzSource reads page text with MuPDF
type FitzSource struct {
	maxPages int
	logger   *zap.Logger
}

// NewFitzSource creates a MuPDF backed source. maxPages <= 0 reads every page.
func NewFitzSource(maxPages int, logger *zap.Logger) *FitzSource {
	return &FitzSource{maxPages: maxPages, logger: logger}
}

// Pages returns the text of each page in document order
func (s *FitzSource) Pages(ctx context.Context, content []byte) ([]string, error) {
	doc, err := fitz.NewFromMemory(content)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	numPages := pageLimit(doc.NumPage(), s.maxPages)
	pages := make([]string, 0, numPages)

	for i := 0; i < numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := doc.Text(i)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from page %d: %w", i+1, err)
		}
		pages = append(pages, text)
	}

	s.logger.Debug("Extracted PDF text",
		zap.String("engine", EngineFitz),
		zap.Int("pages", len(pages)),
		zap.Int("total_pages", doc.NumPage()))

	return pages, nil
}
