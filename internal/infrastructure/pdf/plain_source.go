package pdf

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// rowTolerance is the largest Y distance between fragments of one text row
const rowTolerance = 2.0

// PlainSource reads page text with a pure Go PDF parser, rebuilding lines
// from positioned text fragments. It needs no cgo.
type PlainSource struct {
	maxPages int
	logger   *zap.Logger
}

// NewPlainSource creates a pure Go source. maxPages <= 0 reads every page.
func NewPlainSource(maxPages int, logger *zap.Logger) *PlainSource {
	return &PlainSource{maxPages: maxPages, logger: logger}
}

// Pages returns the text of each page in document order
func (s *PlainSource) Pages(ctx context.Context, content []byte) (pages []string, err error) {
	// The parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("failed to parse PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	numPages := pageLimit(reader.NumPage(), s.maxPages)
	pages = make([]string, 0, numPages)

	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, strings.Join(groupTextsIntoRows(page.Content().Text), "\n"))
	}

	s.logger.Debug("Extracted PDF text",
		zap.String("engine", EnginePlain),
		zap.Int("pages", len(pages)),
		zap.Int("total_pages", reader.NumPage()))

	return pages, nil
}

type textRow struct {
	y         float64
	fragments []pdf.Text
}

// groupTextsIntoRows clusters fragments by baseline and returns one string
// per row, top of the page first
func groupTextsIntoRows(texts []pdf.Text) []string {
	var rows []textRow

	for _, t := range texts {
		if strings.TrimSpace(t.S) == "" && t.S != " " {
			continue
		}

		placed := false
		for i := range rows {
			if math.Abs(rows[i].y-t.Y) < rowTolerance {
				rows[i].fragments = append(rows[i].fragments, t)
				placed = true
				break
			}
		}
		if !placed {
			rows = append(rows, textRow{y: t.Y, fragments: []pdf.Text{t}})
		}
	}

	// PDF user space grows upwards
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		if line := joinFragments(row.fragments); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// joinFragments orders fragments left to right and inserts a space where the
// horizontal gap is wider than a fraction of the font size
func joinFragments(fragments []pdf.Text) string {
	sort.SliceStable(fragments, func(i, j int) bool { return fragments[i].X < fragments[j].X })

	var b strings.Builder
	prevEnd := math.Inf(-1)
	for _, f := range fragments {
		gap := f.X - prevEnd
		threshold := 0.2 * f.FontSize
		if threshold <= 0 {
			threshold = 1
		}
		if b.Len() > 0 && gap > threshold {
			b.WriteByte(' ')
		}
		b.WriteString(f.S)
		prevEnd = f.X + f.W
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
