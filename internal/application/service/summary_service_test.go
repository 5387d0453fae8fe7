package service

import (
	"context"
	"errors"
	"testing"

	"github.com/garyjia/billwatch/internal/application/port"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSummaryService_Disabled(t *testing.T) {
	svc := NewSummaryService(SummaryServiceConfig{}, &mockPageSource{pages: billPages}, nil, zap.NewNop())

	_, err := svc.Summarize(context.Background(), pdfBytes("x"), port.SummaryParagraph)

	assert.ErrorIs(t, err, ErrSummaryDisabled)
}

func TestSummaryService_CachesPerDocumentAndMode(t *testing.T) {
	source := &mockPageSource{pages: billPages}
	summarizer := &mockSummarizer{}
	svc := NewSummaryService(SummaryServiceConfig{}, source, summarizer, zap.NewNop())
	content := pdfBytes("march")

	first, err := svc.Summarize(context.Background(), content, port.SummaryParagraph)
	require.NoError(t, err)
	second, err := svc.Summarize(context.Background(), content, port.SummaryParagraph)
	require.NoError(t, err)
	bullets, err := svc.Summarize(context.Background(), content, port.SummaryBullets)
	require.NoError(t, err)

	assert.Equal(t, "summary:paragraph", first)
	assert.Equal(t, first, second)
	assert.Equal(t, "summary:bullets", bullets)
	assert.Equal(t, []port.SummaryMode{port.SummaryParagraph, port.SummaryBullets}, summarizer.calls)
	assert.Contains(t, summarizer.texts[0], "Customer Charge 9.19")
}

func TestSummaryService_UnknownModeFallsBackToParagraph(t *testing.T) {
	summarizer := &mockSummarizer{}
	svc := NewSummaryService(SummaryServiceConfig{}, &mockPageSource{pages: billPages}, summarizer, zap.NewNop())

	summary, err := svc.Summarize(context.Background(), pdfBytes("x"), "haiku")

	require.NoError(t, err)
	assert.Equal(t, "summary:paragraph", summary)
}

func TestSummaryService_Errors(t *testing.T) {
	t.Run("invalid document", func(t *testing.T) {
		svc := NewSummaryService(SummaryServiceConfig{}, &mockPageSource{}, &mockSummarizer{}, zap.NewNop())
		_, err := svc.Summarize(context.Background(), []byte("nope"), port.SummaryParagraph)
		assert.ErrorIs(t, err, ErrInvalidDocument)
	})

	t.Run("no text", func(t *testing.T) {
		svc := NewSummaryService(SummaryServiceConfig{}, &mockPageSource{pages: []string{" ", ""}}, &mockSummarizer{}, zap.NewNop())
		_, err := svc.Summarize(context.Background(), pdfBytes("x"), port.SummaryParagraph)
		assert.ErrorIs(t, err, ErrInvalidDocument)
	})

	t.Run("summarizer failure is not cached", func(t *testing.T) {
		summarizer := &mockSummarizer{err: errors.New("rate limited")}
		svc := NewSummaryService(SummaryServiceConfig{}, &mockPageSource{pages: billPages}, summarizer, zap.NewNop())

		_, err := svc.Summarize(context.Background(), pdfBytes("x"), port.SummaryParagraph)
		assert.ErrorContains(t, err, "rate limited")

		summarizer.err = nil
		summary, err := svc.Summarize(context.Background(), pdfBytes("x"), port.SummaryParagraph)
		require.NoError(t, err)
		assert.Equal(t, "summary:paragraph", summary)
	})
}

func TestSummaryService_TruncatesText(t *testing.T) {
	summarizer := &mockSummarizer{}
	svc := NewSummaryService(SummaryServiceConfig{MaxTextChars: 10}, &mockPageSource{pages: billPages}, summarizer, zap.NewNop())

	_, err := svc.Summarize(context.Background(), pdfBytes("x"), port.SummaryParagraph)

	require.NoError(t, err)
	assert.Equal(t, "Delmarva P", summarizer.texts[0])
}

func TestTruncateUTF8(t *testing.T) {
	assert.Equal(t, "ab", truncateUTF8("ab−c", 3))
	assert.Equal(t, "ab−", truncateUTF8("ab−c", 5))
	assert.Equal(t, "abc", truncateUTF8("abc", 10))
}
