package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/garyjia/billwatch/internal/application/port"
	"github.com/garyjia/billwatch/pkg/utils"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const ckSummary = "summary:%s:%s"

// SummaryService produces LLM summaries of uploaded bills
type SummaryService interface {
	Summarize(ctx context.Context, content []byte, mode port.SummaryMode) (string, error)
}

// SummaryServiceConfig configures summary caching and input limits
type SummaryServiceConfig struct {
	MaxFileSize  int64
	MaxTextChars int
	CacheTTL     time.Duration
}

type summaryServiceImpl struct {
	cfg        SummaryServiceConfig
	source     port.PageTextSource
	summarizer port.Summarizer
	cache      *cache.Cache
	logger     *zap.Logger
}

// NewSummaryService creates a new SummaryService. A nil summarizer disables
// summaries; every call then returns ErrSummaryDisabled.
func NewSummaryService(cfg SummaryServiceConfig, source port.PageTextSource, summarizer port.Summarizer, logger *zap.Logger) SummaryService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	return &summaryServiceImpl{
		cfg:        cfg,
		source:     source,
		summarizer: summarizer,
		cache:      cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		logger:     logger,
	}
}

// Summarize returns the summary of a bill PDF. Results are cached per
// document content and mode.
func (s *summaryServiceImpl) Summarize(ctx context.Context, content []byte, mode port.SummaryMode) (string, error) {
	if s.summarizer == nil {
		return "", ErrSummaryDisabled
	}
	if err := utils.ValidatePDF(content, s.cfg.MaxFileSize); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if mode != port.SummaryBullets {
		mode = port.SummaryParagraph
	}

	cacheKey := fmt.Sprintf(ckSummary, ContentHash(content), mode)
	if cached, found := s.cache.Get(cacheKey); found {
		s.logger.Debug("Cache hit for bill summary", zap.String("mode", string(mode)))
		return cached.(string), nil
	}

	pages, err := s.source.Pages(ctx, content)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	text := strings.TrimSpace(strings.Join(pages, "\n\n"))
	if text == "" {
		return "", fmt.Errorf("%w: document has no text", ErrInvalidDocument)
	}
	if s.cfg.MaxTextChars > 0 && len(text) > s.cfg.MaxTextChars {
		text = truncateUTF8(text, s.cfg.MaxTextChars)
	}

	summary, err := s.summarizer.Summarize(ctx, text, mode)
	if err != nil {
		s.logger.Error("Failed to summarize bill", zap.String("mode", string(mode)), zap.Error(err))
		return "", fmt.Errorf("failed to summarize bill: %w", err)
	}

	s.cache.Set(cacheKey, summary, cache.DefaultExpiration)
	s.logger.Info("Bill summarized", zap.String("mode", string(mode)), zap.Int("text_chars", len(text)))
	return summary, nil
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune
func truncateUTF8(s string, n int) string {
	for n > 0 && n < len(s) && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
