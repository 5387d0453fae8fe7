// Package pdf extracts per-page text from bill PDFs
package pdf

import (
	"fmt"

	"github.com/garyjia/billwatch/internal/application/port"
	"go.uber.org/zap"
)

// Supported text extraction engines
const (
	EngineFitz  = "fitz"
	EnginePlain = "plain"
)

// Config selects and bounds the text extraction engine
type Config struct {
	Engine   string
	MaxPages int
}

// NewSource returns the PageTextSource for cfg.Engine; an empty engine means
// EngineFitz
func NewSource(cfg Config, logger *zap.Logger) (port.PageTextSource, error) {
	switch cfg.Engine {
	case "", EngineFitz:
		return NewFitzSource(cfg.MaxPages, logger), nil
	case EnginePlain:
		return NewPlainSource(cfg.MaxPages, logger), nil
	default:
		return nil, fmt.Errorf("unknown pdf engine: %s", cfg.Engine)
	}
}

func pageLimit(total, maxPages int) int {
	if maxPages > 0 && total > maxPages {
		return maxPages
	}
	return total
}
