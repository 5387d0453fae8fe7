package pdf

import (
	"context"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewSource(t *testing.T) {
	logger := zap.NewNop()

	src, err := NewSource(Config{}, logger)
	require.NoError(t, err)
	assert.IsType(t, &FitzSource{}, src)

	src, err = NewSource(Config{Engine: EnginePlain}, logger)
	require.NoError(t, err)
	assert.IsType(t, &PlainSource{}, src)

	_, err = NewSource(Config{Engine: "ocr"}, logger)
	assert.Error(t, err)
}

func TestSources_RejectGarbage(t *testing.T) {
	garbage := []byte("%PDF-1.4\nthis is not really a pdf")

	// MuPDF may repair a broken file into an empty document instead of failing
	pages, err := NewFitzSource(0, zap.NewNop()).Pages(context.Background(), garbage)
	if err == nil {
		assert.Empty(t, strings.TrimSpace(strings.Join(pages, "")))
	}

	_, err = NewPlainSource(0, zap.NewNop()).Pages(context.Background(), garbage)
	assert.Error(t, err)
}

func TestPageLimit(t *testing.T) {
	assert.Equal(t, 5, pageLimit(5, 0))
	assert.Equal(t, 2, pageLimit(5, 2))
	assert.Equal(t, 1, pageLimit(1, 2))
}

func glyphs(s string, x, y, size float64) []pdf.Text {
	out := make([]pdf.Text, 0, len(s))
	for _, r := range s {
		out = append(out, pdf.Text{S: string(r), X: x, Y: y, W: size * 0.5, FontSize: size})
		x += size * 0.5
	}
	return out
}

func TestGroupTextsIntoRows(t *testing.T) {
	var texts []pdf.Text
	// second row emitted first, and fragments out of order
	texts = append(texts, glyphs("9.19", 300, 700, 10)...)
	texts = append(texts, glyphs("Customer", 50, 700.5, 10)...)
	texts = append(texts, glyphs("Charge", 100, 700, 10)...)
	texts = append(texts, glyphs("Type of charge", 50, 720, 10)...)

	lines := groupTextsIntoRows(texts)

	require.Len(t, lines, 2)
	assert.Equal(t, "Type of charge", lines[0])
	assert.Equal(t, "Customer Charge 9.19", lines[1])
}

func TestGroupTextsIntoRows_Empty(t *testing.T) {
	assert.Empty(t, groupTextsIntoRows(nil))
}
