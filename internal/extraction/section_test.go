package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocator(t *testing.T) *SectionLocator {
	t.Helper()
	locator, err := NewSectionLocator(DefaultRules())
	require.NoError(t, err)
	return locator
}

func TestSectionLocator_IsHeader(t *testing.T) {
	locator := newTestLocator(t)

	tests := []struct {
		name string
		line string
		want bool
	}{
		{name: "delivery table header", line: "Type of charge How we calculate this charge Amount($)", want: true},
		{name: "rate qualifier", line: "TYPE OF CHARGE RATE", want: true},
		{name: "charge description header", line: "Charge description Rate Amount", want: true},
		{name: "phrase without qualifier", line: "Type of charge", want: false},
		{name: "qualifier without phrase", line: "Amount due", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, locator.IsHeader(tt.line))
		})
	}
}

func TestSectionLocator_IsTerminal(t *testing.T) {
	locator := newTestLocator(t)

	tests := []struct {
		line string
		want bool
	}{
		{line: "Total Electric Delivery Charges 45.37", want: true},
		{line: "Total Electric Supply Charges 61.10", want: true},
		{line: "Total Electric Charges - Residential Service 106.47", want: true},
		{line: "TOTAL ELECTRIC CHARGES 106.47", want: true},
		{line: "Customer Charge 9.19", want: false},
		{line: "Total Gas Delivery Charges 12.00", want: false},
		{line: "Amount due by April 10 57.20", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, locator.IsTerminal(tt.line))
		})
	}
}

func TestSectionLocator_Locate(t *testing.T) {
	locator := newTestLocator(t)

	t.Run("delivery total closes the section", func(t *testing.T) {
		lines := []string{
			"Your usage",
			"Type of charge How we calculate this charge Amount($)",
			"Customer Charge 9.19",
			"Total Electric Delivery Charges 45.37",
			"Previous balance 120.00",
			"Amount due by April 10 57.20",
		}

		sections := locator.Locate(1, lines)

		require.Len(t, sections, 1)
		assert.Equal(t, Section{Page: 1, Start: 2, End: 4}, sections[0])
	})

	t.Run("runs to end of page without a terminal", func(t *testing.T) {
		lines := []string{
			"Type of charge Amount",
			"Customer Charge 9.19",
			"Environmental Surcharge 0.42",
		}

		sections := locator.Locate(2, lines)

		require.Len(t, sections, 1)
		assert.Equal(t, Section{Page: 2, Start: 1, End: 3}, sections[0])
	})

	t.Run("terminal line closes and belongs to the section", func(t *testing.T) {
		lines := []string{
			"Type of charge Amount",
			"Customer Charge 9.19",
			"Total Electric Charges - Residential Service 120.00",
			"Thank you for your payment 120.00",
		}

		sections := locator.Locate(0, lines)

		require.Len(t, sections, 1)
		assert.Equal(t, Section{Page: 0, Start: 1, End: 3}, sections[0])
		assert.Equal(t, 2, sections[0].Len())
	})

	t.Run("next header starts a new section", func(t *testing.T) {
		lines := []string{
			"Type of charge Amount",
			"Customer Charge 9.19",
			"Type of charge Rate Amount",
			"Procurement Cost Adjustment 1.02",
		}

		sections := locator.Locate(0, lines)

		require.Len(t, sections, 2)
		assert.Equal(t, Section{Page: 0, Start: 1, End: 2}, sections[0])
		assert.Equal(t, Section{Page: 0, Start: 3, End: 4}, sections[1])
	})

	t.Run("terminal marker on the header line is ignored", func(t *testing.T) {
		lines := []string{
			"Total Electric Charges Type of charge Amount($)",
			"Customer Charge 9.19",
			"Total Electric Charges - Residential Service 100.00",
		}

		sections := locator.Locate(0, lines)

		require.Len(t, sections, 1)
		assert.Equal(t, Section{Page: 0, Start: 1, End: 3}, sections[0])
	})

	t.Run("no header yields no sections", func(t *testing.T) {
		sections := locator.Locate(0, []string{"Customer Charge 9.19", "Amount due 9.19"})
		assert.Empty(t, sections)
	})

	t.Run("header on last line yields no sections", func(t *testing.T) {
		sections := locator.Locate(0, []string{"Customer Charge 9.19", "Type of charge Amount"})
		assert.Empty(t, sections)
	})
}

func TestNewSectionLocator_InvalidTerminal(t *testing.T) {
	rules := DefaultRules()
	rules.TerminalPatterns = []string{"(unclosed"}

	_, err := NewSectionLocator(rules)

	assert.Error(t, err)
}
