package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetadataExtractor(t *testing.T) *MetadataExtractor {
	t.Helper()
	m, err := NewMetadataExtractor(DefaultRules())
	require.NoError(t, err)
	return m
}

func TestMetadataExtractor_Period(t *testing.T) {
	m := newTestMetadataExtractor(t)

	tests := []struct {
		name     string
		lines    []string
		want     string
		wantLine int
	}{
		{
			name:     "full month and year",
			lines:    []string{"Delmarva Power", "Your electric bill - March 2024"},
			want:     "03-2024",
			wantLine: 1,
		},
		{
			name:     "full month with day",
			lines:    []string{"Bill issue date: September 12, 2023"},
			want:     "09-2023",
			wantLine: 0,
		},
		{
			name:     "abbreviated month",
			lines:    []string{"Your electric bill - Feb 2024"},
			want:     "02-2024",
			wantLine: 0,
		},
		{
			name:     "abbreviated month with period and day",
			lines:    []string{"Due Sept. 3, 2023"},
			want:     "09-2023",
			wantLine: 0,
		},
		{
			name:     "higher priority pattern wins over earlier line",
			lines:    []string{"Statement for Feb 2024", "Issued January 15, 2024"},
			want:     "01-2024",
			wantLine: 1,
		},
		{
			name:     "no date",
			lines:    []string{"Delmarva Power", "Amount due 120.00"},
			want:     "",
			wantLine: -1,
		},
		{
			name:     "no lines",
			lines:    nil,
			want:     "",
			wantLine: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			period, line := m.Period(tt.lines)
			assert.Equal(t, tt.want, period)
			assert.Equal(t, tt.wantLine, line)
		})
	}
}

func TestMetadataExtractor_Identifier(t *testing.T) {
	m := newTestMetadataExtractor(t)

	tests := []struct {
		name  string
		lines []string
		want  string
	}{
		{
			name:  "line after label",
			lines: []string{"Account number: 5502 1234 567", "", "JANE Q DOE", "12 ELM ST"},
			want:  "JANE Q DOE",
		},
		{
			name:  "value after label when next line is a billing line",
			lines: []string{"Account number: 5502 1234 567", "Bill period: Feb 10 - Mar 11"},
			want:  "5502 1234 567",
		},
		{
			name:  "uppercase line after date",
			lines: []string{"Your electric bill - March 2024", "Amount due $120.00", "JOHN SMITH", "123 MAIN ST"},
			want:  "JOHN SMITH",
		},
		{
			name:  "billing keyword lines are skipped",
			lines: []string{"March 2024", "ACCOUNT SUMMARY", "MARY JONES"},
			want:  "MARY JONES",
		},
		{
			name:  "single word is not a name",
			lines: []string{"March 2024", "DELMARVA"},
			want:  "",
		},
		{
			name:  "name outside window",
			lines: []string{"March 2024", "a", "b", "c", "d", "e", "f", "JOHN SMITH"},
			want:  "",
		},
		{
			name:  "no date and no label",
			lines: []string{"JOHN SMITH"},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, dateLine := m.Period(tt.lines)
			assert.Equal(t, tt.want, m.Identifier(tt.lines, dateLine))
		})
	}
}

func TestMetadataExtractor_Extract(t *testing.T) {
	m := newTestMetadataExtractor(t)

	meta := m.Extract([]string{"Your electric bill - March 2024", "JANE DOE"})
	assert.Equal(t, "03-2024", meta.PeriodMonthYear)
	assert.Equal(t, "JANE DOE", meta.Identifier)

	empty := m.Extract(nil)
	assert.Empty(t, empty.PeriodMonthYear)
	assert.Empty(t, empty.Identifier)
}

func TestNewMetadataExtractor_PatternValidation(t *testing.T) {
	rules := DefaultRules()

	rules.DatePatterns = []string{`(?P<month>\w+) \d{4}`}
	_, err := NewMetadataExtractor(rules)
	assert.Error(t, err)

	rules.DatePatterns = []string{`(?P<month>[`}
	_, err = NewMetadataExtractor(rules)
	assert.Error(t, err)
}
