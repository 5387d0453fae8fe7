package extraction

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/garyjia/billwatch/internal/domain/entity"
)

var monthNumbers = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// minUppercaseRatio is the share of upper-case letters a line needs to be
// taken for a printed account holder name
const minUppercaseRatio = 0.8

type datePattern struct {
	re       *regexp.Regexp
	monthIdx int
	yearIdx  int
}

// MetadataExtractor reads the billing period and account holder from page 1.
// Both lookups are best effort and return "" when nothing is found.
type MetadataExtractor struct {
	dates     []datePattern
	labels    []string
	stopWords []string
	window    int
}

// NewMetadataExtractor compiles the date patterns in rules. Every pattern
// must define the named groups "month" and "year".
func NewMetadataExtractor(rules Rules) (*MetadataExtractor, error) {
	m := &MetadataExtractor{
		labels:    lowerAll(rules.IdentifierLabels),
		stopWords: lowerAll(rules.IdentifierStopWords),
		window:    rules.IdentifierWindow,
	}

	for _, expr := range rules.DatePatterns {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid date pattern %q: %w", expr, err)
		}
		p := datePattern{re: re, monthIdx: re.SubexpIndex("month"), yearIdx: re.SubexpIndex("year")}
		if p.monthIdx < 0 || p.yearIdx < 0 {
			return nil, fmt.Errorf("date pattern %q must name groups month and year", expr)
		}
		m.dates = append(m.dates, p)
	}

	return m, nil
}

// Extract returns the metadata found in the first page lines
func (m *MetadataExtractor) Extract(lines []string) entity.BillMetadata {
	period, dateLine := m.Period(lines)
	return entity.BillMetadata{
		PeriodMonthYear: period,
		Identifier:      m.Identifier(lines, dateLine),
	}
}

// Period returns the first date found as "MM-YYYY" together with the index of
// the line it was found on. Patterns are tried in priority order, each over
// all lines. Returns "", -1 when no line carries a date.
func (m *MetadataExtractor) Period(lines []string) (string, int) {
	for _, p := range m.dates {
		for i, line := range lines {
			match := p.re.FindStringSubmatch(line)
			if match == nil {
				continue
			}
			month, ok := monthNumber(match[p.monthIdx])
			if !ok {
				continue
			}
			return fmt.Sprintf("%02d-%s", month, match[p.yearIdx]), i
		}
	}
	return "", -1
}

// Identifier returns the account holder line. A labelled line wins: the line
// after the label when it is not itself a billing line, otherwise the text
// after the label. Without a label, the first mostly upper-case line with a
// space within the window after dateLine is used.
func (m *MetadataExtractor) Identifier(lines []string, dateLine int) string {
	for i, line := range lines {
		lower := strings.ToLower(line)
		for _, label := range m.labels {
			idx := strings.Index(lower, label)
			if idx < 0 {
				continue
			}
			if next := nextNonEmpty(lines, i+1); next != "" && !containsAny(strings.ToLower(next), m.stopWords) {
				return next
			}
			if value := strings.TrimSpace(line[idx+len(label):]); value != "" {
				return value
			}
		}
	}

	if dateLine < 0 {
		return ""
	}
	for j := dateLine + 1; j < len(lines) && j <= dateLine+m.window; j++ {
		if m.looksLikeName(lines[j]) {
			return strings.TrimSpace(lines[j])
		}
	}
	return ""
}

func (m *MetadataExtractor) looksLikeName(line string) bool {
	line = strings.TrimSpace(line)
	if !strings.Contains(line, " ") {
		return false
	}
	if containsAny(strings.ToLower(line), m.stopWords) {
		return false
	}

	letters, upper := 0, 0
	for _, r := range line {
		switch {
		case unicode.IsDigit(r):
			return false
		case unicode.IsLetter(r):
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	return letters >= 2 && float64(upper)/float64(letters) >= minUppercaseRatio
}

func monthNumber(name string) (int, bool) {
	if len(name) < 3 {
		return 0, false
	}
	n, ok := monthNumbers[strings.ToLower(name[:3])]
	return n, ok
}

func nextNonEmpty(lines []string, from int) string {
	for i := from; i < len(lines); i++ {
		if s := strings.TrimSpace(lines[i]); s != "" {
			return s
		}
	}
	return ""
}
