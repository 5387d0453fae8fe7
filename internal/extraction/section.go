package extraction

import (
	"fmt"
	"regexp"
	"strings"
)

// Section is a bounded run of charge-table lines on one page: lines[Start:End]
type Section struct {
	Page  int `json:"page"`
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of lines in the section
func (s Section) Len() int {
	return s.End - s.Start
}

// SectionLocator finds charge tables between a header line and a terminal
// marker, the next header, or the end of the page
type SectionLocator struct {
	phrases    []string
	qualifiers []string
	terminals  []*regexp.Regexp
}

// NewSectionLocator compiles the locator from rules
func NewSectionLocator(rules Rules) (*SectionLocator, error) {
	l := &SectionLocator{
		phrases:    lowerAll(rules.HeaderPhrases),
		qualifiers: lowerAll(rules.HeaderQualifiers),
	}
	for _, expr := range rules.TerminalPatterns {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid terminal pattern %q: %w", expr, err)
		}
		l.terminals = append(l.terminals, re)
	}
	return l, nil
}

// IsHeader reports whether line carries a charge-table header signature
func (l *SectionLocator) IsHeader(line string) bool {
	lower := strings.ToLower(line)
	return containsAny(lower, l.phrases) && containsAny(lower, l.qualifiers)
}

// IsTerminal reports whether line closes a charge table
func (l *SectionLocator) IsTerminal(line string) bool {
	for _, re := range l.terminals {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// Locate returns every section on one page. A terminal line belongs to the
// section it closes; a following header does not. Terminal markers are only
// considered on lines after the header, so a garbled extraction that puts
// both on one line still yields the table that follows.
func (l *SectionLocator) Locate(page int, lines []string) []Section {
	var sections []Section

	i := 0
	for i < len(lines) {
		if !l.IsHeader(lines[i]) {
			i++
			continue
		}

		start := i + 1
		end := len(lines)
		for j := start; j < len(lines); j++ {
			if l.IsHeader(lines[j]) {
				end = j
				break
			}
			if l.IsTerminal(lines[j]) {
				end = j + 1
				break
			}
		}

		if end > start {
			sections = append(sections, Section{Page: page, Start: start, End: end})
		}
		i = end
	}

	return sections
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
