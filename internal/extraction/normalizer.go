package extraction

import (
	"regexp"
	"strings"

	"github.com/garyjia/billwatch/internal/domain/entity"
)

var (
	tierUnitPattern   = regexp.MustCompile(`(?i)\b\d[\d,]*\s*(kWh|kW)\b`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Normalizer maps raw charge descriptions to canonical charge keys.
//
// The charge vocabulary is checked first because tier collapsing alone cannot
// tell "Distribution Charge First 500 kWh" from "Distribution Charge Last
// 1980 kWh"; only descriptions outside the vocabulary fall through to the
// generic rule, which drops First/Last/Next and the tier count.
type Normalizer struct {
	mappings  []ChargeMapping
	qualifier *regexp.Regexp
}

// NewNormalizer creates a normalizer from rules
func NewNormalizer(rules Rules) *Normalizer {
	n := &Normalizer{}
	for _, m := range rules.ChargeMap {
		match := strings.ToLower(strings.TrimSpace(m.Match))
		if match == "" || strings.TrimSpace(m.Name) == "" {
			continue
		}
		n.mappings = append(n.mappings, ChargeMapping{Match: match, Name: strings.TrimSpace(m.Name)})
	}

	var words []string
	for _, w := range rules.QualifierWords {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, regexp.QuoteMeta(w))
		}
	}
	if len(words) > 0 {
		n.qualifier = regexp.MustCompile(`(?i)\b(?:` + strings.Join(words, "|") + `)\b`)
	}
	return n
}

// Normalize returns the canonical key for description. It never fails: text
// outside the vocabulary becomes its own cleaned-up key. Normalize is
// idempotent.
func (n *Normalizer) Normalize(description string) entity.ChargeKey {
	lower := strings.ToLower(description)
	for _, m := range n.mappings {
		if strings.Contains(lower, m.Match) {
			return entity.ChargeKey(m.Name)
		}
	}

	return entity.ChargeKey(n.collapse(description))
}

// collapse strips tier qualifiers and replaces "<count> kWh" with " kWh"
func (n *Normalizer) collapse(description string) string {
	cleaned := tierUnitPattern.ReplaceAllStringFunc(description, func(token string) string {
		if strings.HasSuffix(strings.ToLower(token), "kwh") {
			return " kWh"
		}
		return " kW"
	})
	if n.qualifier != nil {
		cleaned = n.qualifier.ReplaceAllString(cleaned, "")
	}
	cleaned = strings.TrimSpace(whitespacePattern.ReplaceAllString(cleaned, " "))

	if cleaned == "" {
		return strings.TrimSpace(whitespacePattern.ReplaceAllString(description, " "))
	}
	return cleaned
}
