package extraction

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/garyjia/billwatch/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// LineOutcome classifies the result of parsing one table line
type LineOutcome int

const (
	// LineNoMatch means no pattern matched; the line may be the first half of
	// a wrapped description
	LineNoMatch LineOutcome = iota
	// LineMatched means a charge was parsed
	LineMatched
	// LineNoise means a charge-shaped line was discarded by the noise filter
	LineNoise
)

func (o LineOutcome) String() string {
	switch o {
	case LineMatched:
		return "matched"
	case LineNoise:
		return "noise"
	default:
		return "no_match"
	}
}

// LinePattern is one alternative of the charge line grammar
type LinePattern struct {
	Name  string
	Match func(line string) (entity.RawChargeLine, bool)
}

const amountExpr = `[-\x{2212}\x{2013}\x{2014}]?\$?\d[\d,]*(?:\.\d+)?[-\x{2212}\x{2013}\x{2014}]?`
const rateExpr = `[-\x{2212}]?\d*\.?\d+[-\x{2212}\x{2013}\x{2014}]?`

var (
	unitRatePattern   = regexp.MustCompile(`(?i)^(?P<desc>.+?)\s+X\s+\$?(?P<rate>` + rateExpr + `)\s+per\s+(?:kWh|kW)\s+(?P<amount>` + amountExpr + `)$`)
	dollarRatePattern = regexp.MustCompile(`^(?P<desc>.+?)\s+\$(?P<rate>` + rateExpr + `)\s+(?P<amount>` + amountExpr + `)$`)
	bareAmountPattern = regexp.MustCompile(`^(?P<desc>.+?)\s+(?P<amount>` + amountExpr + `)$`)

	minusGlyphs = strings.NewReplacer("−", "-", "–", "-", "—", "-")
)

// DefaultLinePatterns returns the charge line grammar, most specific first:
// "<desc> X $<rate> per kWh <amount>", "<desc> $<rate> <amount>", "<desc> <amount>"
func DefaultLinePatterns() []LinePattern {
	return []LinePattern{
		{Name: "unit_rate", Match: regexMatcher(unitRatePattern)},
		{Name: "dollar_rate", Match: regexMatcher(dollarRatePattern)},
		{Name: "bare_amount", Match: regexMatcher(bareAmountPattern)},
	}
}

func regexMatcher(re *regexp.Regexp) func(string) (entity.RawChargeLine, bool) {
	descIdx := re.SubexpIndex("desc")
	rateIdx := re.SubexpIndex("rate")
	amountIdx := re.SubexpIndex("amount")

	return func(line string) (entity.RawChargeLine, bool) {
		m := re.FindStringSubmatch(line)
		if m == nil {
			return entity.RawChargeLine{}, false
		}

		desc := strings.TrimSpace(m[descIdx])
		if !hasLetter(desc) {
			return entity.RawChargeLine{}, false
		}

		amount, err := ParseAmount(m[amountIdx])
		if err != nil {
			return entity.RawChargeLine{}, false
		}

		rate := ""
		if rateIdx >= 0 {
			rate = normalizeSign(m[rateIdx])
		}

		return entity.RawChargeLine{Description: desc, Rate: rate, Amount: amount}, true
	}
}

// ParseAmount parses a bill amount: thousands separators and "$" are removed,
// Unicode minus and dash glyphs become "-", and a trailing minus is read as a
// leading one ("12.50-" is -12.50).
func ParseAmount(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(normalizeSign(raw))
}

func normalizeSign(raw string) string {
	s := minusGlyphs.Replace(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "$", "")
	if strings.HasSuffix(s, "-") {
		s = strings.TrimRight(s, "-")
		if !strings.HasPrefix(s, "-") {
			s = "-" + s
		}
	}
	return s
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// LineParser tries each pattern in order and applies the noise filter
type LineParser struct {
	patterns   []LinePattern
	noiseWords []string
}

// NewLineParser creates a parser over the given patterns; nil patterns means
// DefaultLinePatterns
func NewLineParser(patterns []LinePattern, noiseWords []string) *LineParser {
	if patterns == nil {
		patterns = DefaultLinePatterns()
	}
	return &LineParser{
		patterns:   patterns,
		noiseWords: lowerAll(noiseWords),
	}
}

// Parse parses one line. The first matching pattern wins. A match whose
// description contains a noise word is reported as LineNoise: this is a
// heuristic that drops meter readings, page footers and similar rows that
// happen to end in a number, and it can also drop a real charge whose name
// contains one of the words.
func (p *LineParser) Parse(line string) (entity.RawChargeLine, LineOutcome) {
	line = strings.TrimSpace(line)
	if line == "" {
		return entity.RawChargeLine{}, LineNoMatch
	}

	for _, pattern := range p.patterns {
		charge, ok := pattern.Match(line)
		if !ok {
			continue
		}
		if containsAny(strings.ToLower(charge.Description), p.noiseWords) {
			return charge, LineNoise
		}
		return charge, LineMatched
	}

	return entity.RawChargeLine{}, LineNoMatch
}
