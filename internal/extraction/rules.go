// Package extraction turns per-page bill text into consolidated charges and
// bill metadata. Every heuristic it applies is driven by Rules so that the
// charge vocabulary and date formats of a given utility can be supplied as
// configuration.
package extraction

// ChargeMapping maps a case-insensitive description substring to a canonical
// charge name. Mappings are tried in order; the first containing match wins.
type ChargeMapping struct {
	Match string `mapstructure:"match" json:"match"`
	Name  string `mapstructure:"name" json:"name"`
}

// Rules holds the configurable vocabulary of the extraction pipeline
type Rules struct {
	// HeaderPhrases mark a charge-table header when one of them and one of
	// HeaderQualifiers appear on the same line
	HeaderPhrases    []string `mapstructure:"header_phrases"`
	HeaderQualifiers []string `mapstructure:"header_qualifiers"`

	// TerminalPatterns are regular expressions for the last line of a table
	TerminalPatterns []string `mapstructure:"terminal_patterns"`

	// NoiseWords discard a parsed line whose description contains one of them
	NoiseWords []string `mapstructure:"noise_words"`

	// SubheadingPhrases mark unparsed column captions inside a table. Such
	// lines are discarded instead of being joined onto the next charge line.
	SubheadingPhrases []string `mapstructure:"subheading_phrases"`

	// ChargeMap is the exact charge vocabulary, checked before tier collapsing
	ChargeMap []ChargeMapping `mapstructure:"charge_map"`

	// QualifierWords are stripped from descriptions not found in ChargeMap
	QualifierWords []string `mapstructure:"qualifier_words"`

	// DatePatterns are regular expressions with named groups "month" and
	// "year", tried in priority order against page-1 lines
	DatePatterns []string `mapstructure:"date_patterns"`

	// IdentifierLabels introduce the account holder on page 1
	IdentifierLabels []string `mapstructure:"identifier_labels"`
	// IdentifierStopWords disqualify a candidate identifier line
	IdentifierStopWords []string `mapstructure:"identifier_stop_words"`
	// IdentifierWindow is how many lines after the date line are searched
	// for an uppercase name when no label is present
	IdentifierWindow int `mapstructure:"identifier_window"`

	// MaxContinuationLines bounds how many unparsed lines are buffered and
	// joined with the next line to recover wrapped descriptions
	MaxContinuationLines int `mapstructure:"max_continuation_lines"`

	// EmitZeroAmounts keeps consolidated charges whose total is exactly zero
	EmitZeroAmounts bool `mapstructure:"emit_zero_amounts"`
}

const monthNames = `January|February|March|April|May|June|July|August|September|October|November|December`
const monthAbbrevs = `Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sept|Sep|Oct|Nov|Dec`

// DefaultRules returns the vocabulary of a Delmarva / Pepco style residential
// electric bill
func DefaultRules() Rules {
	return Rules{
		HeaderPhrases:    []string{"type of charge", "charge description"},
		HeaderQualifiers: []string{"amount", "rate"},
		TerminalPatterns: []string{
			`(?i)^\s*total\s+electric\s+(?:delivery\s+|supply\s+)?charges\b`,
		},
		NoiseWords: []string{"page", "year", "meter", "temp", "date"},
		SubheadingPhrases: []string{
			"how we calculate this charge",
			"type of charge",
			"charge description",
		},
		ChargeMap: []ChargeMapping{
			{Match: "customer charge", Name: "Customer Charge"},
			{Match: "distribution charge first", Name: "Distribution Charge First kWh"},
			{Match: "distribution charge last", Name: "Distribution Charge Last kWh"},
			{Match: "distribution charge next", Name: "Distribution Charge Next kWh"},
			{Match: "distribution charge", Name: "Distribution Charge"},
			{Match: "environmental surcharge", Name: "Environmental Surcharge"},
			{Match: "empower maryland charge", Name: "EmPOWER Maryland Charge"},
			{Match: "administrative credit", Name: "Administrative Credit"},
			{Match: "universal service program", Name: "Universal Service Program"},
			{Match: "md franchise tax", Name: "MD Franchise Tax"},
			{Match: "total electric delivery charges", Name: "Total Electric Delivery Charges"},
			{Match: "standard offer service & transmission", Name: "Standard Offer Service & Transmission"},
			{Match: "procurement cost adjustment", Name: "Procurement Cost Adjustment"},
			{Match: "total electric supply charges", Name: "Total Electric Supply Charges"},
			{Match: "total electric charges - residential service", Name: "Total Electric Charges - Residential Service"},
		},
		QualifierWords: []string{"First", "Last", "Next"},
		DatePatterns: []string{
			`(?i)\b(?P<month>` + monthNames + `)\s+(?P<day>\d{1,2}),?\s+(?P<year>\d{4})\b`,
			`(?i)\b(?P<month>` + monthNames + `)\s+(?P<year>\d{4})\b`,
			`(?i)\b(?P<month>` + monthAbbrevs + `)\.?\s+(?P<day>\d{1,2}),?\s+(?P<year>\d{4})\b`,
			`(?i)\b(?P<month>` + monthAbbrevs + `)\.?\s+(?P<year>\d{4})\b`,
		},
		IdentifierLabels:     []string{"account number:"},
		IdentifierStopWords:  []string{"account", "bill", "period", "address", "issue", "summary", "total"},
		IdentifierWindow:     5,
		MaxContinuationLines: 2,
		EmitZeroAmounts:      false,
	}
}

// WithDefaults fills every empty field of r from DefaultRules. EmitZeroAmounts
// is taken from r as-is.
func (r Rules) WithDefaults() Rules {
	d := DefaultRules()
	if len(r.HeaderPhrases) == 0 {
		r.HeaderPhrases = d.HeaderPhrases
	}
	if len(r.HeaderQualifiers) == 0 {
		r.HeaderQualifiers = d.HeaderQualifiers
	}
	if len(r.TerminalPatterns) == 0 {
		r.TerminalPatterns = d.TerminalPatterns
	}
	if len(r.NoiseWords) == 0 {
		r.NoiseWords = d.NoiseWords
	}
	if len(r.SubheadingPhrases) == 0 {
		r.SubheadingPhrases = d.SubheadingPhrases
	}
	if len(r.ChargeMap) == 0 {
		r.ChargeMap = d.ChargeMap
	}
	if len(r.QualifierWords) == 0 {
		r.QualifierWords = d.QualifierWords
	}
	if len(r.DatePatterns) == 0 {
		r.DatePatterns = d.DatePatterns
	}
	if len(r.IdentifierLabels) == 0 {
		r.IdentifierLabels = d.IdentifierLabels
	}
	if len(r.IdentifierStopWords) == 0 {
		r.IdentifierStopWords = d.IdentifierStopWords
	}
	if r.IdentifierWindow <= 0 {
		r.IdentifierWindow = d.IdentifierWindow
	}
	if r.MaxContinuationLines <= 0 {
		r.MaxContinuationLines = d.MaxContinuationLines
	}
	return r
}
