package extraction

import (
	"fmt"
	"strings"

	"github.com/garyjia/billwatch/internal/domain/entity"
	"go.uber.org/zap"
)

// ParsedLine records how one table line was read, for diagnostics
type ParsedLine struct {
	Page    int                  `json:"page"`
	Text    string               `json:"text"`
	Outcome string               `json:"outcome"`
	Key     entity.ChargeKey     `json:"key,omitempty"`
	Charge  entity.RawChargeLine `json:"charge"`
}

// Result is the output of one extraction run
type Result struct {
	Charges  []entity.ConsolidatedCharge
	Metadata entity.BillMetadata
	Sections []Section
	Lines    []ParsedLine
}

// Extractor runs the full text pipeline: locate charge tables on every page,
// parse and normalize their lines, consolidate by key, and read metadata from
// page 1.
type Extractor struct {
	rules       Rules
	subheadings []string
	locator     *SectionLocator
	parser      *LineParser
	normalizer  *Normalizer
	metadata    *MetadataExtractor
	filter      EmissionFilter
	logger      *zap.Logger
}

// NewExtractor builds an extractor; empty rule fields fall back to DefaultRules
func NewExtractor(rules Rules, logger *zap.Logger) (*Extractor, error) {
	rules = rules.WithDefaults()

	locator, err := NewSectionLocator(rules)
	if err != nil {
		return nil, fmt.Errorf("failed to build section locator: %w", err)
	}
	metadata, err := NewMetadataExtractor(rules)
	if err != nil {
		return nil, fmt.Errorf("failed to build metadata extractor: %w", err)
	}

	subheadings := make([]string, 0, len(rules.SubheadingPhrases))
	for _, phrase := range rules.SubheadingPhrases {
		subheadings = append(subheadings, strings.ToLower(phrase))
	}

	return &Extractor{
		rules:       rules,
		subheadings: subheadings,
		locator:     locator,
		parser:      NewLineParser(nil, rules.NoiseWords),
		normalizer:  NewNormalizer(rules),
		metadata:    metadata,
		filter:      FilterFor(rules),
		logger:      logger,
	}, nil
}

// Normalizer exposes the description normalizer in use
func (e *Extractor) Normalizer() *Normalizer {
	return e.normalizer
}

// Extract runs the pipeline over page texts, first page first. It never
// fails: missing tables or metadata leave the corresponding fields empty.
func (e *Extractor) Extract(pages []string) *Result {
	result := &Result{}
	consolidator := NewConsolidator()

	for page, text := range pages {
		lines := SplitLines(text)

		if page == 0 {
			result.Metadata = e.metadata.Extract(lines)
		}

		sections := e.locator.Locate(page, lines)
		for _, section := range sections {
			e.parseSection(section, lines[section.Start:section.End], consolidator, result)
		}
		result.Sections = append(result.Sections, sections...)
	}

	result.Charges = consolidator.Charges(e.filter)

	e.logger.Info("Extracted bill charges",
		zap.Int("pages", len(pages)),
		zap.Int("sections", len(result.Sections)),
		zap.Int("charge_keys", consolidator.Len()),
		zap.Int("emitted_charges", len(result.Charges)),
		zap.Bool("period_found", result.Metadata.PeriodMonthYear != ""),
		zap.Bool("identifier_found", result.Metadata.Identifier != ""))

	if len(result.Sections) == 0 {
		e.logger.Warn("No charge table found in document")
	}

	return result
}

// parseSection reads one table. A line that does not parse is buffered and
// joined with the following line, which recovers descriptions that wrap onto
// a second line; at most MaxContinuationLines are kept. Unparsed subheadings
// are never buffered.
func (e *Extractor) parseSection(section Section, lines []string, consolidator *Consolidator, result *Result) {
	var pending []string

	record := func(text string, charge entity.RawChargeLine, outcome LineOutcome) {
		parsed := ParsedLine{Page: section.Page, Text: text, Outcome: outcome.String(), Charge: charge}
		if outcome == LineMatched {
			parsed.Key = e.normalizer.Normalize(charge.Description)
			consolidator.Add(parsed.Key, charge)
		}
		result.Lines = append(result.Lines, parsed)
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if len(pending) > 0 {
			joined := strings.Join(pending, " ") + " " + line
			if charge, outcome := e.parser.Parse(joined); outcome == LineMatched {
				record(joined, charge, outcome)
				pending = nil
				continue
			}
		}

		charge, outcome := e.parser.Parse(line)
		switch outcome {
		case LineMatched:
			record(line, charge, outcome)
			pending = nil
		case LineNoise:
			e.logger.Debug("Discarded noise line", zap.String("line", line))
			record(line, charge, outcome)
			pending = nil
		default:
			if containsAny(strings.ToLower(line), e.subheadings) {
				e.logger.Debug("Discarded table subheading", zap.String("line", line))
				record(line, entity.RawChargeLine{}, LineNoise)
				continue
			}
			pending = append(pending, line)
			if len(pending) > e.rules.MaxContinuationLines {
				dropped := pending[0]
				pending = pending[1:]
				record(dropped, entity.RawChargeLine{}, LineNoMatch)
			}
		}
	}

	for _, line := range pending {
		e.logger.Debug("Could not parse line", zap.String("line", line))
		record(line, entity.RawChargeLine{}, LineNoMatch)
	}
}

// SplitLines splits page text into trimmed lines, keeping blank lines so that
// indices stay aligned with the source text
func SplitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = strings.TrimSpace(l)
	}
	return lines
}
