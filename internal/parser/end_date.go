package parser

import (
	"regexp"

	"github.com/statement-renamer/backend/internal/extract"
	"github.com/statement-renamer/backend/internal/models"
)

// EndDateStrategyName is the registry name of the single-date policy.
const EndDateStrategyName = "end-date"

// endDateExpected describes the pattern for operator-facing messages.
const endDateExpected = `"Statement Period" followed by MM/DD/YYYY - MM/DD/YYYY`

// endDateRegex is case-insensitive and accepts hyphen, en-dash or em-dash.
// Separating space may be any Unicode space; extractors often emit U+00A0.
var endDateRegex = regexp.MustCompile(`(?i)Statement Period[\s\p{Zs}]+(\d{2})/(\d{2})/(\d{4})[\s\p{Zs}]*[-–—][\s\p{Zs}]*(\d{2})/(\d{2})/(\d{4})`)

// EndDateStrategy extracts only the statement period end date, from the whole document.
type EndDateStrategy struct{}

// NewEndDateStrategy creates the single-date strategy.
func NewEndDateStrategy() *EndDateStrategy {
	return &EndDateStrategy{}
}

func (s *EndDateStrategy) Name() string { return EndDateStrategyName }

func (s *EndDateStrategy) Scope() extract.Scope { return extract.WholeDocument }

func (s *EndDateStrategy) Parse(text string) (models.ExtractedFields, error) {
	m := endDateRegex.FindStringSubmatch(text)
	if m == nil {
		return models.ExtractedFields{}, &IncompleteError{
			Strategy: s.Name(),
			Missing:  []string{models.FieldDate},
			Expected: endDateExpected,
		}
	}
	return models.ExtractedFields{Date: dateFromParts(m[4], m[5], m[6])}, nil
}
