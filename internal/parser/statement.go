package parser

import (
	"regexp"
	"strings"

	"github.com/statement-renamer/backend/internal/extract"
	"github.com/statement-renamer/backend/internal/models"
)

// StatementStrategyName is the registry name of the full statement policy.
const StatementStrategyName = "statement"

var (
	// investorRegex matches "John Q. Smith i48213". The name run stays on one line;
	// the ID is "i" plus its digits, whatever follows them.
	investorRegex = regexp.MustCompile(`([A-Za-z][A-Za-z. ]*)[\s\p{Zs}]+(i\d+)`)

	// statementPeriodRegex captures the end date of "Statement Period 01/01/2024 – 03/31/2024".
	statementPeriodRegex = regexp.MustCompile(`Statement Period[\s\p{Zs}]+\d{2}/\d{2}/\d{4}[\s\p{Zs}]*[–-][\s\p{Zs}]*(\d{2})/(\d{2})/(\d{4})`)
)

// StatementStrategy extracts investor name, investor ID, statement end date and
// document type from the first page of a statement.
type StatementStrategy struct {
	docTypes *DocTypeMapping
}

// NewStatementStrategy creates the full statement strategy. A nil mapping uses the defaults.
func NewStatementStrategy(docTypes *DocTypeMapping) *StatementStrategy {
	if docTypes == nil {
		docTypes = DefaultDocTypeMapping()
	}
	return &StatementStrategy{docTypes: docTypes}
}

func (s *StatementStrategy) Name() string { return StatementStrategyName }

func (s *StatementStrategy) Scope() extract.Scope { return extract.FirstPage }

// Parse never fails hard: missing fields come back as an *IncompleteError
// alongside the fields that were found.
func (s *StatementStrategy) Parse(text string) (models.ExtractedFields, error) {
	var fields models.ExtractedFields

	if m := investorRegex.FindStringSubmatch(text); m != nil {
		fields.InvestorName = strings.TrimSpace(m[1])
		fields.InvestorID = m[2]
	}

	if m := statementPeriodRegex.FindStringSubmatch(text); m != nil {
		fields.Date = dateFromParts(m[1], m[2], m[3])
	}

	fields.DocType = s.docTypes.Lookup(text)

	if missing := fields.Missing(); len(missing) > 0 {
		return fields, &IncompleteError{Strategy: s.Name(), Missing: missing}
	}
	return fields, nil
}
