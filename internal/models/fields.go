package models

import "fmt"

// Field names used when reporting what a parse could not find.
const (
	FieldInvestorName = "investorName"
	FieldInvestorID   = "investorId"
	FieldDate         = "date"
	FieldDocType      = "docType"
)

// UnknownDocType is the code used when no mapped keyword occurs in the text.
const UnknownDocType = "Unknown"

// StatementDate is a calendar date captured from a "Statement Period" range.
type StatementDate struct {
	Year  int
	Month int
	Day   int
}

// ISO renders YYYY-MM-DD.
func (d StatementDate) ISO() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Spaced renders YYYY MM DD with zero-padded month and day.
func (d StatementDate) Spaced() string {
	return fmt.Sprintf("%04d %02d %02d", d.Year, d.Month, d.Day)
}

func (d StatementDate) String() string {
	return d.ISO()
}

// MarshalText encodes the date as YYYY-MM-DD.
func (d StatementDate) MarshalText() ([]byte, error) {
	return []byte(d.ISO()), nil
}

// UnmarshalText accepts YYYY-MM-DD. The calendar is not checked, so any date
// captured from a statement survives a round trip.
func (d *StatementDate) UnmarshalText(b []byte) error {
	var y, m, day int
	if n, err := fmt.Sscanf(string(b), "%4d-%2d-%2d", &y, &m, &day); err != nil || n != 3 || len(b) != 10 {
		return fmt.Errorf("invalid statement date %q", string(b))
	}
	*d = StatementDate{Year: y, Month: m, Day: day}
	return nil
}

// ExtractedFields holds whatever a parse strategy managed to find.
// Every field is independently optional; an empty string means absent.
type ExtractedFields struct {
	InvestorName string         `json:"investorName,omitempty" yaml:"investorName,omitempty"`
	InvestorID   string         `json:"investorId,omitempty" yaml:"investorId,omitempty"`
	Date         *StatementDate `json:"date,omitempty" yaml:"date,omitempty"`
	DocType      string         `json:"docType,omitempty" yaml:"docType,omitempty"`
}

// Missing lists the fields required for a full statement name that are absent.
func (f ExtractedFields) Missing() []string {
	var missing []string
	if f.InvestorName == "" {
		missing = append(missing, FieldInvestorName)
	}
	if f.InvestorID == "" {
		missing = append(missing, FieldInvestorID)
	}
	if f.Date == nil {
		missing = append(missing, FieldDate)
	}
	if f.DocType == "" {
		missing = append(missing, FieldDocType)
	}
	return missing
}

// Complete reports whether name, ID, date and document type are all present.
func (f ExtractedFields) Complete() bool {
	return len(f.Missing()) == 0
}
