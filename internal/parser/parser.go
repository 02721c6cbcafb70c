// Package parser pulls statement fields out of extracted PDF text.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/statement-renamer/backend/internal/extract"
	"github.com/statement-renamer/backend/internal/models"
)

// Strategy defines one field extraction policy.
type Strategy interface {
	// Name returns the unique name of the strategy.
	Name() string
	// Scope returns how much of the document the strategy needs.
	Scope() extract.Scope
	// Parse extracts fields from text. A non-nil *IncompleteError means some
	// required field was not found; the returned fields hold whatever was.
	Parse(text string) (models.ExtractedFields, error)
}

// ErrIncomplete matches any *IncompleteError via errors.Is.
var ErrIncomplete = errors.New("required fields not found")

// IncompleteError reports which fields a strategy could not locate.
type IncompleteError struct {
	Strategy string
	Missing  []string
	Expected string // human readable description of the pattern that was looked for
}

func (e *IncompleteError) Error() string {
	msg := fmt.Sprintf("%s: missing %s", e.Strategy, strings.Join(e.Missing, ", "))
	if e.Expected != "" {
		msg += " (expected " + e.Expected + ")"
	}
	return msg
}

// Is lets errors.Is(err, ErrIncomplete) succeed.
func (e *IncompleteError) Is(target error) bool {
	return target == ErrIncomplete
}

// dateFromParts builds a StatementDate from regex captures already known to be digits.
func dateFromParts(month, day, year string) *models.StatementDate {
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	y, _ := strconv.Atoi(year)
	return &models.StatementDate{Year: y, Month: m, Day: d}
}
