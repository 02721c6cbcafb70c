// Package naming builds target filenames from extracted statement fields.
package naming

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/statement-renamer/backend/internal/models"
	"github.com/statement-renamer/backend/internal/parser"
)

const (
	pdfExt                 = ".pdf"
	membershipStatementFmt = "Membership Statement - %s.pdf"
)

// ErrInvalidFilename is returned for operator overrides that are not a bare filename.
var ErrInvalidFilename = errors.New("invalid target filename")

// StatementFilename returns "{name}_{id}_{date}_{docType}.pdf" with the date as
// YYYY-MM-DD. ok is false when any of the four fields is absent.
func StatementFilename(f models.ExtractedFields) (name string, ok bool) {
	if !f.Complete() {
		return "", false
	}
	return strings.Join([]string{f.InvestorName, f.InvestorID, f.Date.ISO(), f.DocType}, "_") + pdfExt, true
}

// MembershipFilename returns "Membership Statement - YYYY MM DD.pdf".
func MembershipFilename(d models.StatementDate) string {
	return fmt.Sprintf(membershipStatementFmt, d.Spaced())
}

// Compose returns the target filename for fields produced by the named strategy.
func Compose(strategy string, f models.ExtractedFields) (string, bool) {
	if strategy == parser.EndDateStrategyName {
		if f.Date == nil {
			return "", false
		}
		return MembershipFilename(*f.Date), true
	}
	return StatementFilename(f)
}

// Apply sets the decision's target from its fields, or keeps the original
// filename and marks the decision failed when the fields are incomplete.
func Apply(strategy string, d *models.RenameDecision) {
	target, ok := Compose(strategy, d.Fields)
	if !ok {
		d.MarkFailed(models.ReasonParseIncomplete)
		return
	}
	d.TargetFilename = target
}

// ValidateFilename checks that name can be used as a target in the source's directory.
func ValidateFilename(name string) error {
	trimmed := strings.TrimSpace(name)
	switch {
	case trimmed == "":
		return fmt.Errorf("%w: empty", ErrInvalidFilename)
	case trimmed == "." || trimmed == "..":
		return fmt.Errorf("%w: %q", ErrInvalidFilename, name)
	case strings.ContainsAny(name, `/\`) || filepath.Base(name) != name:
		return fmt.Errorf("%w: %q must not contain path separators", ErrInvalidFilename, name)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: contains NUL", ErrInvalidFilename)
	}
	return nil
}
