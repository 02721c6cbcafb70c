package naming

import (
	"errors"
	"testing"

	"github.com/statement-renamer/backend/internal/models"
	"github.com/statement-renamer/backend/internal/parser"
	"github.com/stretchr/testify/assert"
)

func date(y, m, d int) *models.StatementDate {
	return &models.StatementDate{Year: y, Month: m, Day: d}
}

func TestStatementFilename(t *testing.T) {
	f := models.ExtractedFields{
		InvestorName: "John Q. Smith",
		InvestorID:   "i48213",
		Date:         date(2024, 3, 31),
		DocType:      "MemberStatement",
	}
	name, ok := StatementFilename(f)
	assert.True(t, ok)
	assert.Equal(t, "John Q. Smith_i48213_2024-03-31_MemberStatement.pdf", name)

	// deterministic
	again, _ := StatementFilename(f)
	assert.Equal(t, name, again)

	f.InvestorID = ""
	_, ok = StatementFilename(f)
	assert.False(t, ok)
}

func TestMembershipFilename(t *testing.T) {
	assert.Equal(t, "Membership Statement - 2024 03 31.pdf", MembershipFilename(*date(2024, 3, 31)))
	assert.Equal(t, "Membership Statement - 2023 12 01.pdf", MembershipFilename(*date(2023, 12, 1)))
}

func TestApply(t *testing.T) {
	t.Run("complete statement fields", func(t *testing.T) {
		d := models.NewRenameDecision(models.SourceDocument{Path: "/in/a.pdf", Filename: "a.pdf"})
		d.Fields = models.ExtractedFields{InvestorName: "Jane", InvestorID: "i1", Date: date(2024, 1, 31), DocType: models.UnknownDocType}
		Apply(parser.StatementStrategyName, d)
		assert.Equal(t, "Jane_i1_2024-01-31_Unknown.pdf", d.TargetFilename)
		assert.Equal(t, models.RenameStatusPending, d.Status)
	})

	t.Run("incomplete keeps original name and fails", func(t *testing.T) {
		d := models.NewRenameDecision(models.SourceDocument{Path: "/in/a.pdf", Filename: "a.pdf"})
		d.Fields = models.ExtractedFields{InvestorName: "Jane", DocType: "MemberStatement"}
		Apply(parser.StatementStrategyName, d)
		assert.Equal(t, "a.pdf", d.TargetFilename)
		assert.Equal(t, models.RenameStatusFailure, d.Status)
		assert.Equal(t, models.ReasonParseIncomplete, d.Reason)
	})

	t.Run("end-date strategy names by date only", func(t *testing.T) {
		d := models.NewRenameDecision(models.SourceDocument{Path: "/in/b.pdf", Filename: "b.pdf"})
		d.Fields = models.ExtractedFields{Date: date(2024, 6, 30)}
		Apply(parser.EndDateStrategyName, d)
		assert.Equal(t, "Membership Statement - 2024 06 30.pdf", d.TargetFilename)
		assert.Equal(t, models.RenameStatusPending, d.Status)
	})
}

func TestValidateFilename(t *testing.T) {
	valid := []string{"report.pdf", "John Smith_i1_2024-01-31_Unknown.pdf", "a..b.pdf"}
	for _, name := range valid {
		assert.NoError(t, ValidateFilename(name), name)
	}

	invalid := []string{"", "  ", ".", "..", "dir/file.pdf", `dir\file.pdf`, "../up.pdf", "nul\x00.pdf"}
	for _, name := range invalid {
		err := ValidateFilename(name)
		assert.True(t, errors.Is(err, ErrInvalidFilename), "%q: %v", name, err)
	}
}
