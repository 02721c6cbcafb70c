package batch

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
	"github.com/statement-renamer/backend/internal/models"
)

// ReportRow is one line of the CSV rename report.
type ReportRow struct {
	Source       string `csv:"source"`
	Target       string `csv:"target"`
	Selected     bool   `csv:"selected"`
	Status       string `csv:"status"`
	Reason       string `csv:"reason"`
	InvestorName string `csv:"investor_name"`
	InvestorID   string `csv:"investor_id"`
	Date         string `csv:"date"`
	DocType      string `csv:"doc_type"`
}

// ReportRows flattens decisions into report rows, in list order.
func ReportRows(decisions []*models.RenameDecision) []*ReportRow {
	rows := make([]*ReportRow, 0, len(decisions))
	for _, d := range decisions {
		row := &ReportRow{
			Source:       d.Source.Path,
			Target:       d.TargetFilename,
			Selected:     d.Selected,
			Status:       string(d.Status),
			Reason:       string(d.Reason),
			InvestorName: d.Fields.InvestorName,
			InvestorID:   d.Fields.InvestorID,
			DocType:      d.Fields.DocType,
		}
		if d.Fields.Date != nil {
			row.Date = d.Fields.Date.ISO()
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteReport writes decisions as CSV with a header row.
func WriteReport(w io.Writer, decisions []*models.RenameDecision) error {
	if err := gocsv.Marshal(ReportRows(decisions), w); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// ReadReport parses a report written by WriteReport.
func ReadReport(r io.Reader) ([]*ReportRow, error) {
	var rows []*ReportRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	return rows, nil
}
