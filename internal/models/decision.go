package models

import "github.com/google/uuid"

// RenameStatus is the lifecycle state of a RenameDecision.
type RenameStatus string

const (
	RenameStatusPending RenameStatus = "pending"
	RenameStatusSuccess RenameStatus = "success"
	RenameStatusFailure RenameStatus = "failure"
	RenameStatusSkipped RenameStatus = "skipped"
)

// IsTerminal reports whether the status is final.
func (s RenameStatus) IsTerminal() bool {
	return s != RenameStatusPending
}

// FailureReason records why a decision failed before renaming started.
type FailureReason string

const (
	ReasonExtractionFailed FailureReason = "extraction_failed"
	ReasonParseIncomplete  FailureReason = "parse_incomplete"
)

// RenameDecision pairs a source document with the filename it should get.
type RenameDecision struct {
	ID             string          `json:"id" yaml:"id"`
	Source         SourceDocument  `json:"source" yaml:"source"`
	Fields         ExtractedFields `json:"fields" yaml:"fields"`
	TargetFilename string          `json:"targetFilename" yaml:"targetFilename"`
	Selected       bool            `json:"selected" yaml:"selected"`
	Status         RenameStatus    `json:"status" yaml:"status"`
	Reason         FailureReason   `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// NewRenameDecision creates a selected, pending decision for src.
func NewRenameDecision(src SourceDocument) *RenameDecision {
	return &RenameDecision{
		ID:       uuid.New().String(),
		Source:   src,
		Selected: true,
		Status:   RenameStatusPending,
	}
}

// MarkFailed keeps the original filename as the target and fails the decision.
func (d *RenameDecision) MarkFailed(reason FailureReason) {
	d.TargetFilename = d.Source.Filename
	d.Status = RenameStatusFailure
	d.Reason = reason
}

// RenameSummary aggregates the outcome of one rename pass.
type RenameSummary struct {
	Renamed int `json:"renamed" csv:"renamed"`
	Skipped int `json:"skipped" csv:"skipped"`
	Failed  int `json:"failed" csv:"failed"`
}
