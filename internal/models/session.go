package models

import "time"

// BatchStatus represents the status of a batch session.
type BatchStatus string

const (
	BatchStatusPending  BatchStatus = "pending"
	BatchStatusParsing  BatchStatus = "parsing"
	BatchStatusReady    BatchStatus = "ready"
	BatchStatusRenaming BatchStatus = "renaming"
	BatchStatusComplete BatchStatus = "complete"
	BatchStatusError    BatchStatus = "error"
)

// BatchSession tracks one directory (or file list) through parse and rename.
type BatchSession struct {
	ID        string         `json:"id"`
	Root      string         `json:"root,omitempty"`
	Strategy  string         `json:"strategy"`
	Status    BatchStatus    `json:"status"`
	Progress  float64        `json:"progress"` // fraction of files parsed, 0-1
	FileCount int            `json:"fileCount"`
	Parsed    int            `json:"parsed"`
	Summary   *RenameSummary `json:"summary,omitempty"`
	Errors    []string       `json:"errors,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// NewBatchSession creates a BatchSession in pending status.
func NewBatchSession(id, root, strategy string) *BatchSession {
	return &BatchSession{
		ID:        id,
		Root:      root,
		Strategy:  strategy,
		Status:    BatchStatusPending,
		Errors:    make([]string, 0),
		CreatedAt: time.Now(),
	}
}

// Done reports whether no further state changes are expected without operator action.
func (s *BatchSession) Done() bool {
	switch s.Status {
	case BatchStatusReady, BatchStatusComplete, BatchStatusError:
		return true
	}
	return false
}
