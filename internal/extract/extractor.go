// Package extract turns PDF bytes into plain text.
package extract

import (
	"context"
	"errors"
)

// Scope selects how much of the document is extracted.
type Scope int

const (
	// FirstPage extracts page 1 only.
	FirstPage Scope = iota
	// WholeDocument extracts every page.
	WholeDocument
)

func (s Scope) String() string {
	switch s {
	case FirstPage:
		return "first-page"
	case WholeDocument:
		return "whole-document"
	}
	return "unknown"
}

// ErrUnreadable is returned when the PDF cannot be opened or has no readable text
// on the requested pages.
var ErrUnreadable = errors.New("unreadable or invalid PDF")

// Extractor is the text extraction collaborator.
type Extractor interface {
	Extract(ctx context.Context, content []byte, scope Scope) (string, error)
}
