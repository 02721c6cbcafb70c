package testutil

import (
	"bytes"
	"context"
	"sync"

	"github.com/statement-renamer/backend/internal/extract"
)

// UnreadableMarker makes FakeExtractor fail when content starts with it.
var UnreadableMarker = []byte("!unreadable")

// FakeExtractor returns file content as its text, so tests can store plain
// statement text in a MockStorage instead of real PDFs.
type FakeExtractor struct {
	mu     sync.Mutex
	scopes []extract.Scope
}

var _ extract.Extractor = (*FakeExtractor)(nil)

func (f *FakeExtractor) Extract(ctx context.Context, content []byte, scope extract.Scope) (string, error) {
	f.mu.Lock()
	f.scopes = append(f.scopes, scope)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if bytes.HasPrefix(content, UnreadableMarker) {
		return "", extract.ErrUnreadable
	}
	return string(content), nil
}

// Scopes returns the scopes Extract was called with.
func (f *FakeExtractor) Scopes() []extract.Scope {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]extract.Scope, len(f.scopes))
	copy(out, f.scopes)
	return out
}
