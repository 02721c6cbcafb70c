package extract_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/statement-renamer/backend/internal/extract"
	"github.com/statement-renamer/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFExtractor_FirstPage(t *testing.T) {
	content := testutil.BuildPDF(
		[]string{"John Smith i12345", "Statement Period 01/01/2024 - 03/31/2024"},
		[]string{"Second page only"},
	)

	text, err := extract.NewPDFExtractor(nil).Extract(context.Background(), content, extract.FirstPage)
	require.NoError(t, err)
	assert.Contains(t, text, "John Smith i12345")
	assert.Contains(t, text, "03/31/2024")
	assert.NotContains(t, text, "Second page only")
}

func TestPDFExtractor_WholeDocument(t *testing.T) {
	content := testutil.BuildPDF(
		[]string{"Cover page"},
		[]string{"Statement Period 01/01/2024 - 03/31/2024"},
	)

	text, err := extract.NewPDFExtractor(nil).Extract(context.Background(), content, extract.WholeDocument)
	require.NoError(t, err)
	assert.Contains(t, text, "Cover page")
	assert.Contains(t, text, "Statement Period")
}

func TestPDFExtractor_Unreadable(t *testing.T) {
	valid := testutil.BuildPDF([]string{"hello"})

	tests := []struct {
		name    string
		content []byte
	}{
		{"empty", []byte{}},
		{"not a pdf", []byte("just some text")},
		{"truncated", valid[:len(valid)/2]},
		{"garbage after header", append([]byte("%PDF-1.4\n"), []byte(strings.Repeat("\x00\xff", 64))...)},
	}
	e := extract.NewPDFExtractor(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Extract(context.Background(), tt.content, extract.FirstPage)
			require.Error(t, err)
			assert.True(t, errors.Is(err, extract.ErrUnreadable), err.Error())
		})
	}
}

func TestPDFExtractor_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := extract.NewPDFExtractor(nil).Extract(ctx, testutil.BuildPDF([]string{"x"}), extract.FirstPage)
	assert.ErrorIs(t, err, context.Canceled)
}
