package testutil

import (
	"bytes"
	"fmt"
	"strings"
)

// BuildPDF returns a minimal PDF with one page per entry in pages. Each page
// entry is a list of text lines drawn top to bottom in Helvetica/WinAnsi.
func BuildPDF(pages ...[]string) []byte {
	var objects []string

	// 1 catalog, 2 pages, 3 font, then a (page, content) pair per page
	const firstPageObj = 4
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", firstPageObj+2*i)
	}
	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	)
	for i, lines := range pages {
		contentObj := firstPageObj + 2*i + 1
		stream := pageStream(lines)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", contentObj),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func pageStream(lines []string) string {
	var sb strings.Builder
	sb.WriteString("BT\n/F1 12 Tf\n14 TL\n72 720 Td\n")
	for _, line := range lines {
		// trailing space keeps adjacent lines from running together in extracted text
		fmt.Fprintf(&sb, "(%s ) Tj\nT*\n", escapeText(line))
	}
	sb.WriteString("ET")
	return sb.String()
}

func escapeText(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '(', ')', '\\':
			sb.WriteByte('\\')
			sb.WriteRune(r)
		case '–':
			sb.WriteString(`\226`)
		case '—':
			sb.WriteString(`\227`)
		default:
			if r < 0x80 {
				sb.WriteRune(r)
			}
		}
	}
	return sb.String()
}
