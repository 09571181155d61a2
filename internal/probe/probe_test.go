package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type stubText struct {
	text string
	err  error
}

func (s stubText) ExtractText(context.Context, string, string) (string, error) {
	return s.text, s.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// minimalPDF builds an uncompressed PDF with the given number of blank pages.
func minimalPDF(pages int) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")

	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages))
	for i := 0; i < pages; i++ {
		obj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func TestIsSearchable(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"text layer", "Rechnung Nr. 42\n", true},
		{"empty", "", false},
		{"whitespace only", " \n\f\t\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSearchability(stubText{text: tt.text}, quietLogger())
			if got := s.IsSearchable(context.Background(), "scan.pdf"); got != tt.want {
				t.Errorf("IsSearchable = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsSearchableFallsBackToNativeReader(t *testing.T) {
	s := NewSearchability(stubText{err: errors.New("pdftotext crashed")}, quietLogger())

	s.native = func(string) (string, error) { return "native text", nil }
	if !s.IsSearchable(context.Background(), "scan.pdf") {
		t.Fatal("expected native text to mark document searchable")
	}

	s.native = func(string) (string, error) { return "", errors.New("bad xref") }
	if s.IsSearchable(context.Background(), "scan.pdf") {
		t.Fatal("expected unreadable document to be treated as not searchable")
	}
}

func TestPageCount(t *testing.T) {
	for _, pages := range []int{1, 3, 12} {
		path := filepath.Join(t.TempDir(), "doc.pdf")
		if err := os.WriteFile(path, minimalPDF(pages), 0o644); err != nil {
			t.Fatalf("write pdf: %v", err)
		}

		n, err := PageCount(path)
		if err != nil {
			t.Fatalf("PageCount returned error: %v", err)
		}
		if n != pages {
			t.Fatalf("PageCount = %d, want %d", n, pages)
		}
	}
}

func TestPageCountInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(path, []byte("not a pdf at all"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := PageCount(path); err == nil {
		t.Fatal("expected error for invalid pdf")
	}
	if _, err := PageCount(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestPlainTextInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := PlainText(path); err == nil {
		t.Fatal("expected error for invalid pdf")
	}
}
