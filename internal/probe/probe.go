// Package probe inspects PDFs without modifying them: whether a document
// already carries a text layer, and how many pages it has.
package probe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/ledongthuc/pdf"
)

// TextExtractor reads the text layer of a PDF, typically via pdftotext.
type TextExtractor interface {
	ExtractText(ctx context.Context, workDir, pdf string) (string, error)
}

// Searchability classifies documents by whether they contain extractable
// text. It is a heuristic: a blank page plus images can fool it either way.
type Searchability struct {
	text   TextExtractor
	native func(path string) (string, error)
	logger *slog.Logger
}

// NewSearchability creates a probe backed by text, falling back to the
// pure-Go reader when text fails.
func NewSearchability(text TextExtractor, logger *slog.Logger) *Searchability {
	if logger == nil {
		logger = slog.Default()
	}
	return &Searchability{text: text, native: PlainText, logger: logger}
}

// IsSearchable reports whether path yields non-blank text.
func (s *Searchability) IsSearchable(ctx context.Context, path string) bool {
	text, err := s.text.ExtractText(ctx, "", path)
	if err == nil {
		return strings.TrimSpace(text) != ""
	}
	s.logger.Warn("text extraction failed, trying native reader", "file", path, "err", err)

	text, nerr := s.native(path)
	if nerr != nil {
		s.logger.Warn("native text extraction failed, treating as not searchable", "file", path, "err", nerr)
		return false
	}
	return strings.TrimSpace(text) != ""
}

// PageCount returns the number of pages in the PDF at path.
func PageCount(path string) (n int, err error) {
	// the reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return r.NumPage(), nil
}

// PlainText extracts the text of every page with the pure-Go reader.
func PlainText(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	rd, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read text %s: %w", path, err)
	}
	b, err := io.ReadAll(rd)
	if err != nil {
		return "", fmt.Errorf("read text %s: %w", path, err)
	}
	return string(b), nil
}
