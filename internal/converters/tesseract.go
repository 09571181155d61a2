package converters

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tendant/simple-searchable-pdf/internal/tools"
)

// DefaultLanguage is the recognition language when none is configured.
const DefaultLanguage = "deu"

// TesseractConverter runs Tesseract on page images and asks for a PDF
// rendering: the page with its recognized text as an invisible layer.
type TesseractConverter struct {
	runner tools.Runner
	bin    string
	lang   string
}

// NewTesseractConverter creates a Tesseract adapter for lang.
func NewTesseractConverter(r tools.Runner, bin, lang string) *TesseractConverter {
	if bin == "" {
		bin = "tesseract"
	}
	if lang == "" {
		lang = DefaultLanguage
	}
	return &TesseractConverter{runner: r, bin: bin, lang: lang}
}

// Name returns the converter name
func (t *TesseractConverter) Name() string {
	return "tesseract"
}

// Language returns the recognition language code.
func (t *TesseractConverter) Language() string {
	return t.lang
}

// RecognizePage OCRs one page image and returns the path of the page PDF,
// written next to the image with the same base name.
func (t *TesseractConverter) RecognizePage(ctx context.Context, workDir string, page Page) (string, error) {
	outBase := strings.TrimSuffix(page.Path, filepath.Ext(page.Path))

	// tesseract <image> <outbase> -l <lang> pdf
	if _, err := t.runner.Run(ctx, workDir, t.bin, page.Path, outBase, "-l", t.lang, "pdf"); err != nil {
		return "", fmt.Errorf("ocr page %d: %w", page.Number, err)
	}

	out := outBase + ".pdf"
	if _, err := os.Stat(out); err != nil {
		return "", fmt.Errorf("ocr page %d produced no pdf: %w", page.Number, err)
	}
	return out, nil
}

// RecognizePages OCRs pages in the order given, which must be strictly
// increasing by page number. The first failure aborts the whole document.
func (t *TesseractConverter) RecognizePages(ctx context.Context, workDir string, pages []Page) ([]string, error) {
	outputs := make([]string, 0, len(pages))
	for i, page := range pages {
		if i > 0 && page.Number <= pages[i-1].Number {
			return nil, fmt.Errorf("pages out of order: %d after %d", page.Number, pages[i-1].Number)
		}
		out, err := t.RecognizePage(ctx, workDir, page)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}
