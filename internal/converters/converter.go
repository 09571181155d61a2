// Package converters wraps the external programs that turn a scanned PDF into
// a searchable one: Poppler (pdftoppm, pdftotext), Tesseract, pdftk and
// Ghostscript. Every adapter runs through a tools.Runner with an explicit
// working directory.
package converters

import (
	"runtime"

	"github.com/tendant/simple-searchable-pdf/internal/tools"
)

// Binaries names the executables used by the adapters. Each field may be a
// bare name resolved on PATH or an absolute path.
type Binaries struct {
	Pdftoppm    string
	Pdftotext   string
	Tesseract   string
	Pdftk       string
	Ghostscript string
}

// DefaultBinaries returns the stock executable names for the current OS.
func DefaultBinaries() Binaries {
	return Binaries{
		Pdftoppm:    "pdftoppm",
		Pdftotext:   "pdftotext",
		Tesseract:   "tesseract",
		Pdftk:       "pdftk",
		Ghostscript: DefaultGhostscript(),
	}
}

// DefaultGhostscript returns the console Ghostscript binary name.
func DefaultGhostscript() string {
	if runtime.GOOS == "windows" {
		return "gswin64c"
	}
	return "gs"
}

// WithDefaults fills empty fields from DefaultBinaries.
func (b Binaries) WithDefaults() Binaries {
	d := DefaultBinaries()
	if b.Pdftoppm == "" {
		b.Pdftoppm = d.Pdftoppm
	}
	if b.Pdftotext == "" {
		b.Pdftotext = d.Pdftotext
	}
	if b.Tesseract == "" {
		b.Tesseract = d.Tesseract
	}
	if b.Pdftk == "" {
		b.Pdftk = d.Pdftk
	}
	if b.Ghostscript == "" {
		b.Ghostscript = d.Ghostscript
	}
	return b
}

// Required lists every binary that must be installed before a run starts.
func (b Binaries) Required() []string {
	return []string{b.Pdftoppm, b.Tesseract, b.Pdftk, b.Ghostscript, b.Pdftotext}
}

// Set bundles one adapter per tool, sharing a runner.
type Set struct {
	Poppler     *PopplerConverter
	Tesseract   *TesseractConverter
	Pdftk       *PdftkConverter
	Ghostscript *GhostscriptConverter
}

// NewSet builds all adapters from bins.
func NewSet(r tools.Runner, bins Binaries, lang string, dpi int) *Set {
	bins = bins.WithDefaults()
	poppler := NewPopplerConverter(r, bins.Pdftoppm, bins.Pdftotext)
	poppler.SetDPI(dpi)
	return &Set{
		Poppler:     poppler,
		Tesseract:   NewTesseractConverter(r, bins.Tesseract, lang),
		Pdftk:       NewPdftkConverter(r, bins.Pdftk),
		Ghostscript: NewGhostscriptConverter(r, bins.Ghostscript),
	}
}
