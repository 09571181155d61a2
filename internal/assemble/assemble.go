// Package assemble merges per-page OCR output into a text-only overlay and
// stamps it onto the original document.
package assemble

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/tendant/simple-searchable-pdf/internal/converters"
)

// Intermediate file names inside the working directory.
const (
	ConcatName   = "temp.pdf"
	OverlayName  = "no-bg.pdf"
	OutputName   = "output.pdf"
	MetadataName = "output.metadata.txt"
)

// Assembler runs the fixed concatenate, strip, stamp, metadata sequence.
type Assembler struct {
	pdftk          *converters.PdftkConverter
	ghostscript    *converters.GhostscriptConverter
	strictMetadata bool
	logger         *slog.Logger
}

// New creates an assembler. With strictMetadata a failed metadata dump fails
// the job; otherwise it is only logged.
func New(pdftk *converters.PdftkConverter, gs *converters.GhostscriptConverter, strictMetadata bool, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		pdftk:          pdftk,
		ghostscript:    gs,
		strictMetadata: strictMetadata,
		logger:         logger,
	}
}

// Assemble combines pagePDFs (already in page order) into a text layer and
// stamps it onto original. It returns the path of the searchable result in
// workDir; original is only read.
func (a *Assembler) Assemble(ctx context.Context, workDir, original string, pagePDFs []string) (string, error) {
	concat := filepath.Join(workDir, ConcatName)
	overlay := filepath.Join(workDir, OverlayName)
	output := filepath.Join(workDir, OutputName)

	if err := a.pdftk.Concatenate(ctx, workDir, pagePDFs, concat); err != nil {
		return "", err
	}
	if err := a.ghostscript.StripImages(ctx, workDir, concat, overlay); err != nil {
		return "", err
	}
	if err := a.pdftk.Stamp(ctx, workDir, original, overlay, output); err != nil {
		return "", err
	}

	if err := a.pdftk.DumpMetadata(ctx, workDir, output, filepath.Join(workDir, MetadataName)); err != nil {
		if a.strictMetadata {
			return "", fmt.Errorf("metadata: %w", err)
		}
		a.logger.Warn("metadata dump failed, continuing", "file", original, "err", err)
	}
	return output, nil
}
