package converters

import (
	"context"
	"fmt"

	"github.com/tendant/simple-searchable-pdf/internal/tools"
)

// GhostscriptConverter re-renders PDFs through Ghostscript's pdfwrite device.
type GhostscriptConverter struct {
	runner tools.Runner
	bin    string
}

// NewGhostscriptConverter creates a Ghostscript adapter.
func NewGhostscriptConverter(r tools.Runner, bin string) *GhostscriptConverter {
	if bin == "" {
		bin = DefaultGhostscript()
	}
	return &GhostscriptConverter{runner: r, bin: bin}
}

// Name returns the converter name
func (g *GhostscriptConverter) Name() string {
	return "ghostscript"
}

// StripImages writes a copy of in without any image content, leaving only
// text and vector drawing.
func (g *GhostscriptConverter) StripImages(ctx context.Context, workDir, in, out string) error {
	// -dFILTERIMAGE: drop all raster images
	// -dNOPAUSE -dBATCH -dQUIET: non-interactive, exit when done
	args := []string{
		"-o", out,
		"-sDEVICE=pdfwrite",
		"-dFILTERIMAGE",
		"-dNOPAUSE",
		"-dBATCH",
		"-dQUIET",
		in,
	}
	if _, err := g.runner.Run(ctx, workDir, g.bin, args...); err != nil {
		return fmt.Errorf("strip images: %w", err)
	}
	return nil
}
