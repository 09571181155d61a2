package converters

import (
	"context"
	"fmt"

	"github.com/tendant/simple-searchable-pdf/internal/tools"
)

// PdftkConverter merges, stamps and inspects PDFs with pdftk.
type PdftkConverter struct {
	runner tools.Runner
	bin    string
}

// NewPdftkConverter creates a pdftk adapter.
func NewPdftkConverter(r tools.Runner, bin string) *PdftkConverter {
	if bin == "" {
		bin = "pdftk"
	}
	return &PdftkConverter{runner: r, bin: bin}
}

// Name returns the converter name
func (p *PdftkConverter) Name() string {
	return "pdftk"
}

// Concatenate joins inputs, in order, into out.
func (p *PdftkConverter) Concatenate(ctx context.Context, workDir string, inputs []string, out string) error {
	if len(inputs) == 0 {
		return fmt.Errorf("concatenate: no input pdfs")
	}
	args := append(append([]string{}, inputs...), "cat", "output", out)
	if _, err := p.runner.Run(ctx, workDir, p.bin, args...); err != nil {
		return fmt.Errorf("concatenate %d pages: %w", len(inputs), err)
	}
	return nil
}

// Stamp overlays page N of overlay onto page N of base and writes out.
func (p *PdftkConverter) Stamp(ctx context.Context, workDir, base, overlay, out string) error {
	if _, err := p.runner.Run(ctx, workDir, p.bin, base, "multistamp", overlay, "output", out); err != nil {
		return fmt.Errorf("stamp text layer: %w", err)
	}
	return nil
}

// DumpMetadata writes the document info and bookmarks of pdf to out.
func (p *PdftkConverter) DumpMetadata(ctx context.Context, workDir, pdf, out string) error {
	if _, err := p.runner.Run(ctx, workDir, p.bin, pdf, "dump_data_utf8", "output", out); err != nil {
		return fmt.Errorf("dump metadata: %w", err)
	}
	return nil
}
