package converters

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/tendant/simple-searchable-pdf/internal/tools"
)

// pagePrefix is the output root handed to pdftoppm; it writes
// page-1.jpg, page-2.jpg, ... (zero padded once a document has 10+ pages).
const pagePrefix = "page"

var pageImageRe = regexp.MustCompile(`^` + pagePrefix + `-(\d+)\.jpg$`)

// Page is one rasterized page image.
type Page struct {
	Number int    // 1-based page index
	Path   string // absolute path of the JPEG
}

// PopplerConverter uses Poppler's pdftoppm to rasterize pages and pdftotext
// to read a document's text layer.
type PopplerConverter struct {
	runner    tools.Runner
	pdftoppm  string
	pdftotext string
	dpi       int // Resolution for rendering (default 300)
}

// NewPopplerConverter creates a new Poppler-based adapter
func NewPopplerConverter(r tools.Runner, pdftoppm, pdftotext string) *PopplerConverter {
	if pdftoppm == "" {
		pdftoppm = "pdftoppm"
	}
	if pdftotext == "" {
		pdftotext = "pdftotext"
	}
	return &PopplerConverter{
		runner:    r,
		pdftoppm:  pdftoppm,
		pdftotext: pdftotext,
		dpi:       300, // OCR accuracy drops noticeably below 300 DPI
	}
}

// Name returns the converter name
func (p *PopplerConverter) Name() string {
	return "poppler"
}

// Rasterize renders every page of input as a JPEG into workDir and returns
// the pages in page order.
func (p *PopplerConverter) Rasterize(ctx context.Context, workDir, input string) ([]Page, error) {
	// -jpeg: Output format
	// -r: Resolution in DPI
	args := []string{
		"-jpeg",
		"-r", strconv.Itoa(p.dpi),
		input,
		pagePrefix,
	}
	if _, err := p.runner.Run(ctx, workDir, p.pdftoppm, args...); err != nil {
		return nil, fmt.Errorf("rasterize %s: %w", filepath.Base(input), err)
	}

	pages, err := CollectPages(workDir)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("rasterize %s: %s produced no page images", filepath.Base(input), p.pdftoppm)
	}
	return pages, nil
}

// CollectPages finds the page images in dir and orders them by page number.
// Directory order is not trusted: page-10.jpg sorts before page-2.jpg.
func CollectPages(dir string) ([]Page, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pagePrefix+"-*.jpg"))
	if err != nil {
		return nil, fmt.Errorf("list page images: %w", err)
	}

	pages := make([]Page, 0, len(matches))
	for _, m := range matches {
		sub := pageImageRe.FindStringSubmatch(filepath.Base(m))
		if sub == nil {
			continue
		}
		n, err := strconv.Atoi(sub[1])
		if err != nil {
			continue
		}
		pages = append(pages, Page{Number: n, Path: m})
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].Number < pages[j].Number })
	for i := 1; i < len(pages); i++ {
		if pages[i].Number == pages[i-1].Number {
			return nil, fmt.Errorf("duplicate image for page %d", pages[i].Number)
		}
	}
	return pages, nil
}

// ExtractText returns the text layer of pdf as printed by pdftotext. Only
// stdout is returned so that warnings on stderr never count as text.
func (p *PopplerConverter) ExtractText(ctx context.Context, workDir, pdf string) (string, error) {
	out, err := p.runner.Run(ctx, workDir, p.pdftotext, pdf, "-")
	if err != nil {
		return "", fmt.Errorf("extract text from %s: %w", filepath.Base(pdf), err)
	}
	return string(out.Stdout), nil
}

// ExportText writes the text layer of pdf to txtPath.
func (p *PopplerConverter) ExportText(ctx context.Context, workDir, pdf, txtPath string) error {
	if _, err := p.runner.Run(ctx, workDir, p.pdftotext, pdf, txtPath); err != nil {
		return fmt.Errorf("export text of %s: %w", filepath.Base(pdf), err)
	}
	return nil
}

// SetDPI sets the rendering resolution in DPI
// Higher DPI = better recognition but slower processing
func (p *PopplerConverter) SetDPI(dpi int) {
	if dpi > 0 {
		p.dpi = dpi
	}
}

// DPI returns the rendering resolution.
func (p *PopplerConverter) DPI() int {
	return p.dpi
}
