package converters

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/tendant/simple-searchable-pdf/internal/tools"
	"github.com/tendant/simple-searchable-pdf/internal/tools/toolstest"
)

func newSimulatedSet(t *testing.T, pages int) (*Set, *toolstest.FakeRunner) {
	t.Helper()
	fake := toolstest.New()
	sim := &toolstest.Simulation{Pages: pages, Text: map[string]string{"text.pdf": "Invoice 2024\n"}}
	sim.Install(fake)
	bins := DefaultBinaries()
	bins.Ghostscript = "gs"
	return NewSet(fake, bins, "deu", 200), fake
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestCollectPagesOrdersNumerically(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"page-10.jpg", "page-2.jpg", "page-1.jpg", "other.jpg", "page-3.pdf"} {
		writeFile(t, filepath.Join(dir, name), "x")
	}

	pages, err := CollectPages(dir)
	if err != nil {
		t.Fatalf("CollectPages returned error: %v", err)
	}

	var got []int
	for _, p := range pages {
		got = append(got, p.Number)
	}
	if want := []int{1, 2, 10}; !reflect.DeepEqual(got, want) {
		t.Fatalf("page order = %v, want %v", got, want)
	}
}

func TestCollectPagesRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "page-1.jpg"), "x")
	writeFile(t, filepath.Join(dir, "page-01.jpg"), "x")

	if _, err := CollectPages(dir); err == nil {
		t.Fatal("expected error for two images of page 1")
	}
}

func TestRasterizeProducesOrderedPages(t *testing.T) {
	set, fake := newSimulatedSet(t, 12)
	work := t.TempDir()
	input := writeFile(t, filepath.Join(t.TempDir(), "scan.pdf"), "%PDF-1.4 scan")

	pages, err := set.Poppler.Rasterize(context.Background(), work, input)
	if err != nil {
		t.Fatalf("Rasterize returned error: %v", err)
	}
	if len(pages) != 12 {
		t.Fatalf("expected 12 pages, got %d", len(pages))
	}
	for i, p := range pages {
		if p.Number != i+1 {
			t.Fatalf("page %d has number %d", i, p.Number)
		}
		if filepath.Dir(p.Path) != work {
			t.Fatalf("page written outside work dir: %s", p.Path)
		}
	}

	calls := fake.CallsTo("pdftoppm")
	if len(calls) != 1 {
		t.Fatalf("expected one pdftoppm call, got %d", len(calls))
	}
	if calls[0].Dir != work {
		t.Fatalf("pdftoppm ran in %q, want %q", calls[0].Dir, work)
	}
	want := []string{"-jpeg", "-r", "200", input, "page"}
	if !reflect.DeepEqual(calls[0].Args, want) {
		t.Fatalf("pdftoppm args = %v, want %v", calls[0].Args, want)
	}
}

func TestRasterizeNoPages(t *testing.T) {
	set, _ := newSimulatedSet(t, 0)
	input := writeFile(t, filepath.Join(t.TempDir(), "empty.pdf"), "%PDF")

	_, err := set.Poppler.Rasterize(context.Background(), t.TempDir(), input)
	if err == nil || !strings.Contains(err.Error(), "no page images") {
		t.Fatalf("expected no page images error, got %v", err)
	}
}

func TestRasterizeToolFailure(t *testing.T) {
	set, _ := newSimulatedSet(t, 3)

	_, err := set.Poppler.Rasterize(context.Background(), t.TempDir(), "/does/not/exist.pdf")
	var te *tools.ToolError
	if !errors.As(err, &te) {
		t.Fatalf("expected *tools.ToolError, got %v", err)
	}
	if te.Tool != "pdftoppm" {
		t.Fatalf("failing tool = %s", te.Tool)
	}
}

func TestRecognizePagesKeepsOrder(t *testing.T) {
	set, fake := newSimulatedSet(t, 3)
	work := t.TempDir()
	input := writeFile(t, filepath.Join(t.TempDir(), "scan.pdf"), "%PDF")

	pages, err := set.Poppler.Rasterize(context.Background(), work, input)
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	outs, err := set.Tesseract.RecognizePages(context.Background(), work, pages)
	if err != nil {
		t.Fatalf("RecognizePages: %v", err)
	}

	want := []string{
		filepath.Join(work, "page-1.pdf"),
		filepath.Join(work, "page-2.pdf"),
		filepath.Join(work, "page-3.pdf"),
	}
	if !reflect.DeepEqual(outs, want) {
		t.Fatalf("outputs = %v, want %v", outs, want)
	}
	for _, c := range fake.CallsTo("tesseract") {
		if got := c.Args[2:]; !reflect.DeepEqual(got, []string{"-l", "deu", "pdf"}) {
			t.Fatalf("tesseract args tail = %v", got)
		}
	}
}

func TestRecognizePagesRejectsDisorder(t *testing.T) {
	set, fake := newSimulatedSet(t, 0)
	pages := []Page{{Number: 2, Path: "/w/page-2.jpg"}, {Number: 1, Path: "/w/page-1.jpg"}}

	if _, err := set.Tesseract.RecognizePages(context.Background(), t.TempDir(), pages); err == nil {
		t.Fatal("expected out of order error")
	}
	if n := len(fake.CallsTo("tesseract")); n > 1 {
		t.Fatalf("expected OCR to stop early, got %d calls", n)
	}
}

func TestRecognizePagesStopsAtFirstFailure(t *testing.T) {
	set, fake := newSimulatedSet(t, 0)
	fake.Handle("tesseract", func(c toolstest.Call) (tools.Output, error) {
		return tools.Output{}, toolstest.Fail(c, 1, "Error in pixReadStream")
	})
	pages := []Page{{Number: 1, Path: "/w/page-1.jpg"}, {Number: 2, Path: "/w/page-2.jpg"}}

	_, err := set.Tesseract.RecognizePages(context.Background(), t.TempDir(), pages)
	if err == nil || !strings.Contains(err.Error(), "ocr page 1") {
		t.Fatalf("expected failure on page 1, got %v", err)
	}
	if n := len(fake.CallsTo("tesseract")); n != 1 {
		t.Fatalf("expected 1 tesseract call, got %d", n)
	}
}

func TestPdftkAndGhostscriptArgs(t *testing.T) {
	set, fake := newSimulatedSet(t, 0)
	work := t.TempDir()
	p1 := writeFile(t, filepath.Join(work, "page-1.pdf"), "one")
	p2 := writeFile(t, filepath.Join(work, "page-2.pdf"), "two")
	orig := writeFile(t, filepath.Join(t.TempDir(), "scan.pdf"), "orig")
	ctx := context.Background()

	if err := set.Pdftk.Concatenate(ctx, work, []string{p1, p2}, "temp.pdf"); err != nil {
		t.Fatalf("Concatenate: %v", err)
	}
	if err := set.Ghostscript.StripImages(ctx, work, "temp.pdf", "no-bg.pdf"); err != nil {
		t.Fatalf("StripImages: %v", err)
	}
	if err := set.Pdftk.Stamp(ctx, work, orig, "no-bg.pdf", "output.pdf"); err != nil {
		t.Fatalf("Stamp: %v", err)
	}
	if err := set.Pdftk.DumpMetadata(ctx, work, "output.pdf", "output.metadata.txt"); err != nil {
		t.Fatalf("DumpMetadata: %v", err)
	}

	pdftk := fake.CallsTo("pdftk")
	if want := []string{p1, p2, "cat", "output", "temp.pdf"}; !reflect.DeepEqual(pdftk[0].Args, want) {
		t.Fatalf("cat args = %v", pdftk[0].Args)
	}
	if want := []string{orig, "multistamp", "no-bg.pdf", "output", "output.pdf"}; !reflect.DeepEqual(pdftk[1].Args, want) {
		t.Fatalf("stamp args = %v", pdftk[1].Args)
	}
	gs := fake.CallsTo("gs")
	if len(gs) != 1 || gs[0].Args[0] != "-o" || gs[0].Args[1] != "no-bg.pdf" {
		t.Fatalf("unexpected gs call: %+v", gs)
	}
	if gs[0].Args[len(gs[0].Args)-1] != "temp.pdf" {
		t.Fatalf("gs input should be last arg: %v", gs[0].Args)
	}
	if _, err := os.Stat(filepath.Join(work, "output.metadata.txt")); err != nil {
		t.Fatalf("metadata not written: %v", err)
	}
}

func TestConcatenateRequiresInputs(t *testing.T) {
	set, _ := newSimulatedSet(t, 0)
	if err := set.Pdftk.Concatenate(context.Background(), t.TempDir(), nil, "temp.pdf"); err == nil {
		t.Fatal("expected error without inputs")
	}
}

func TestExtractTextIgnoresStderr(t *testing.T) {
	fake := toolstest.New()
	fake.Handle("pdftotext", func(c toolstest.Call) (tools.Output, error) {
		return tools.Output{Combined: []byte("Syntax Warning: bad xref\n")}, nil
	})
	p := NewPopplerConverter(fake, "", "")

	text, err := p.ExtractText(context.Background(), "", "scan.pdf")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if text != "" {
		t.Fatalf("stderr leaked into text: %q", text)
	}
}

func TestBinariesDefaults(t *testing.T) {
	b := Binaries{Tesseract: "/opt/tess/bin/tesseract"}.WithDefaults()
	if b.Tesseract != "/opt/tess/bin/tesseract" {
		t.Fatalf("override lost: %s", b.Tesseract)
	}
	if b.Pdftoppm != "pdftoppm" || b.Pdftk != "pdftk" || b.Pdftotext != "pdftotext" {
		t.Fatalf("defaults not applied: %+v", b)
	}
	if b.Ghostscript != DefaultGhostscript() {
		t.Fatalf("ghostscript default = %s", b.Ghostscript)
	}
	if n := len(b.Required()); n != 5 {
		t.Fatalf("expected 5 required tools, got %d", n)
	}
}

func TestPopplerSetDPI(t *testing.T) {
	p := NewPopplerConverter(toolstest.New(), "", "")
	if p.DPI() != 300 {
		t.Fatalf("default dpi = %d", p.DPI())
	}
	p.SetDPI(-5)
	if p.DPI() != 300 {
		t.Fatal("negative dpi should be ignored")
	}
	p.SetDPI(150)
	if p.DPI() != 150 {
		t.Fatalf("dpi = %d, want 150", p.DPI())
	}
}
