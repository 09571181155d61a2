// cmd/pdf-probe reports what searchable-pdf would see for a file: whether it
// is a PDF, how many pages it has and whether it already carries text.
//
// Usage:
//
//	./pdf-probe scan.pdf invoices/*.pdf
//	./pdf-probe -v --timeout 10s scan.pdf
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/tendant/simple-searchable-pdf/internal/converters"
	"github.com/tendant/simple-searchable-pdf/internal/probe"
	"github.com/tendant/simple-searchable-pdf/internal/tools"
)

type fileReport struct {
	Path       string
	Size       int64
	IsPDF      bool
	Pages      int
	PagesErr   error
	Searchable bool
	TextChars  int
}

func main() {
	timeout := pflag.Duration("timeout", 30*time.Second, "timeout per pdftotext call")
	pdftotext := pflag.String("pdftotext", "pdftotext", "pdftotext binary")
	verbose := pflag.BoolP("verbose", "v", false, "log every tool invocation")
	pflag.Parse()

	if pflag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: at least one PDF is required")
		pflag.Usage()
		os.Exit(1)
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	runner := tools.NewExecRunner(*timeout, logger)
	poppler := converters.NewPopplerConverter(runner, "", *pdftotext)
	searchability := probe.NewSearchability(poppler, logger)

	failed := false
	for _, path := range pflag.Args() {
		rep, err := inspect(context.Background(), path, poppler, searchability)
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ %s: %v\n", path, err)
			failed = true
			continue
		}
		printReport(os.Stdout, rep)
	}
	if failed {
		os.Exit(1)
	}
}

// searchabilityChecker is the part of probe.Searchability inspect needs.
type searchabilityChecker interface {
	IsSearchable(ctx context.Context, path string) bool
}

func inspect(ctx context.Context, path string, text probe.TextExtractor, s searchabilityChecker) (fileReport, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileReport{}, err
	}
	if info.IsDir() {
		return fileReport{}, fmt.Errorf("is a directory")
	}

	rep := fileReport{Path: path, Size: info.Size()}
	rep.IsPDF, err = hasPDFMagic(path)
	if err != nil {
		return fileReport{}, err
	}
	if !rep.IsPDF {
		return rep, nil
	}

	rep.Pages, rep.PagesErr = probe.PageCount(path)
	rep.Searchable = s.IsSearchable(ctx, path)
	if rep.Searchable {
		if t, err := text.ExtractText(ctx, "", path); err == nil {
			rep.TextChars = len([]rune(strings.TrimSpace(t)))
		}
	}
	return rep, nil
}

// hasPDFMagic checks the %PDF header; the extension alone is not trusted.
func hasPDFMagic(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, 4)
	n, err := io.ReadFull(f, buf)
	if err != nil && n == 0 {
		return false, nil
	}
	return n == 4 && string(buf) == "%PDF", nil
}

func printReport(w io.Writer, rep fileReport) {
	fmt.Fprintf(w, "\n📄 %s\n", rep.Path)
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintf(w, "File Size:  %s\n", formatBytes(rep.Size))
	if !rep.IsPDF {
		fmt.Fprintln(w, "Type:       not a PDF")
		return
	}
	if rep.PagesErr != nil {
		fmt.Fprintf(w, "Pages:      unknown (%v)\n", rep.PagesErr)
	} else {
		fmt.Fprintf(w, "Pages:      %d\n", rep.Pages)
	}
	if rep.Searchable {
		fmt.Fprintf(w, "Searchable: yes (%d characters of text)\n", rep.TextChars)
	} else {
		fmt.Fprintln(w, "Searchable: no")
	}
}

// formatBytes formats bytes into human-readable format
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
