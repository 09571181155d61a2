// Package pipeline converts a single document: probe, rasterize, OCR,
// assemble and commit. Failures are returned as a Result so the caller can
// decide whether the batch goes on.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tendant/simple-searchable-pdf/internal/assemble"
	"github.com/tendant/simple-searchable-pdf/internal/converters"
	"github.com/tendant/simple-searchable-pdf/internal/img"
	"github.com/tendant/simple-searchable-pdf/internal/lifecycle"
	"github.com/tendant/simple-searchable-pdf/internal/probe"
	"github.com/tendant/simple-searchable-pdf/internal/tools"
)

// Outcome is how a job ended.
type Outcome int

const (
	Converted Outcome = iota
	Skipped
	Conflict    // backup or output already exists; nothing touched
	ToolFailure // an external tool exited non-zero
	Failed      // any other error (unreadable input, page mismatch, file system)
)

func (o Outcome) String() string {
	switch o {
	case Converted:
		return "converted"
	case Skipped:
		return "skipped"
	case Conflict:
		return "conflict"
	case ToolFailure:
		return "tool failure"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is the value a job resolves to.
type Result struct {
	Outcome Outcome
	Err     error
	Output  string // final path when converted
	Pages   int
}

// Fatal reports whether the job failed in a way that stops the batch when
// continue-after-error is off. Conflicts and skips never do.
func (r Result) Fatal() bool {
	return r.Outcome == ToolFailure || r.Outcome == Failed
}

// Options tunes a pipeline.
type Options struct {
	SkipSearchable bool
	StrictMetadata bool
	Page           img.PageOptions
	// CountPages reads a page count natively; defaults to probe.PageCount.
	CountPages func(path string) (int, error)
}

// Pipeline processes jobs one at a time. It is not safe for concurrent use
// with the same working directory.
type Pipeline struct {
	tools     *converters.Set
	probe     *probe.Searchability
	assembler *assemble.Assembler
	files     *lifecycle.Manager
	opts      Options
	logger    *slog.Logger
}

// New wires a pipeline from the tool adapters and the file manager.
func New(set *converters.Set, files *lifecycle.Manager, opts Options, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.CountPages == nil {
		opts.CountPages = probe.PageCount
	}
	return &Pipeline{
		tools:     set,
		probe:     probe.NewSearchability(set.Poppler, logger),
		assembler: assemble.New(set.Pdftk, set.Ghostscript, opts.StrictMetadata, logger),
		files:     files,
		opts:      opts,
		logger:    logger,
	}
}

// Process converts source using workDir for intermediate files. workDir must
// be empty.
func (p *Pipeline) Process(ctx context.Context, workDir, source string) Result {
	job, err := lifecycle.NewJob(source)
	if err != nil {
		return Result{Outcome: Failed, Err: err}
	}
	logger := p.logger.With("file", job.Source)

	if p.opts.SkipSearchable && p.probe.IsSearchable(ctx, job.Source) {
		logger.Info("already searchable, skipping")
		return Result{Outcome: Skipped}
	}

	if err := p.files.Check(job); err != nil {
		return fail(err)
	}

	pages, err := p.tools.Poppler.Rasterize(ctx, workDir, job.Source)
	if err != nil {
		return fail(err)
	}
	logger.Debug("rasterized", "pages", len(pages), "dpi", p.tools.Poppler.DPI())

	for _, page := range pages {
		info, err := img.PreparePage(page.Path, p.opts.Page)
		if err != nil {
			return fail(fmt.Errorf("page %d image: %w", page.Number, err))
		}
		if info.Rewritten {
			logger.Debug("page image adjusted", "page", page.Number, "width", info.Width, "height", info.Height)
		}
	}

	pagePDFs, err := p.tools.Tesseract.RecognizePages(ctx, workDir, pages)
	if err != nil {
		return fail(err)
	}

	output, err := p.assembler.Assemble(ctx, workDir, job.Source, pagePDFs)
	if err != nil {
		return fail(err)
	}

	if err := p.verifyPages(logger, job.Source, output, len(pages)); err != nil {
		return fail(err)
	}

	final, err := p.files.Commit(job, output)
	if err != nil {
		return fail(err)
	}

	if err := p.files.ExportTranscript(ctx, workDir, job); err != nil {
		r := fail(fmt.Errorf("transcript: %w", err))
		r.Output = final
		return r
	}

	logger.Info("converted", "output", final, "pages", len(pages))
	return Result{Outcome: Converted, Output: final, Pages: len(pages)}
}

// verifyPages checks that the stamped result has as many pages as the
// input. Files the native reader cannot parse are not held against the job.
func (p *Pipeline) verifyPages(logger *slog.Logger, source, output string, rasterized int) error {
	want, err := p.opts.CountPages(source)
	if err != nil {
		logger.Warn("cannot read input page count, skipping page check", "err", err)
		return nil
	}
	if rasterized != want {
		return fmt.Errorf("page count mismatch: input has %d pages, rasterizer produced %d", want, rasterized)
	}

	got, err := p.opts.CountPages(output)
	if err != nil {
		logger.Warn("cannot read output page count, skipping page check", "err", err)
		return nil
	}
	if got != want {
		return fmt.Errorf("page count mismatch: input has %d pages, output has %d", want, got)
	}
	return nil
}

func fail(err error) Result {
	var te *tools.ToolError
	switch {
	case errors.Is(err, lifecycle.ErrConflict):
		return Result{Outcome: Conflict, Err: err}
	case errors.As(err, &te):
		return Result{Outcome: ToolFailure, Err: err}
	default:
		return Result{Outcome: Failed, Err: err}
	}
}
