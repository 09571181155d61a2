// cmd/searchable-pdf/main.go
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"

	"github.com/tendant/simple-searchable-pdf/internal/batch"
	"github.com/tendant/simple-searchable-pdf/internal/bus"
	"github.com/tendant/simple-searchable-pdf/internal/converters"
	"github.com/tendant/simple-searchable-pdf/internal/img"
	"github.com/tendant/simple-searchable-pdf/internal/lifecycle"
	"github.com/tendant/simple-searchable-pdf/internal/pipeline"
	"github.com/tendant/simple-searchable-pdf/internal/process"
	"github.com/tendant/simple-searchable-pdf/internal/report"
	"github.com/tendant/simple-searchable-pdf/internal/tools"
)

const usageHeader = `Usage: searchable-pdf [options] <pdf-file|directory> ...

Makes scanned PDFs searchable: every page is rendered, OCRed with tesseract
and the recognized text is laid invisibly over the original pages.
Boolean options take =false to turn them off, e.g. --overwrite=false.

Options:
`

func main() {
	_ = godotenv.Load()

	cfg, fs, err := loadConfig(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		printUsage(os.Stdout, fs)
		os.Exit(0)
	}
	logger := newLogger(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)
	if err != nil {
		printUsage(os.Stderr, fs)
		fatal(logger, "invalid configuration", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, cfg, fs, logger, os.Stdout)
	stop()
	os.Exit(code)
}

// run executes one batch and returns the process exit code.
func run(ctx context.Context, cfg config, fs *pflag.FlagSet, logger *slog.Logger, stdout io.Writer) int {
	if len(cfg.Inputs) == 0 {
		logger.Error("no input files given")
		printUsage(stdout, fs)
		return 1
	}

	bins := cfg.Binaries.WithDefaults()
	if err := tools.CheckAvailable(bins.Required()...); err != nil {
		logger.Error("required tool missing", "err", err)
		return 1
	}

	inputs, err := batch.CollectInputs(cfg.Inputs)
	if err != nil {
		logger.Error("invalid input", "err", err)
		return 1
	}
	logger.Info("searchable-pdf starting",
		"files", len(inputs), "overwrite", cfg.Overwrite, "backup", cfg.Backup,
		"restore_date", cfg.RestoreDate, "skip_searchable", cfg.SkipSearchable,
		"lang", cfg.Lang, "dpi", cfg.DPI, "tool_timeout", cfg.ToolTimeout)

	runner := tools.NewExecRunner(cfg.ToolTimeout, logger)
	set := converters.NewSet(runner, bins, cfg.Lang, cfg.DPI)
	files := lifecycle.NewManager(lifecycle.Policy{
		Overwrite:   cfg.Overwrite,
		Backup:      cfg.Backup,
		RestoreDate: cfg.RestoreDate,
		TextFile:    cfg.TextFile,
	}, set.Poppler, logger)
	p := pipeline.New(set, files, pipeline.Options{
		SkipSearchable: cfg.SkipSearchable,
		StrictMetadata: cfg.StrictMetadata,
		Page:           img.PageOptions{Grayscale: cfg.Grayscale, MaxWidth: cfg.MaxPageWidth},
	}, logger)

	work, err := batch.NewWorkDir("")
	if err != nil {
		logger.Error("create work dir", "err", err)
		return 1
	}
	defer func() {
		if err := work.Remove(); err != nil {
			logger.Warn("remove work dir", "work_dir", work.Path(), "err", err)
		}
	}()

	var notifier batch.Notifier
	if cfg.NATSURL != "" {
		nc, err := bus.Connect(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			logger.Warn("connect to NATS failed, events disabled", "nats_url", cfg.NATSURL, "err", err)
		} else {
			logger.Info("connected to NATS", "nats_url", cfg.NATSURL, "subject", cfg.NATSSubject)
			defer nc.Close()
			notifier = nc
		}
	}

	interactive := !cfg.NonInteractive && isatty.IsTerminal(os.Stdin.Fd())
	opts := batch.Options{ContinueAfterError: cfg.Continue}
	if interactive {
		opts.OnFatal = func(job *process.Job) {
			pause(stdout, os.Stdin, "Press Enter to continue...")
		}
	}

	res, runErr := batch.NewDriver(p, work, notifier, opts, logger).Run(ctx, inputs)
	if err := res.WriteSummary(stdout); err != nil {
		logger.Warn("print summary", "err", err)
	}

	if cfg.ReportPath != "" {
		if err := report.Write(cfg.ReportPath, report.Build(res)); err != nil {
			logger.Error("write report", "report", cfg.ReportPath, "err", err)
		} else {
			logger.Info("report written", "report", cfg.ReportPath)
		}
	}

	if interactive {
		pause(stdout, os.Stdin, "Press Enter to exit...")
	}

	if runErr != nil {
		logger.Error("run aborted", "err", runErr)
		return 1
	}
	return 0
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    noColor,
	}))
}

func printUsage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprint(w, usageHeader)
	fmt.Fprint(w, fs.FlagUsages())
	fmt.Fprint(w, "\nEnvironment: CREATE_TEXT_FILE, OVERWRITE_ORIGINAL, CREATE_BACKUP, RESTORE_DATE,\n"+
		"CONTINUE_AFTER_ERROR, SKIP_SEARCHABLE, OCR_LANG, RASTER_DPI, TOOL_TIMEOUT, PAGE_GRAYSCALE,\n"+
		"PAGE_MAX_WIDTH, STRICT_METADATA, REPORT_PATH, LOG_LEVEL, NATS_URL, NATS_SUBJECT,\n"+
		"PDFTOPPM_BIN, PDFTOTEXT_BIN, TESSERACT_BIN, PDFTK_BIN, GHOSTSCRIPT_BIN\n")
}

func pause(w io.Writer, r io.Reader, prompt string) {
	fmt.Fprintln(w, prompt)
	_, _ = bufio.NewReader(r).ReadString('\n')
}

func fatal(logger *slog.Logger, msg string, err error, attrs ...any) {
	attrs = append(attrs, "err", err)
	logger.Error(msg, attrs...)
	os.Exit(1)
}
