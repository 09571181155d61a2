package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"

	"github.com/tendant/simple-searchable-pdf/internal/bus"
	"github.com/tendant/simple-searchable-pdf/internal/converters"
)

type config struct {
	TextFile       bool
	Overwrite      bool
	Backup         bool
	RestoreDate    bool
	Continue       bool
	SkipSearchable bool
	NonInteractive bool

	Lang           string
	DPI            int
	ToolTimeout    time.Duration
	Grayscale      bool
	MaxPageWidth   int
	StrictMetadata bool

	ReportPath  string
	LogLevel    slog.Level
	NATSURL     string
	NATSSubject string
	Binaries    converters.Binaries

	Inputs []string
}

// loadConfig resolves defaults, then the environment (including .env), then
// args. The flag set is returned so callers can print usage; on -h/--help the
// error is pflag.ErrHelp.
func loadConfig(args []string) (config, *pflag.FlagSet, error) {
	fs := pflag.NewFlagSet("searchable-pdf", pflag.ContinueOnError)
	fs.SortFlags = false
	fs.SetInterspersed(true)
	fs.Usage = func() {}

	cfg, err := configFromEnv()
	if err != nil {
		return config{}, fs, err
	}

	var logLevel string
	fs.BoolVarP(&cfg.TextFile, "text-file", "t", cfg.TextFile, "also write <name>_searchable.txt with the recognized text")
	fs.BoolVarP(&cfg.Overwrite, "overwrite", "o", cfg.Overwrite, "replace the original file instead of writing <name>_searchable.pdf")
	fs.BoolVarP(&cfg.Backup, "backup", "b", cfg.Backup, "keep the original as <name>_original.pdf when overwriting")
	fs.BoolVarP(&cfg.RestoreDate, "restore-date", "r", cfg.RestoreDate, "copy the original timestamps onto the result")
	fs.BoolVarP(&cfg.Continue, "continue", "c", cfg.Continue, "continue with the next file after an error")
	fs.BoolVarP(&cfg.SkipSearchable, "skip-searchable", "s", cfg.SkipSearchable, "skip files that already contain text")
	fs.StringVarP(&cfg.Lang, "lang", "l", cfg.Lang, "tesseract recognition language")
	fs.IntVar(&cfg.DPI, "dpi", cfg.DPI, "rasterization resolution")
	fs.DurationVar(&cfg.ToolTimeout, "tool-timeout", cfg.ToolTimeout, "kill a tool that runs longer than this (0 = no limit)")
	fs.BoolVar(&cfg.Grayscale, "grayscale", cfg.Grayscale, "convert page images to grayscale before OCR")
	fs.IntVar(&cfg.MaxPageWidth, "max-page-width", cfg.MaxPageWidth, "downscale wider page images to this many pixels (0 = off)")
	fs.BoolVar(&cfg.StrictMetadata, "strict-metadata", cfg.StrictMetadata, "fail a file when its metadata cannot be dumped")
	fs.StringVar(&cfg.ReportPath, "report", cfg.ReportPath, "write a run report (.json or .xlsx)")
	fs.StringVar(&logLevel, "log-level", cfg.LogLevel.String(), "debug, info, warn or error")
	fs.BoolVar(&cfg.NonInteractive, "non-interactive", cfg.NonInteractive, "never wait for a key press")

	if err := fs.Parse(args); err != nil {
		return config{}, fs, err
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(logLevel)); err != nil {
		return config{}, fs, fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	if cfg.DPI <= 0 {
		return config{}, fs, fmt.Errorf("dpi must be greater than zero (got %d)", cfg.DPI)
	}
	if cfg.MaxPageWidth < 0 {
		return config{}, fs, fmt.Errorf("max-page-width must not be negative (got %d)", cfg.MaxPageWidth)
	}
	if cfg.ToolTimeout < 0 {
		return config{}, fs, fmt.Errorf("tool-timeout must not be negative (got %s)", cfg.ToolTimeout)
	}
	if strings.TrimSpace(cfg.Lang) == "" {
		return config{}, fs, fmt.Errorf("lang must not be empty")
	}
	cfg.Inputs = fs.Args()
	return cfg, fs, nil
}

func configFromEnv() (config, error) {
	cfg := config{
		Lang:        getenv("OCR_LANG", converters.DefaultLanguage),
		ReportPath:  getenv("REPORT_PATH", ""),
		NATSURL:     getenv("NATS_URL", ""),
		NATSSubject: getenv("NATS_SUBJECT", bus.DefaultSubject),
		Binaries: converters.Binaries{
			Pdftoppm:    getenv("PDFTOPPM_BIN", ""),
			Pdftotext:   getenv("PDFTOTEXT_BIN", ""),
			Tesseract:   getenv("TESSERACT_BIN", ""),
			Pdftk:       getenv("PDFTK_BIN", ""),
			Ghostscript: getenv("GHOSTSCRIPT_BIN", ""),
		}.WithDefaults(),
	}

	bools := []struct {
		key string
		def bool
		dst *bool
	}{
		{"CREATE_TEXT_FILE", false, &cfg.TextFile},
		{"OVERWRITE_ORIGINAL", true, &cfg.Overwrite},
		{"CREATE_BACKUP", true, &cfg.Backup},
		{"RESTORE_DATE", true, &cfg.RestoreDate},
		{"CONTINUE_AFTER_ERROR", true, &cfg.Continue},
		{"SKIP_SEARCHABLE", true, &cfg.SkipSearchable},
		{"PAGE_GRAYSCALE", false, &cfg.Grayscale},
		{"STRICT_METADATA", false, &cfg.StrictMetadata},
		{"NON_INTERACTIVE", false, &cfg.NonInteractive},
	}
	for _, b := range bools {
		v, err := getenvBool(b.key, b.def)
		if err != nil {
			return config{}, err
		}
		*b.dst = v
	}

	dpi, err := parsePositiveInt(getenv("RASTER_DPI", "300"), "RASTER_DPI")
	if err != nil {
		return config{}, err
	}
	cfg.DPI = dpi

	width, err := parseNonNegativeInt(getenv("PAGE_MAX_WIDTH", "0"), "PAGE_MAX_WIDTH")
	if err != nil {
		return config{}, err
	}
	cfg.MaxPageWidth = width

	timeout, err := parseTimeout(getenv("TOOL_TIMEOUT", "0"), "TOOL_TIMEOUT")
	if err != nil {
		return config{}, err
	}
	cfg.ToolTimeout = timeout

	if err := cfg.LogLevel.UnmarshalText([]byte(getenv("LOG_LEVEL", "info"))); err != nil {
		return config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return cfg, nil
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvBool(key string, defaultValue bool) (bool, error) {
	val := getenv(key, "")
	if val == "" {
		return defaultValue, nil
	}
	b, err := cast.ToBoolE(strings.ToLower(strings.TrimSpace(val)))
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func parsePositiveInt(value string, name string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be greater than zero (got %d)", name, v)
	}
	return v, nil
}

func parseNonNegativeInt(value string, name string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative (got %d)", name, v)
	}
	return v, nil
}

// parseTimeout accepts a Go duration ("90s", "2m") or a plain number of
// seconds.
func parseTimeout(value string, name string) (time.Duration, error) {
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("%s must not be negative (got %d)", name, secs)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative (got %s)", name, d)
	}
	return d, nil
}
