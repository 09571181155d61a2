// Package report writes a per-run record of every job as JSON or XLSX.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/tendant/simple-searchable-pdf/internal/batch"
	"github.com/tendant/simple-searchable-pdf/pkg/schema"
)

const (
	jobsSheet    = "Jobs"
	summarySheet = "Summary"
)

// Build converts a batch result into its report form.
func Build(res batch.Result) schema.RunReport {
	rep := schema.RunReport{
		RunID:      res.RunID,
		StartedAt:  res.Started.Unix(),
		FinishedAt: res.Finished.Unix(),
		Files:      res.Files,
		Converted:  res.Converted,
		Skipped:    res.Skipped,
		Errored:    res.Errored,
		Entries:    make([]schema.ReportEntry, 0, len(res.Jobs)),
	}
	for _, j := range res.Jobs {
		rep.Entries = append(rep.Entries, schema.ReportEntry{
			JobID:      j.ID,
			SourcePath: j.Source,
			OutputPath: j.Output,
			Status:     schema.JobStatus(j.Status),
			Reason:     j.Reason,
			Error:      j.Error,
			DurationMs: j.Duration().Milliseconds(),
		})
	}
	return rep
}

// Write stores rep at path; the extension picks the format.
func Write(path string, rep schema.RunReport) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return writeJSON(path, rep)
	case ".xlsx":
		return writeXLSX(path, rep)
	default:
		return fmt.Errorf("unsupported report format %q (use .json or .xlsx)", filepath.Ext(path))
	}
}

func writeJSON(path string, rep schema.RunReport) error {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func writeXLSX(path string, rep schema.RunReport) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", jobsSheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}

	headers := []string{"File", "Status", "Output", "Reason", "Error", "Duration (ms)"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(jobsSheet, cell, h)
	}
	for r, e := range rep.Entries {
		row := []any{e.SourcePath, string(e.Status), e.OutputPath, e.Reason, truncate(e.Error, 2000), e.DurationMs}
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			_ = f.SetCellValue(jobsSheet, cell, v)
		}
	}
	_ = f.SetColWidth(jobsSheet, "A", "A", 60)
	_ = f.SetColWidth(jobsSheet, "B", "B", 12)
	_ = f.SetColWidth(jobsSheet, "C", "C", 60)
	_ = f.SetColWidth(jobsSheet, "D", "E", 40)

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	summary := [][]any{
		{"Run", rep.RunID},
		{"Files", rep.Files},
		{"Converted", rep.Converted},
		{"Skipped", rep.Skipped},
		{"Errors", rep.Errored},
	}
	for r, row := range summary {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(summarySheet, cell, v)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

// truncate keeps long tool output inside the cell size limit.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
