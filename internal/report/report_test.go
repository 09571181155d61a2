package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tendant/simple-searchable-pdf/internal/batch"
	"github.com/tendant/simple-searchable-pdf/internal/process"
	"github.com/tendant/simple-searchable-pdf/pkg/schema"
)

func sampleResult() batch.Result {
	res := batch.Result{RunID: "run-1", Started: time.Unix(1700000000, 0), Finished: time.Unix(1700000060, 0)}

	ok := process.NewJob("job-1", "/scans/a.pdf")
	process.MarkConverted(ok, "/scans/a.pdf")
	res.Add(ok)

	skip := process.NewJob("job-2", "/scans/b.pdf")
	process.MarkSkipped(skip, "already searchable")
	res.Add(skip)

	bad := process.NewJob("job-3", "/scans/c.pdf")
	process.MarkErrored(bad, errors.New("pdftk exited with code 1"))
	res.Add(bad)
	return res
}

func TestBuild(t *testing.T) {
	rep := Build(sampleResult())
	if rep.Files != 3 || rep.Converted != 1 || rep.Skipped != 1 || rep.Errored != 1 {
		t.Fatalf("unexpected totals: %+v", rep)
	}
	if len(rep.Entries) != 3 || rep.Entries[2].Status != schema.JobStatusErrored || rep.Entries[2].Error == "" {
		t.Fatalf("unexpected entries: %+v", rep.Entries)
	}
	if rep.FinishedAt-rep.StartedAt != 60 {
		t.Fatalf("unexpected run window: %d..%d", rep.StartedAt, rep.FinishedAt)
	}
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	if err := Write(path, Build(sampleResult())); err != nil {
		t.Fatalf("Write: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var got schema.RunReport
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.RunID != "run-1" || len(got.Entries) != 3 || got.Entries[1].Reason != "already searchable" {
		t.Fatalf("unexpected report: %+v", got)
	}
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.XLSX")
	if err := Write(path, Build(sampleResult())); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(jobsSheet)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want header + 3", len(rows))
	}
	if rows[0][0] != "File" || rows[1][0] != "/scans/a.pdf" || rows[3][1] != "errored" {
		t.Fatalf("unexpected rows: %v", rows)
	}

	summary, err := f.GetRows(summarySheet)
	if err != nil {
		t.Fatalf("summary rows: %v", err)
	}
	if summary[1][0] != "Files" || summary[1][1] != "3" || summary[4][1] != "1" {
		t.Fatalf("unexpected summary: %v", summary)
	}
}

func TestWriteRejectsUnknownFormat(t *testing.T) {
	err := Write(filepath.Join(t.TempDir(), "run.csv"), Build(sampleResult()))
	if err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("got %q", got)
	}
	if got := truncate("abcdefghij", 5); got != "abcd…" {
		t.Fatalf("got %q", got)
	}
}
