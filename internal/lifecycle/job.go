// Package lifecycle decides where a converted document ends up and protects
// existing files: backups are never overwritten, prior output is never
// clobbered and the original timestamps survive the conversion.
package lifecycle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Suffixes appended to the source base name.
const (
	BackupSuffix     = "_original"
	OutputSuffix     = "_searchable"
	TranscriptSuffix = "_searchable"
)

// ErrConflict marks a job that would overwrite a backup or earlier output.
var ErrConflict = errors.New("conflicting file exists")

// Times are the timestamps captured from the source before any mutation.
// Created is zero where the platform does not expose a birth time.
type Times struct {
	Modified time.Time
	Accessed time.Time
	Created  time.Time
}

// Job is one input document and the paths derived from it.
type Job struct {
	Source     string
	Output     string
	Backup     string
	Transcript string
	Times      Times
}

// NewJob resolves path and captures its timestamps.
func NewJob(path string) (*Job, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", abs, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", abs)
	}

	base := strings.TrimSuffix(abs, filepath.Ext(abs))
	return &Job{
		Source:     abs,
		Output:     base + OutputSuffix + ".pdf",
		Backup:     base + BackupSuffix + ".pdf",
		Transcript: base + TranscriptSuffix + ".txt",
		Times:      fileTimes(abs, info),
	}, nil
}

// IsArtifact reports whether name looks like a file this tool produced.
func IsArtifact(name string) bool {
	stem := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	return strings.HasSuffix(stem, BackupSuffix) || strings.HasSuffix(stem, OutputSuffix)
}
