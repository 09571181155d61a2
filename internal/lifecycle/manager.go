package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Policy holds the file handling toggles of a run.
type Policy struct {
	Overwrite   bool // replace the original in place
	Backup      bool // keep the original as <base>_original.pdf when overwriting
	RestoreDate bool // copy the original timestamps onto the result
	TextFile    bool // write <base>_searchable.txt
}

// TextExporter writes the text layer of a PDF to a file.
type TextExporter interface {
	ExportText(ctx context.Context, workDir, pdf, txtPath string) error
}

// Manager applies a Policy to jobs.
type Manager struct {
	policy Policy
	text   TextExporter
	logger *slog.Logger
}

// NewManager creates a manager. text may be nil when Policy.TextFile is off.
func NewManager(policy Policy, text TextExporter, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{policy: policy, text: text, logger: logger}
}

// Policy returns the policy the manager applies.
func (m *Manager) Policy() Policy {
	return m.policy
}

// FinalPath is where the searchable document of job ends up.
func (m *Manager) FinalPath(job *Job) string {
	if m.policy.Overwrite {
		return job.Source
	}
	return job.Output
}

// Check fails with ErrConflict when committing job would overwrite an
// existing backup or output file. Nothing is modified.
func (m *Manager) Check(job *Job) error {
	var target string
	switch {
	case m.policy.Overwrite && m.policy.Backup:
		target = job.Backup
	case m.policy.Overwrite:
		return nil
	default:
		target = job.Output
	}

	_, err := os.Lstat(target)
	switch {
	case err == nil:
		return fmt.Errorf("%w: %s", ErrConflict, target)
	case errors.Is(err, os.ErrNotExist):
		return nil
	default:
		return fmt.Errorf("check %s: %w", target, err)
	}
}

// Commit moves result (the assembled PDF in the working directory) to its
// final location and restores timestamps. It returns the final path.
func (m *Manager) Commit(job *Job, result string) (string, error) {
	if err := m.Check(job); err != nil {
		return "", err
	}

	final := m.FinalPath(job)
	switch {
	case m.policy.Overwrite && m.policy.Backup:
		if err := os.Rename(job.Source, job.Backup); err != nil {
			return "", fmt.Errorf("back up original: %w", err)
		}
		if err := moveFile(result, job.Source); err != nil {
			if rerr := os.Rename(job.Backup, job.Source); rerr != nil {
				m.logger.Error("could not restore original from backup", "backup", job.Backup, "err", rerr)
			}
			return "", fmt.Errorf("replace original: %w", err)
		}
	case m.policy.Overwrite:
		if err := moveFile(result, job.Source); err != nil {
			return "", fmt.Errorf("replace original: %w", err)
		}
	default:
		if err := moveFile(result, job.Output); err != nil {
			return "", fmt.Errorf("write output: %w", err)
		}
	}

	if m.policy.RestoreDate {
		if err := restoreTimes(final, job.Times); err != nil {
			return final, fmt.Errorf("restore timestamps: %w", err)
		}
	}
	return final, nil
}

// ExportTranscript writes the text of the final document next to it and
// normalizes the transcript to NFC. It is a no-op unless Policy.TextFile.
func (m *Manager) ExportTranscript(ctx context.Context, workDir string, job *Job) error {
	if !m.policy.TextFile {
		return nil
	}
	if m.text == nil {
		return errors.New("no text exporter configured")
	}
	if err := m.text.ExportText(ctx, workDir, m.FinalPath(job), job.Transcript); err != nil {
		return err
	}

	raw, err := os.ReadFile(job.Transcript)
	if err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}
	if norm.NFC.IsNormal(raw) {
		return nil
	}
	if err := os.WriteFile(job.Transcript, norm.NFC.Bytes(raw), 0o644); err != nil {
		return fmt.Errorf("normalize transcript: %w", err)
	}
	return nil
}

// moveFile renames src to dst, copying when the two are on different
// filesystems. dst is replaced atomically in both cases.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	} else if _, serr := os.Stat(src); serr != nil {
		return err
	}

	tmp := filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+"."+uuid.NewString()+".tmp")
	if err := copyFile(src, tmp); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
