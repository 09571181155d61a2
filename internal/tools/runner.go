// Package tools runs the external programs the pipeline is built on and
// captures their output for diagnostics.
package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// waitDelay caps how long Run waits for output pipes after the tool was
// killed; grandchildren may keep them open.
const waitDelay = 2 * time.Second

// Runner lets us stub external commands in tests.
type Runner interface {
	// Run executes name with args inside dir and blocks until it exits.
	// A non-zero exit is reported as a *ToolError.
	Run(ctx context.Context, dir, name string, args ...string) (Output, error)
}

// Output holds what a tool wrote. Combined interleaves stdout and stderr in
// the order they arrived.
type Output struct {
	Stdout   []byte
	Combined []byte
}

// ExecRunner runs tools with os/exec.
type ExecRunner struct {
	// Timeout bounds a single invocation; zero means no limit.
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewExecRunner creates a runner that logs through logger.
func NewExecRunner(timeout time.Duration, logger *slog.Logger) *ExecRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecRunner{Timeout: timeout, Logger: logger}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (Output, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	start := time.Now()
	r.Logger.Debug("running tool", "cmd_line", CommandLine(name, args), "dir", dir)

	var stdout bytes.Buffer
	combined := &lockedBuffer{}
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.WaitDelay = waitDelay
	cmd.Stdout = io.MultiWriter(&stdout, combined)
	cmd.Stderr = combined

	err := cmd.Run()
	dur := time.Since(start)
	out := Output{Stdout: stdout.Bytes(), Combined: combined.Bytes()}

	if err != nil {
		r.Logger.Error("exec failed",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", dur.Milliseconds(),
			"err", err,
			"output", truncate(string(out.Combined), 8<<10),
		)
		return out, newToolError(ctx, name, args, out.Combined, err)
	}

	r.Logger.Debug("exec ok",
		"cmd", name,
		"duration_ms", dur.Milliseconds(),
		"stdout_bytes", len(out.Stdout),
		"output_bytes", len(out.Combined),
	)
	return out, nil
}

func newToolError(ctx context.Context, name string, args []string, output []byte, err error) *ToolError {
	te := &ToolError{
		Tool:     name,
		Args:     append([]string(nil), args...),
		ExitCode: -1,
		Output:   string(output),
		Err:      err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		te.ExitCode = exitErr.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		te.Err = fmt.Errorf("%w: %w", ctxErr, err)
	}
	return te
}

// CommandLine renders a command for logs and error messages, quoting
// arguments that contain whitespace.
func CommandLine(name string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\n\"") {
			a = fmt.Sprintf("%q", a)
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// lockedBuffer serializes writes from the stdout and stderr copiers.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
