package tools

import (
	"fmt"
	"strings"
)

// ToolError describes an external tool that exited unsuccessfully.
type ToolError struct {
	Tool     string
	Args     []string
	ExitCode int // -1 when the process never produced an exit status
	Output   string
	Err      error
}

func (e *ToolError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s exited with code %d", e.Tool, e.ExitCode)
	fmt.Fprintf(&b, "\ncommand: %s", CommandLine(e.Tool, e.Args))
	if out := strings.TrimSpace(e.Output); out != "" {
		fmt.Fprintf(&b, "\noutput:\n%s", out)
	}
	return b.String()
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// MissingToolError reports a required program that is not on PATH.
type MissingToolError struct {
	Tool string
	Err  error
}

func (e *MissingToolError) Error() string {
	return fmt.Sprintf("%s is not installed or not in PATH", e.Tool)
}

func (e *MissingToolError) Unwrap() error {
	return e.Err
}
