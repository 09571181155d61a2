package tools

import "os/exec"

// lookPath is the exec.LookPath implementation used by CheckAvailable.
// Tests may replace it to simulate missing binaries.
var lookPath = exec.LookPath

// CheckAvailable verifies every tool resolves on PATH and reports the first
// one that does not.
func CheckAvailable(names ...string) error {
	for _, name := range names {
		if _, err := lookPath(name); err != nil {
			return &MissingToolError{Tool: name, Err: err}
		}
	}
	return nil
}
