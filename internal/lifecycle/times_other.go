//go:build !linux && !darwin && !windows

package lifecycle

import "os"

func fileTimes(_ string, info os.FileInfo) Times {
	return Times{Modified: info.ModTime(), Accessed: info.ModTime()}
}

func restoreTimes(path string, t Times) error {
	return os.Chtimes(path, t.Accessed, t.Modified)
}
