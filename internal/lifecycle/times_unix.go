//go:build linux || darwin

package lifecycle

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

func fileTimes(path string, info os.FileInfo) Times {
	t := Times{Modified: info.ModTime(), Accessed: info.ModTime()}
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err == nil {
		t.Accessed = time.Unix(st.Atim.Unix())
	}
	return t
}

func restoreTimes(path string, t Times) error {
	return os.Chtimes(path, t.Accessed, t.Modified)
}
