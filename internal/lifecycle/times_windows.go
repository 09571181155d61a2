//go:build windows

package lifecycle

import (
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/windows"
)

func fileTimes(_ string, info os.FileInfo) Times {
	t := Times{Modified: info.ModTime(), Accessed: info.ModTime()}
	if d, ok := info.Sys().(*syscall.Win32FileAttributeData); ok {
		t.Created = time.Unix(0, d.CreationTime.Nanoseconds())
		t.Accessed = time.Unix(0, d.LastAccessTime.Nanoseconds())
	}
	return t
}

func restoreTimes(path string, t Times) error {
	if t.Created.IsZero() {
		return os.Chtimes(path, t.Accessed, t.Modified)
	}

	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	h, err := windows.CreateFile(p, windows.FILE_WRITE_ATTRIBUTES,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE|windows.FILE_SHARE_DELETE,
		nil, windows.OPEN_EXISTING, windows.FILE_FLAG_BACKUP_SEMANTICS, 0)
	if err != nil {
		return &os.PathError{Op: "open", Path: path, Err: err}
	}
	defer windows.CloseHandle(h)

	c := windows.NsecToFiletime(t.Created.UnixNano())
	a := windows.NsecToFiletime(t.Accessed.UnixNano())
	m := windows.NsecToFiletime(t.Modified.UnixNano())
	if err := windows.SetFileTime(h, &c, &a, &m); err != nil {
		return &os.PathError{Op: "settime", Path: path, Err: err}
	}
	return nil
}
