//go:build darwin

package xrotate

import (
	"os"
	"time"

	"golang.org/x/sys/unix"
)

func birthTime(path string, info os.FileInfo) time.Time {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err == nil {
		return time.Unix(st.Birthtimespec.Unix())
	}
	return info.ModTime()
}

func renameNoReplace(oldpath, newpath string) error {
	return renameIfAbsent(oldpath, newpath)
}
