//go:build !linux && !darwin

package xrotate

import (
	"os"
	"time"
)

// birthTime 没有可移植的创建时间，使用修改时间。
func birthTime(_ string, info os.FileInfo) time.Time {
	return info.ModTime()
}

func renameNoReplace(oldpath, newpath string) error {
	return renameIfAbsent(oldpath, newpath)
}
