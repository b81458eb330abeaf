package xrotate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// fileOps 归档过程使用的文件系统操作，测试中可替换以注入失败。
type fileOps struct {
	remove   func(name string) error
	rename   RenameFunc
	truncate func(name string, size int64) error
	readFile func(name string) ([]byte, error)
	readDir  func(name string) ([]os.DirEntry, error)
}

func defaultFileOps() fileOps {
	return fileOps{
		remove:   os.Remove,
		rename:   renameNoReplace,
		truncate: os.Truncate,
		readFile: os.ReadFile,
		readDir:  os.ReadDir,
	}
}

// renameIfAbsent 先检查目标不存在再重命名。检查与重命名之间不是原子的，
// 调用方持有目录锁。
func renameIfAbsent(oldpath, newpath string) error {
	if _, err := os.Lstat(newpath); err == nil {
		return fmt.Errorf("%w: %s: %w", ErrShiftCollision, newpath, fs.ErrExist)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.Rename(oldpath, newpath)
}
