package xfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultDirPerm 默认目录权限（rwxr-x---），符合 gosec G301 建议。
const DefaultDirPerm = 0750

// EnsureDir 确保文件的父目录存在，使用 [DefaultDirPerm]。
// 目录已存在时不报错，也不修改其权限。
func EnsureDir(filename string) error {
	return EnsureDirWithPerm(filename, DefaultDirPerm)
}

// EnsureDirWithPerm 确保文件的父目录存在，使用指定权限。
//
// perm 必须包含所有者执行位（0100）。底层使用 os.MkdirAll，会跟随符号链接；
// 不可信输入应先经 [SanitizePath] 处理。
func EnsureDirWithPerm(filename string, perm os.FileMode) error {
	if filename == "" {
		return fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		if containsNullByte(filename) {
			return fmt.Errorf("filename contains null byte: %w", ErrNullByte)
		}
		return nil
	}
	return EnsureDirPathWithPerm(dir, perm)
}

// EnsureDirPath 确保目录 dir 本身存在，使用 [DefaultDirPerm]。
func EnsureDirPath(dir string) error {
	return EnsureDirPathWithPerm(dir, DefaultDirPerm)
}

// EnsureDirPathWithPerm 确保目录 dir 本身存在，使用指定权限。
//
// dir 已存在但不是目录时返回错误（包装 [ErrInvalidPath]）。
func EnsureDirPathWithPerm(dir string, perm os.FileMode) error {
	if dir == "" {
		return fmt.Errorf("directory is required: %w", ErrEmptyPath)
	}
	if containsNullByte(dir) {
		return fmt.Errorf("directory contains null byte: %w", ErrNullByte)
	}
	if perm&0100 == 0 {
		return fmt.Errorf("directory permission %04o missing owner execute bit: %w", perm, ErrInvalidPerm)
	}
	if info, err := os.Stat(dir); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%s exists and is not a directory: %w", dir, ErrInvalidPath)
		}
		return nil
	}
	return os.MkdirAll(dir, perm)
}
