package xfile

import "errors"

var (
	// ErrEmptyPath 表示必需的路径参数为空。
	ErrEmptyPath = errors.New("xfile: path is required")

	// ErrInvalidPath 表示路径格式无效（如以分隔符结尾的目录路径）。
	ErrInvalidPath = errors.New("xfile: invalid path")

	// ErrPathTraversal 表示路径中存在 ".." 路径段。
	ErrPathTraversal = errors.New("xfile: path traversal detected")

	// ErrInvalidName 表示文件名不是单个路径段（含分隔符、为 "." 或 ".."）。
	ErrInvalidName = errors.New("xfile: invalid file name")

	// ErrNullByte 表示路径中包含空字节（\x00）。
	ErrNullByte = errors.New("xfile: path contains null byte")

	// ErrInvalidPerm 表示目录权限缺少所有者执行位，目录将无法遍历。
	ErrInvalidPerm = errors.New("xfile: invalid directory permission")
)
