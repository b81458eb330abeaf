package xfile

import (
	"fmt"
	"path/filepath"
	"strings"
)

// containsNullByte 检测路径是否包含空字节。
func containsNullByte(path string) bool {
	return strings.ContainsRune(path, 0)
}

// hasDotDotSegment 检测路径中是否存在恰好为 ".." 的路径段。
// '/' 与 '\' 都视为分隔符，以便在 Linux 上也能识别 Windows 风格的穿越。
func hasDotDotSegment(path string) bool {
	i := 0
	for i < len(path) {
		if path[i] == '/' || path[i] == '\\' {
			i++
			continue
		}
		j := i
		for j < len(path) && path[j] != '/' && path[j] != '\\' {
			j++
		}
		if j-i == 2 && path[i] == '.' && path[i+1] == '.' {
			return true
		}
		i = j
	}
	return false
}

// SanitizePath 规范化文件路径并做格式检查。
//
// 拒绝：空路径、空字节、以分隔符结尾的目录路径、规范化后仍含 ".." 段的相对路径。
// 接受绝对路径；绝对路径中的 ".." 会被 filepath.Clean 正常消解。
//
// 本函数只做格式净化，不把路径限制在某个目录之内。
func SanitizePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	if containsNullByte(filename) {
		return "", fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}
	// 必须在 Clean 之前检查，Clean 会去掉尾部分隔符
	if strings.HasSuffix(filename, "/") || strings.HasSuffix(filename, "\\") {
		return "", fmt.Errorf("path is a directory: %w", ErrInvalidPath)
	}

	cleaned := filepath.Clean(filename)
	if hasDotDotSegment(cleaned) {
		return "", fmt.Errorf("path traversal in filename: %w", ErrPathTraversal)
	}

	base := filepath.Base(cleaned)
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("no file name specified: %w", ErrInvalidPath)
	}
	return cleaned, nil
}

// JoinName 将单个文件名拼接到目录 dir 下。
//
// name 必须是单个路径段：不能为空、不能含 '/' 或 '\'、不能是 "." 或 ".."、
// 不能含空字节。归档目录的列举结果与生成的归档名都经过这里，
// 因此任何结果都保证落在 dir 之内。
func JoinName(dir, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("directory is required: %w", ErrEmptyPath)
	}
	if name == "" {
		return "", fmt.Errorf("name is required: %w", ErrEmptyPath)
	}
	if containsNullByte(dir) || containsNullByte(name) {
		return "", fmt.Errorf("path contains null byte: %w", ErrNullByte)
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	return filepath.Join(dir, name), nil
}

// Stem 返回去掉最后一个扩展名后的路径。
//
//	Stem("/var/log/app.log")     // "/var/log/app"
//	Stem("/var/log/app.tar.log") // "/var/log/app.tar"
//	Stem("/var/log/app")         // "/var/log/app"
//
// 以点开头且没有其他点的文件名（".log"）被视为没有扩展名的隐藏文件。
func Stem(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext == base {
		return path
	}
	return strings.TrimSuffix(path, ext)
}
