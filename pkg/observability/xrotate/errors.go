package xrotate

import (
	"errors"
	"fmt"
)

// 配置校验错误
var (
	// ErrEmptyFilename 文件名为空
	ErrEmptyFilename = errors.New("xrotate: filename is required")

	// ErrInvalidFilename 文件名没有扩展名，归档目录会与活动文件重名
	ErrInvalidFilename = errors.New("xrotate: filename must have an extension")

	// ErrInvalidMaxSize MaxActiveSize 必须 >= 1
	ErrInvalidMaxSize = errors.New("xrotate: invalid MaxActiveSize")

	// ErrInvalidMaxCount MaxArchiveCount 必须 >= 1
	ErrInvalidMaxCount = errors.New("xrotate: invalid MaxArchiveCount")

	// ErrInvalidMaxAge AgeBound 模式下 MaxArchiveAge 必须 > 0
	ErrInvalidMaxAge = errors.New("xrotate: invalid MaxArchiveAge")

	// ErrInvalidRetention 未知的保留策略
	ErrInvalidRetention = errors.New("xrotate: invalid retention mode")

	// ErrInvalidFileMode FileMode 包含非权限位（仅允许低 9 位 0000~0777）
	ErrInvalidFileMode = errors.New("xrotate: invalid FileMode")

	// ErrInvalidLevel 压缩级别无效
	ErrInvalidLevel = errors.New("xrotate: invalid compression level")

	// ErrInvalidBackend 未知的后端
	ErrInvalidBackend = errors.New("xrotate: invalid backend")
)

// 运行时错误
var (
	// ErrClosed 轮转器已关闭
	ErrClosed = errors.New("xrotate: rotator is closed")

	// ErrIOFailure 创建、打开、写入、重命名或删除失败
	ErrIOFailure = errors.New("xrotate: io failure")

	// ErrCompressFailure 压缩失败，本次轮转中止
	ErrCompressFailure = errors.New("xrotate: compress failure")

	// ErrNamingCorruption 归档文件名不符合 <base>-<timestamp>-<index>.gz
	ErrNamingCorruption = errors.New("xrotate: malformed archive name")

	// ErrShiftCollision 移位的目标 index 已被占用
	ErrShiftCollision = errors.New("xrotate: shift target occupied")

	// ErrRotationSuppressed 熔断器打开，本次轮转被跳过
	ErrRotationSuppressed = errors.New("xrotate: rotation suppressed")
)

// StageError 描述轮转在哪个阶段、对哪个路径失败。
type StageError struct {
	Stage Stage
	Path  string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("xrotate: %s %s: %v", e.Stage, e.Path, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
