package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/omeyang/xsink/pkg/observability/xrotate"
)

// exitError 表示需要非零退出码但已完成输出的场景。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return "" }

// usageError 参数错误，映射为退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func newUsageError(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// cliUsageMarkers urfave/cli 参数解析错误消息的特征片段。
var cliUsageMarkers = []string{
	"flag provided but not defined",
	"flag needs an argument",
	"invalid value",
	"invalid boolean",
	"required flag",
	"no help topic",
	"command not found",
}

// isCLIUsageError 判断 err 是否为框架产生的参数解析错误。
//
// urfave/cli 未导出参数错误类型，只能按消息匹配。
func isCLIUsageError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range cliUsageMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// configErrors 属于配置问题的 xrotate 错误。
var configErrors = []error{
	xrotate.ErrEmptyFilename,
	xrotate.ErrInvalidFilename,
	xrotate.ErrInvalidMaxSize,
	xrotate.ErrInvalidMaxCount,
	xrotate.ErrInvalidMaxAge,
	xrotate.ErrInvalidRetention,
	xrotate.ErrInvalidFileMode,
	xrotate.ErrInvalidLevel,
	xrotate.ErrInvalidBackend,
}

// asUsageError 将配置类错误转换为 usageError，其余原样返回。
func asUsageError(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range configErrors {
		if errors.Is(err, target) {
			return &usageError{msg: err.Error()}
		}
	}
	return err
}
