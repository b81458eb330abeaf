// xsinkctl 是 xsink 轮转日志的命令行工具。
//
// 用法:
//
//	xsinkctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config      配置文件路径（yaml/json，读取 sink 节点）
//	-f, --file        活动日志文件路径 (默认: <用户缓存目录>/xsink/xsink.log)
//	    --backend     轮转后端: archive 或 lumberjack (默认: archive)
//	    --max-size    活动文件大小上限，字节 (默认: 5242880)
//	    --retention   保留策略: count 或 age (默认: count)
//	    --max-count   count 策略下的归档条目数上限 (默认: 100)
//	    --max-age     age 策略下的归档最大年龄 (默认: 1h)
//	    --sync        每次写入后 fsync
//	    --utc         归档名时间戳使用 UTC
//	    --log-level   工具自身日志级别 (默认: warn)
//	    --log-format  工具自身日志格式: text 或 json (默认: text)
//
// 命令:
//
//	write <line>...   追加若干行
//	pipe              从标准输入逐行追加，直到 EOF 或收到信号
//	rotate            立即轮转活动文件
//	list [--json]     列出归档条目
//	sweep             按保留策略清理归档
//	delete            删除活动文件
//	help              显示帮助信息
//
// 命令行参数覆盖配置文件中的同名字段。工具自身日志写入标准错误，
// 不会写入被管理的日志文件。
//
// 退出码:
//
//	0: 命令执行成功
//	1: 命令执行失败（I/O 错误、轮转失败等）
//	2: 参数错误（无效配置、缺少必需参数、未知命令等）
//
// 示例:
//
//	xsinkctl -f /var/log/app.log write "service started"
//	tail -F upstream.log | xsinkctl -f /var/log/app.log pipe
//	xsinkctl -c sink.yaml pipe --watch --sweep "@every 1m"
//	xsinkctl -f /var/log/app.log --retention age --max-age 24h sweep
//	xsinkctl -f /var/log/app.log list
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
)

// 版本信息（可通过 -ldflags 注入，例如:
//
//	go build -ldflags "-X main.Version=1.0.0 -X main.GitCommit=$(git rev-parse --short HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// ）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run(context.Background(), os.Args, os.Stdin, os.Stdout, os.Stderr))
}

// createApp 创建 CLI 应用。
func createApp(stdin io.Reader, stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "xsinkctl",
		Usage:     "按大小轮转、按数量或年龄保留的日志写入工具",
		Version:   fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Flags:     globalFlags(),
		Commands:  createCommands(),
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		// 设计决策: 禁止 urfave/cli 直接调用 os.Exit，
		// 由 run() 统一处理退出码映射。
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(stderr, err)
			}
		},
		DefaultCommand: "help",
		Description: `xsinkctl 将文本行追加到活动日志文件。文件超过大小上限后被压缩为
<名称>-<yyyy-MM-dd HH:mm:ss>-<序号>.gz 归档，序号 1 为最新。

保留策略:
  count    归档条目数不超过 --max-count，活动文件不计入
  age      删除时间戳与当前时间相差超过 --max-age 的归档`,
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	app := createApp(stdin, stdout, stderr)

	if err := app.Run(ctx, args); err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		var usageErr *usageError
		if errors.As(err, &usageErr) {
			fmt.Fprintf(stderr, "参数错误: %v\n", usageErr)
			return 2
		}
		if isCLIUsageError(err) {
			// 框架已输出错误详情
			return 2
		}
		fmt.Fprintf(stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}
