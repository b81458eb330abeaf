package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xsink/pkg/config/xconf"
	"github.com/omeyang/xsink/pkg/observability/xlog"
	"github.com/omeyang/xsink/pkg/observability/xrotate"
	"github.com/omeyang/xsink/pkg/util/xjson"
)

// configSection 配置文件中轮转配置所在的节点。
const configSection = "sink"

// defaultFilePath 默认活动文件路径：用户缓存目录下的 xsink/xsink.log。
func defaultFilePath() string {
	dir, err := os.UserCacheDir()
	if err != nil || dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "xsink", "xsink.log")
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "配置文件路径（读取 " + configSection + " 节点）",
		},
		&cli.StringFlag{
			Name:    "file",
			Aliases: []string{"f"},
			Usage:   "活动日志文件路径",
			Value:   defaultFilePath(),
		},
		&cli.StringFlag{
			Name:  "backend",
			Usage: "轮转后端: archive 或 lumberjack",
			Value: xrotate.BackendArchive,
		},
		&cli.Int64Flag{
			Name:  "max-size",
			Usage: "活动文件大小上限（字节）",
			Value: xrotate.DefaultMaxActiveSize,
		},
		&cli.StringFlag{
			Name:  "retention",
			Usage: "保留策略: count 或 age",
			Value: xrotate.CountBound.String(),
		},
		&cli.IntFlag{
			Name:  "max-count",
			Usage: "count 策略下的归档条目数上限（不含活动文件）",
			Value: xrotate.DefaultMaxArchiveCount,
		},
		&cli.DurationFlag{
			Name:  "max-age",
			Usage: "age 策略下的归档最大年龄",
			Value: xrotate.DefaultMaxArchiveAge,
		},
		&cli.BoolFlag{
			Name:  "sync",
			Usage: "每次写入后 fsync",
		},
		&cli.BoolFlag{
			Name:  "utc",
			Usage: "归档名时间戳使用 UTC",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "工具自身日志级别",
			Value: "warn",
		},
		&cli.StringFlag{
			Name:  "log-format",
			Usage: "工具自身日志格式: text 或 json",
			Value: "text",
		},
	}
}

func createCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "write",
			Usage:     "追加若干行",
			ArgsUsage: "<line>...",
			Action:    runWrite,
		},
		{
			Name:  "pipe",
			Usage: "从标准输入逐行追加，直到 EOF 或收到信号",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "watch",
					Usage: "监视配置文件，变更后以新配置重新打开",
				},
				&cli.StringFlag{
					Name:  "sweep",
					Usage: "按 cron 表达式定期清理归档，例如 \"@every 1m\"",
				},
			},
			Action: runPipe,
		},
		{
			Name:   "rotate",
			Usage:  "立即轮转活动文件",
			Action: runRotate,
		},
		{
			Name:  "list",
			Usage: "列出归档条目（序号、时间戳、文件名）",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "json",
					Usage: "以 JSON Lines 格式输出",
				},
			},
			Action: runList,
		},
		{
			Name:   "sweep",
			Usage:  "按保留策略清理归档",
			Action: runSweep,
		},
		{
			Name:   "delete",
			Usage:  "删除活动文件，归档保持不变",
			Action: runDelete,
		},
	}
}

// ============================================================================
// 配置解析
// ============================================================================

// newLogger 构建工具自身的日志器，输出到标准错误。
func newLogger(cmd *cli.Command) (xlog.Logger, error) {
	logger, _, err := xlog.New().
		SetOutput(cmd.Root().ErrWriter).
		SetLevelString(cmd.String("log-level")).
		SetFormat(cmd.String("log-format")).
		Build()
	if err != nil {
		return nil, newUsageError("%v", err)
	}
	return logger.With(xlog.Component("xsinkctl")), nil
}

// loadConfig 加载 --config 指定的配置文件，未指定时返回 nil。
func loadConfig(cmd *cli.Command) (xconf.Config, error) {
	path := cmd.String("config")
	if path == "" {
		return nil, nil
	}
	cfg, err := xconf.New(path)
	if err != nil {
		return nil, newUsageError("加载配置 %s: %v", path, err)
	}
	return cfg, nil
}

// resolveFileConfig 合并配置文件与命令行参数。显式设置的参数优先，
// 配置文件缺失的字段取参数默认值。
func resolveFileConfig(cmd *cli.Command, cfg xconf.Config) (xrotate.FileConfig, error) {
	var fc xrotate.FileConfig
	if cfg != nil {
		loaded, err := xrotate.LoadFileConfig(cfg, configSection)
		if err != nil {
			return xrotate.FileConfig{}, newUsageError("解析配置 %s: %v", cfg.Path(), err)
		}
		fc = loaded
	}

	override := func(name string, empty bool) bool {
		return cmd.IsSet(name) || empty
	}
	if override("file", fc.File == "") {
		fc.File = cmd.String("file")
	}
	if override("backend", fc.Backend == "") {
		fc.Backend = cmd.String("backend")
	}
	if override("max-size", fc.MaxSize == 0) {
		fc.MaxSize = cmd.Int64("max-size")
	}
	if override("retention", fc.Retention == "") {
		fc.Retention = cmd.String("retention")
	}
	if override("max-count", fc.MaxCount == 0) {
		fc.MaxCount = cmd.Int("max-count")
	}
	if override("max-age", fc.MaxAge == 0) {
		fc.MaxAge = cmd.Duration("max-age")
	}
	if cmd.IsSet("sync") {
		fc.Sync = cmd.Bool("sync")
	}
	if cmd.IsSet("utc") {
		fc.UTC = cmd.Bool("utc")
	}
	return fc, nil
}

// sinkEnv 一次命令执行所需的配置与日志器。
type sinkEnv struct {
	cfg    xconf.Config
	fc     xrotate.FileConfig
	logger xlog.Logger
}

func newSinkEnv(cmd *cli.Command) (*sinkEnv, error) {
	logger, err := newLogger(cmd)
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	fc, err := resolveFileConfig(cmd, cfg)
	if err != nil {
		return nil, err
	}
	return &sinkEnv{cfg: cfg, fc: fc, logger: logger}, nil
}

// open 按当前配置打开轮转器。
func (e *sinkEnv) open() (xrotate.Rotator, error) {
	r, err := xrotate.Open(e.fc, xrotate.WithLogger(e.logger))
	if err != nil {
		return nil, asUsageError(err)
	}
	return r, nil
}

// openArchive 打开归档后端，其他后端不支持归档管理命令。
func (e *sinkEnv) openArchive(command string) (*xrotate.File, error) {
	if b := strings.ToLower(e.fc.Backend); b != "" && b != xrotate.BackendArchive {
		return nil, newUsageError("%s 命令仅支持 %s 后端，当前为 %q", command, xrotate.BackendArchive, e.fc.Backend)
	}
	r, err := e.open()
	if err != nil {
		return nil, err
	}
	f, ok := r.(*xrotate.File)
	if !ok {
		_ = r.Close() //nolint:errcheck // 已在错误路径
		return nil, newUsageError("%s 命令仅支持 %s 后端", command, xrotate.BackendArchive)
	}
	return f, nil
}

// writeLine 追加一行。
func writeLine(w io.Writer, line string) error {
	if f, ok := w.(*xrotate.File); ok {
		return f.WriteLine(line)
	}
	_, err := io.WriteString(w, line+"\n")
	return err
}

// ============================================================================
// 命令实现
// ============================================================================

func runWrite(_ context.Context, cmd *cli.Command) (err error) {
	lines := cmd.Args().Slice()
	if len(lines) == 0 {
		return newUsageError("write 需要至少一行内容")
	}
	env, err := newSinkEnv(cmd)
	if err != nil {
		return err
	}
	r, err := env.open()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := r.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for _, line := range lines {
		if err := writeLine(r, line); err != nil {
			return err
		}
	}
	return nil
}

func runRotate(_ context.Context, cmd *cli.Command) error {
	env, err := newSinkEnv(cmd)
	if err != nil {
		return err
	}
	r, err := env.open()
	if err != nil {
		return err
	}
	defer func() { _ = r.Close() }() //nolint:errcheck // 轮转结果已返回

	out := cmd.Root().Writer
	f, ok := r.(*xrotate.File)
	if !ok {
		if err := r.Rotate(); err != nil {
			return err
		}
		fmt.Fprintln(out, "rotated")
		return nil
	}

	res, err := f.RotateResult()
	if err != nil {
		return err
	}
	if !res.Rotated {
		fmt.Fprintln(out, "nothing to rotate")
		return nil
	}
	fmt.Fprintf(out, "rotated: %s (%d -> %d bytes, evicted %d, shifted %d)\n",
		res.Path, res.RawBytes, res.ArchiveBytes, res.Evicted, res.Shifted)
	return nil
}

// listItem list --json 的输出行。
type listItem struct {
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
	Label     string    `json:"label"`
	Name      string    `json:"name"`
}

func runList(_ context.Context, cmd *cli.Command) error {
	env, err := newSinkEnv(cmd)
	if err != nil {
		return err
	}
	f, err := env.openArchive("list")
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // 只读命令

	entries, err := f.Entries()
	if err != nil {
		return err
	}
	out := cmd.Root().Writer
	if cmd.Bool("json") {
		items := make([]listItem, 0, len(entries))
		for _, e := range entries {
			items = append(items, listItem{Index: e.Index, Timestamp: e.Timestamp, Label: e.Label, Name: e.Name})
		}
		return xjson.WriteLines(out, items)
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%d\t%s\t%s\n", e.Index, e.Label, e.Name)
	}
	return nil
}

func runSweep(_ context.Context, cmd *cli.Command) error {
	env, err := newSinkEnv(cmd)
	if err != nil {
		return err
	}
	f, err := env.openArchive("sweep")
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // 清理结果已返回

	n, err := f.Sweep()
	fmt.Fprintf(cmd.Root().Writer, "evicted %d\n", n)
	return err
}

func runDelete(_ context.Context, cmd *cli.Command) error {
	env, err := newSinkEnv(cmd)
	if err != nil {
		return err
	}
	f, err := env.openArchive("delete")
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // 删除结果已返回

	return f.DeleteActiveFile()
}
