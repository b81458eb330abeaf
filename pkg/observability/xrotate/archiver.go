package xrotate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/omeyang/xsink/pkg/observability/xlog"
	"github.com/omeyang/xsink/pkg/observability/xmetrics"
	"github.com/omeyang/xsink/pkg/resilience/xbreaker"
	"github.com/omeyang/xsink/pkg/resilience/xretry"
	"github.com/omeyang/xsink/pkg/util/xfile"
)

// componentName 日志与观测中使用的组件名
const componentName = "xrotate"

// Stage 轮转状态机的阶段。
//
//	Idle → Evicting → Shifting → Compressing → Writing → Finalizing → Idle
//
// 任一阶段不可恢复的失败进入 Aborted，下一次轮转重新从 Idle 开始。
type Stage uint32

const (
	StageIdle Stage = iota
	StageEvicting
	StageShifting
	StageCompressing
	StageWriting
	StageFinalizing
	StageAborted
)

var stageNames = [...]string{
	StageIdle:        "idle",
	StageEvicting:    "evicting",
	StageShifting:    "shifting",
	StageCompressing: "compressing",
	StageWriting:     "writing",
	StageFinalizing:  "finalizing",
	StageAborted:     "aborted",
}

func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", uint32(s))
}

// Result 一次轮转的结果。
type Result struct {
	// Rotated 是否生成了新归档。活动文件不存在时为 false。
	Rotated bool
	// Entry 新归档
	Entry Entry
	// Path 新归档的完整路径
	Path string
	// RawBytes 活动文件大小
	RawBytes int64
	// ArchiveBytes 压缩后大小
	ArchiveBytes int64
	// Evicted 成功删除的旧归档数
	Evicted int
	// EvictFailed 删除失败、仍然保留的旧归档数
	EvictFailed int
	// Shifted 成功移位的归档数
	Shifted int
	// Skipped 因文件名无法解析而跳过的文件数
	Skipped int
}

// Archiver 执行一次完整的轮转：淘汰、移位、压缩、写入归档、删除活动文件。
//
// Archiver 本身不加锁，调用方必须保证同一活动文件的轮转互斥。
// [File] 在持有路径锁期间调用它。
type Archiver struct {
	cfg        Config
	loc        *time.Location
	compressor Compressor
	logger     xlog.Logger
	observer   xmetrics.Observer
	now        func() time.Time
	retryer    *xretry.Retryer
	breaker    *xbreaker.Breaker
	fs         fileOps

	stage atomic.Uint32
}

// NewArchiver 创建归档器。
func NewArchiver(opts ...Option) (*Archiver, error) {
	o, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return newArchiver(o), nil
}

func newArchiver(o *options) *Archiver {
	a := &Archiver{
		cfg:        o.cfg,
		loc:        o.cfg.location(),
		compressor: o.compressor,
		logger:     o.logger.With(xlog.Component(componentName)),
		observer:   o.observer,
		now:        o.now,
		fs:         defaultFileOps(),
	}

	attempts := int(min(o.cfg.IOAttempts, math.MaxInt32)) //nolint:gosec // 已限制范围
	a.retryer = xretry.NewRetryer(
		xretry.WithRetryPolicy(xretry.NewFixedRetry(attempts)),
		xretry.WithBackoffPolicy(xretry.NewFixedBackoff(o.cfg.IORetryDelay)),
		xretry.WithOnRetry(func(attempt int, err error) {
			a.logger.Debug(context.Background(), "retrying file operation",
				slog.Int("attempt", attempt), xlog.Err(err))
		}),
	)

	if o.cfg.BreakerFailures > 0 {
		a.breaker = xbreaker.NewBreaker(componentName,
			xbreaker.WithTripPolicy(xbreaker.NewConsecutiveFailures(o.cfg.BreakerFailures)),
			xbreaker.WithTimeout(o.cfg.BreakerCooldown),
			xbreaker.WithOnStateChange(func(name string, from, to xbreaker.State) {
				a.logger.Warn(context.Background(), "rotation breaker state changed",
					slog.String("breaker", name),
					slog.String("from", from.String()),
					slog.String("to", to.String()))
			}),
		)
	}
	return a
}

// Config 返回配置。
func (a *Archiver) Config() Config {
	return a.cfg
}

// Stage 返回最近一次轮转所处的阶段。
func (a *Archiver) Stage() Stage {
	return Stage(a.stage.Load())
}

// Rotate 将 activePath 归档。活动文件不存在时什么都不做。
//
// 失败时返回 [*StageError]，活动文件在压缩成功并且归档写入完成之前不会被修改。
// 熔断打开时返回包装 [ErrRotationSuppressed] 的错误。
func (a *Archiver) Rotate(ctx context.Context, activePath string) (res Result, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := xmetrics.Start(ctx, a.observer, xmetrics.SpanOptions{
		Component: componentName,
		Operation: "rotate",
		Attrs:     []xmetrics.Attr{xmetrics.String("path", activePath)},
	})
	defer func() {
		var status xmetrics.Status
		if errors.Is(err, ErrRotationSuppressed) || (err == nil && !res.Rotated) {
			status = xmetrics.StatusSkipped
		}
		span.End(xmetrics.Result{
			Status: status,
			Err:    err,
			Bytes:  res.ArchiveBytes,
			Attrs: []xmetrics.Attr{
				xmetrics.Int("evicted", res.Evicted),
				xmetrics.Int("shifted", res.Shifted),
				xmetrics.Int("skipped", res.Skipped),
			},
		})
	}()

	if a.breaker == nil {
		return a.rotate(ctx, activePath)
	}
	err = a.breaker.Do(ctx, func() error {
		var rerr error
		res, rerr = a.rotate(ctx, activePath)
		return rerr
	})
	if xbreaker.IsOpen(err) {
		a.logger.Warn(ctx, "rotation suppressed by breaker", xlog.Path(activePath), xlog.Err(err))
		return Result{}, fmt.Errorf("%w: %w", ErrRotationSuppressed, err)
	}
	return res, err
}

func (a *Archiver) rotate(ctx context.Context, activePath string) (Result, error) {
	var res Result
	a.enter(StageIdle)

	info, err := os.Stat(activePath)
	if errors.Is(err, fs.ErrNotExist) {
		return res, nil
	}
	if err != nil {
		return res, a.fail(ctx, StageIdle, activePath, ioFailure(err))
	}
	dir, base, err := ArchiveDir(activePath)
	if err != nil {
		return res, a.fail(ctx, StageIdle, activePath, err)
	}

	a.enter(StageEvicting)
	if err := xfile.EnsureDirPath(dir); err != nil {
		return res, a.fail(ctx, StageEvicting, dir, ioFailure(err))
	}
	entries, skipped, err := a.list(ctx, dir)
	if err != nil {
		return res, a.fail(ctx, StageEvicting, dir, err)
	}
	res.Skipped = skipped
	survivors, evicted, failed := a.applyEviction(ctx, dir, entries, 1)
	res.Evicted, res.EvictFailed = evicted, failed

	a.enter(StageShifting)
	shifted, serr := Shift(dir, survivors, func(oldpath, newpath string) error {
		return a.io(ctx, func() error { return a.fs.rename(oldpath, newpath) })
	})
	res.Shifted = countShifted(survivors, shifted)
	if serr != nil {
		a.logger.Warn(ctx, "archive shift incomplete",
			xlog.Stage(StageShifting.String()), xlog.Path(dir), xlog.Err(serr))
	}
	if !indexFree(shifted, 1) {
		return res, a.fail(ctx, StageShifting, dir,
			errors.Join(fmt.Errorf("%w: index 1 still occupied", ErrShiftCollision), serr))
	}

	a.enter(StageCompressing)
	var raw []byte
	if err := a.io(ctx, func() (rerr error) {
		raw, rerr = a.fs.readFile(activePath)
		return rerr
	}); err != nil {
		return res, a.fail(ctx, StageCompressing, activePath, ioFailure(err))
	}
	compressed, err := a.compressor.Compress(raw)
	if err != nil {
		if !errors.Is(err, ErrCompressFailure) {
			err = fmt.Errorf("%w: %w", ErrCompressFailure, err)
		}
		return res, a.fail(ctx, StageCompressing, activePath, err)
	}
	res.RawBytes, res.ArchiveBytes = int64(len(raw)), int64(len(compressed))

	a.enter(StageWriting)
	created := birthTime(activePath, info).In(a.loc).Truncate(time.Second)
	entry := Entry{Prefix: base, Label: FormatTimestamp(created, a.loc), Timestamp: created}.withIndex(1)
	target, err := xfile.JoinName(dir, entry.Name)
	if err != nil {
		return res, a.fail(ctx, StageWriting, dir, fmt.Errorf("%w: %w", ErrNamingCorruption, err))
	}
	if err := a.io(ctx, func() error { return a.writeArchive(dir, target, compressed) }); err != nil {
		return res, a.fail(ctx, StageWriting, target, ioFailure(err))
	}
	res.Entry, res.Path, res.Rotated = entry, target, true

	a.enter(StageFinalizing)
	if err := a.io(ctx, func() error { return a.fs.remove(activePath) }); err != nil && !errors.Is(err, fs.ErrNotExist) {
		// 归档已经写入，活动文件必须清空，否则下一次轮转会重复归档同一份内容
		if terr := a.fs.truncate(activePath, 0); terr != nil {
			return res, a.fail(ctx, StageFinalizing, activePath, ioFailure(errors.Join(err, terr)))
		}
		a.logger.Warn(ctx, "active file truncated instead of removed",
			xlog.Stage(StageFinalizing.String()), xlog.Path(activePath), xlog.Err(err))
	}

	a.enter(StageIdle)
	a.logger.Debug(ctx, "rotated",
		xlog.Path(target),
		xlog.Size(res.RawBytes),
		slog.Int("evicted", res.Evicted),
		slog.Int("shifted", res.Shifted))
	return res, nil
}

// Sweep 只执行淘汰而不轮转：AgeBound 清理过期归档，CountBound 恢复数量上限。
// 返回删除的数量；任何删除失败都会体现在返回的错误中。
func (a *Archiver) Sweep(ctx context.Context, activePath string) (n int, err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := xmetrics.Start(ctx, a.observer, xmetrics.SpanOptions{
		Component: componentName,
		Operation: "sweep",
		Attrs:     []xmetrics.Attr{xmetrics.String("path", activePath)},
	})
	defer func() {
		span.End(xmetrics.Result{Err: err, Attrs: []xmetrics.Attr{xmetrics.Int("evicted", n)}})
	}()

	dir, _, err := ArchiveDir(activePath)
	if err != nil {
		return 0, err
	}
	entries, _, err := a.list(ctx, dir)
	if err != nil {
		return 0, err
	}
	_, evicted, failed := a.applyEviction(ctx, dir, entries, 0)
	if failed > 0 {
		return evicted, fmt.Errorf("%w: %d archive entries could not be removed", ErrIOFailure, failed)
	}
	return evicted, nil
}

// Entries 返回归档目录中可解析的条目，按 index 升序。目录不存在时返回空。
func (a *Archiver) Entries(ctx context.Context, activePath string) ([]Entry, error) {
	dir, _, err := ArchiveDir(activePath)
	if err != nil {
		return nil, err
	}
	entries, _, err := a.list(ctx, dir)
	return entries, err
}

// list 列举归档目录。子目录与写入中的临时文件被忽略，无法解析的文件名记录日志后跳过。
func (a *Archiver) list(ctx context.Context, dir string) (entries []Entry, skipped int, err error) {
	des, err := a.fs.readDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, ioFailure(err)
	}
	for _, de := range des {
		name := de.Name()
		if de.IsDir() || isTempName(name) {
			continue
		}
		e, perr := ParseEntryName(name, a.loc)
		if perr != nil {
			skipped++
			a.logger.Warn(ctx, "skipping malformed archive entry",
				xlog.Path(filepath.Join(dir, name)), xlog.Err(perr))
			continue
		}
		entries = append(entries, e)
	}
	slices.SortStableFunc(entries, compareEntries)
	return entries, skipped, nil
}

// applyEviction 逐个删除被淘汰的条目。删除失败的条目记录日志后回到保留集合，
// 保证后续移位仍能维持 index 唯一。
func (a *Archiver) applyEviction(ctx context.Context, dir string, entries []Entry, room int) (survivors []Entry, evicted, failed int) {
	keep, drop := evict(entries, a.cfg, a.now(), room)
	for _, e := range drop {
		p := filepath.Join(dir, e.Name)
		err := a.io(ctx, func() error { return a.fs.remove(p) })
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			failed++
			a.logger.Warn(ctx, "failed to evict archive entry",
				xlog.Stage(StageEvicting.String()), xlog.Path(p), xlog.Err(err))
			keep = append(keep, e)
			continue
		}
		evicted++
	}
	slices.SortStableFunc(keep, compareEntries)
	return keep, evicted, failed
}

// tempSuffix writeArchive 临时文件的后缀。
const tempSuffix = ".tmp"

// isTempName 判断 name 是否为 writeArchive 留下的临时文件。
// 活动文件名本身可以以 "." 开头，因此不能按隐藏文件整体忽略。
func isTempName(name string) bool {
	return strings.HasPrefix(name, ".") && strings.HasSuffix(name, tempSuffix)
}

// writeArchive 先写入同目录的隐藏临时文件并 fsync，再重命名为 target。
// 任何失败都会删除临时文件，不会留下不完整的归档。
func (a *Archiver) writeArchive(dir, target string, data []byte) (err error) {
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*"+tempSuffix)
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpName, a.cfg.fileMode()); err != nil {
		return err
	}
	return a.fs.rename(tmpName, target)
}

// io 按重试策略执行单个文件操作。不存在与目标冲突不会因重试而改变，直接返回。
func (a *Archiver) io(ctx context.Context, fn func() error) error {
	return a.retryer.Do(ctx, func(context.Context) error {
		err := fn()
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrShiftCollision) {
			return xretry.NewPermanentError(err)
		}
		return err
	})
}

func (a *Archiver) enter(s Stage) {
	a.stage.Store(uint32(s))
}

func (a *Archiver) fail(ctx context.Context, stage Stage, path string, err error) error {
	a.enter(StageAborted)
	a.logger.Warn(ctx, "rotation aborted",
		xlog.Stage(stage.String()), xlog.Path(path), xlog.Err(err))
	return &StageError{Stage: stage, Path: path, Err: err}
}

func ioFailure(err error) error {
	if errors.Is(err, ErrIOFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrIOFailure, err)
}

// countShifted 统计 index 发生变化的条目数。
func countShifted(before, after []Entry) int {
	names := make(map[string]struct{}, len(before))
	for _, e := range before {
		names[e.Name] = struct{}{}
	}
	n := 0
	for _, e := range after {
		if _, ok := names[e.Name]; !ok {
			n++
		}
	}
	return n
}
