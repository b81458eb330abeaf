package xrotate

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/omeyang/xsink/pkg/observability/xlog"
	"github.com/omeyang/xsink/pkg/observability/xmetrics"
)

// 默认配置值
const (
	// DefaultMaxActiveSize 活动文件大小阈值（5 MiB）
	DefaultMaxActiveSize int64 = 5 * 1024 * 1024

	// DefaultMaxArchiveCount CountBound 模式下的归档数量上限
	DefaultMaxArchiveCount = 100

	// DefaultMaxArchiveAge AgeBound 模式下的归档保留时长
	DefaultMaxArchiveAge = time.Hour

	// DefaultIORetryDelay 文件操作重试间隔
	DefaultIORetryDelay = 10 * time.Millisecond

	// DefaultBreakerCooldown 熔断打开后的冷却时间
	DefaultBreakerCooldown = 30 * time.Second

	// defaultFileMode 新建活动文件与归档文件的权限
	defaultFileMode os.FileMode = 0o644
)

// RetentionMode 归档保留策略。两种策略互斥，由配置静态选择。
type RetentionMode uint8

const (
	// CountBound 按数量保留
	CountBound RetentionMode = iota
	// AgeBound 按时长保留
	AgeBound
)

func (m RetentionMode) String() string {
	switch m {
	case CountBound:
		return "count"
	case AgeBound:
		return "age"
	default:
		return fmt.Sprintf("RetentionMode(%d)", uint8(m))
	}
}

// MarshalText 实现 encoding.TextMarshaler。
func (m RetentionMode) MarshalText() ([]byte, error) {
	if m != CountBound && m != AgeBound {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRetention, uint8(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler。
func (m *RetentionMode) UnmarshalText(text []byte) error {
	parsed, err := ParseRetentionMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseRetentionMode 解析 "count" 或 "age"（不区分大小写）。
func ParseRetentionMode(s string) (RetentionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "count":
		return CountBound, nil
	case "age":
		return AgeBound, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidRetention, s)
	}
}

// Config 轮转配置。每个 [File] 构造时固定，之后不可修改。
type Config struct {
	// MaxActiveSize 活动文件超过该字节数时触发轮转
	MaxActiveSize int64

	// Retention 保留策略
	Retention RetentionMode

	// MaxArchiveCount CountBound 模式下的归档上限。
	// 为 1 时自动轮转被关闭，不再检查文件大小。
	MaxArchiveCount int

	// MaxArchiveAge AgeBound 模式下的保留时长
	MaxArchiveAge time.Duration

	// SyncAfterEachWrite 每次写入后 fsync
	SyncAfterEachWrite bool

	// Location 格式化与解析时间标签使用的时区，nil 表示 time.Local
	Location *time.Location

	// FileMode 新建文件权限，0 表示 0644。仅允许权限位。
	FileMode os.FileMode

	// IOAttempts 单个文件操作的最大尝试次数，1 表示不重试
	IOAttempts uint

	// IORetryDelay 文件操作重试间隔
	IORetryDelay time.Duration

	// BreakerFailures 连续失败多少次后暂停轮转，0 表示不启用熔断
	BreakerFailures uint32

	// BreakerCooldown 熔断打开后多久允许再次尝试
	BreakerCooldown time.Duration

	// ProcessLock 是否使用跨进程建议锁
	ProcessLock bool
}

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	return Config{
		MaxActiveSize:   DefaultMaxActiveSize,
		Retention:       CountBound,
		MaxArchiveCount: DefaultMaxArchiveCount,
		MaxArchiveAge:   DefaultMaxArchiveAge,
		IOAttempts:      1,
		IORetryDelay:    DefaultIORetryDelay,
		BreakerCooldown: DefaultBreakerCooldown,
		ProcessLock:     true,
	}
}

// Validate 校验配置。
func (c Config) Validate() error {
	if c.MaxActiveSize < 1 {
		return fmt.Errorf("%w: got %d, want >= 1", ErrInvalidMaxSize, c.MaxActiveSize)
	}
	if c.MaxArchiveCount < 1 {
		return fmt.Errorf("%w: got %d, want >= 1", ErrInvalidMaxCount, c.MaxArchiveCount)
	}
	switch c.Retention {
	case CountBound:
	case AgeBound:
		if c.MaxArchiveAge <= 0 {
			return fmt.Errorf("%w: got %s, want > 0", ErrInvalidMaxAge, c.MaxArchiveAge)
		}
	default:
		return fmt.Errorf("%w: %d", ErrInvalidRetention, uint8(c.Retention))
	}
	if c.FileMode&^os.FileMode(0o777) != 0 {
		return fmt.Errorf("%w: got %04o, only permission bits (0000~0777) allowed",
			ErrInvalidFileMode, c.FileMode)
	}
	return nil
}

func (c Config) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

func (c Config) fileMode() os.FileMode {
	if c.FileMode == 0 {
		return defaultFileMode
	}
	return c.FileMode
}

// options 汇总 Config 与运行时依赖。
type options struct {
	cfg        Config
	logger     xlog.Logger
	observer   xmetrics.Observer
	compressor Compressor
	now        func() time.Time
}

func defaultOptions() *options {
	return &options{
		cfg:        DefaultConfig(),
		observer:   xmetrics.NoopObserver{},
		compressor: DefaultCompressor(),
		now:        time.Now,
	}
}

func applyOptions(opts []Option) (*options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	// 设计决策: 默认 logger 在构造时而非包初始化时解析，
	// 使 xlog.SetDefault 在 New 之前调用即可生效。
	if o.logger == nil {
		o.logger = xlog.Default()
	}
	return o, nil
}

// Option 配置选项函数
type Option func(*options)

// WithConfig 整体替换配置，之后的选项仍可覆盖单个字段。
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithMaxActiveSize 设置活动文件大小阈值（字节）
func WithMaxActiveSize(n int64) Option {
	return func(o *options) {
		o.cfg.MaxActiveSize = n
	}
}

// WithRetention 设置保留策略
func WithRetention(m RetentionMode) Option {
	return func(o *options) {
		o.cfg.Retention = m
	}
}

// WithMaxArchiveCount 设置 CountBound 模式下的归档上限
func WithMaxArchiveCount(n int) Option {
	return func(o *options) {
		o.cfg.MaxArchiveCount = n
	}
}

// WithMaxArchiveAge 设置 AgeBound 模式下的保留时长
func WithMaxArchiveAge(d time.Duration) Option {
	return func(o *options) {
		o.cfg.MaxArchiveAge = d
	}
}

// WithSyncAfterEachWrite 设置每次写入后是否 fsync
func WithSyncAfterEachWrite(sync bool) Option {
	return func(o *options) {
		o.cfg.SyncAfterEachWrite = sync
	}
}

// WithLocation 设置时间标签使用的时区，nil 被忽略
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.cfg.Location = loc
		}
	}
}

// WithFileMode 设置新建文件权限
func WithFileMode(mode os.FileMode) Option {
	return func(o *options) {
		o.cfg.FileMode = mode
	}
}

// WithIORetry 设置文件操作的尝试次数与间隔。attempts 为 0 时按 1 处理。
func WithIORetry(attempts uint, delay time.Duration) Option {
	return func(o *options) {
		o.cfg.IOAttempts = max(attempts, 1)
		if delay >= 0 {
			o.cfg.IORetryDelay = delay
		}
	}
}

// WithBreaker 启用轮转熔断：连续 failures 次轮转失败后，cooldown 内跳过轮转。
// failures 为 0 表示关闭。
func WithBreaker(failures uint32, cooldown time.Duration) Option {
	return func(o *options) {
		o.cfg.BreakerFailures = failures
		if cooldown > 0 {
			o.cfg.BreakerCooldown = cooldown
		}
	}
}

// WithProcessLock 设置是否使用跨进程建议锁，默认开启
func WithProcessLock(enable bool) Option {
	return func(o *options) {
		o.cfg.ProcessLock = enable
	}
}

// WithLogger 设置内部日志，nil 被忽略。默认使用 xlog.Default()。
//
// 不得传入以当前 File 为输出目标的 Logger，否则轮转失败的日志会递归写回自身。
func WithLogger(logger xlog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithObserver 设置观测器，nil 被忽略
func WithObserver(observer xmetrics.Observer) Option {
	return func(o *options) {
		if observer != nil {
			o.observer = observer
		}
	}
}

// WithCompressor 设置压缩器，nil 被忽略
func WithCompressor(c Compressor) Option {
	return func(o *options) {
		if c != nil {
			o.compressor = c
		}
	}
}

// WithClock 设置时钟，用于 AgeBound 判断。nil 被忽略。
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
