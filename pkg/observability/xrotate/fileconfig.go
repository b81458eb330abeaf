package xrotate

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/omeyang/xsink/pkg/config/xconf"
)

// 后端名称
const (
	BackendArchive    = "archive"
	BackendLumberjack = "lumberjack"
)

// FileConfig 配置文件中的轮转配置。零值字段使用默认值。
//
//	sink:
//	  file: /var/log/app.log
//	  max_size: 5242880
//	  retention: age
//	  max_age: 1h
type FileConfig struct {
	File    string `koanf:"file"`
	Backend string `koanf:"backend"`

	MaxSize   int64         `koanf:"max_size"`
	Retention string        `koanf:"retention"`
	MaxCount  int           `koanf:"max_count"`
	MaxAge    time.Duration `koanf:"max_age"`
	Sync      bool          `koanf:"sync"`
	UTC       bool          `koanf:"utc"`
	// FileMode 八进制字符串，例如 "0640"
	FileMode string `koanf:"file_mode"`
	// CompressionLevel gzip 级别，nil 表示默认级别
	CompressionLevel *int `koanf:"compression_level"`

	IOAttempts   uint          `koanf:"io_attempts"`
	IORetryDelay time.Duration `koanf:"io_retry_delay"`

	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerCooldown time.Duration `koanf:"breaker_cooldown"`

	// ProcessLock nil 表示默认开启
	ProcessLock *bool `koanf:"process_lock"`
}

// LoadFileConfig 从 cfg 的 path 处读取 FileConfig，path 为空表示根。
func LoadFileConfig(cfg xconf.Config, path string) (FileConfig, error) {
	var fc FileConfig
	if err := cfg.Unmarshal(path, &fc); err != nil {
		return FileConfig{}, err
	}
	return fc, nil
}

// Options 将非零字段转换为 [Option]。
func (fc FileConfig) Options() ([]Option, error) {
	var opts []Option
	if fc.MaxSize != 0 {
		opts = append(opts, WithMaxActiveSize(fc.MaxSize))
	}
	if fc.Retention != "" {
		mode, err := ParseRetentionMode(fc.Retention)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithRetention(mode))
	}
	if fc.MaxCount != 0 {
		opts = append(opts, WithMaxArchiveCount(fc.MaxCount))
	}
	if fc.MaxAge != 0 {
		opts = append(opts, WithMaxArchiveAge(fc.MaxAge))
	}
	if fc.Sync {
		opts = append(opts, WithSyncAfterEachWrite(true))
	}
	if fc.UTC {
		opts = append(opts, WithLocation(time.UTC))
	}
	if fc.FileMode != "" {
		mode, err := strconv.ParseUint(strings.TrimSpace(fc.FileMode), 8, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %w", ErrInvalidFileMode, fc.FileMode, err)
		}
		opts = append(opts, WithFileMode(os.FileMode(mode)))
	}
	if fc.CompressionLevel != nil {
		c, err := NewGzipCompressor(*fc.CompressionLevel)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithCompressor(c))
	}
	if fc.IOAttempts != 0 {
		opts = append(opts, WithIORetry(fc.IOAttempts, fc.IORetryDelay))
	}
	if fc.BreakerFailures != 0 {
		opts = append(opts, WithBreaker(fc.BreakerFailures, fc.BreakerCooldown))
	}
	if fc.ProcessLock != nil {
		opts = append(opts, WithProcessLock(*fc.ProcessLock))
	}
	return opts, nil
}

// Open 按 fc.Backend 创建轮转器，空值表示 [BackendArchive]。
// extra 在配置文件选项之后应用，可覆盖配置文件。
func Open(fc FileConfig, extra ...Option) (Rotator, error) {
	opts, err := fc.Options()
	if err != nil {
		return nil, err
	}
	opts = append(opts, extra...)

	switch strings.ToLower(fc.Backend) {
	case "", BackendArchive:
		f, err := New(fc.File, opts...)
		if err != nil {
			return nil, err
		}
		return f, nil
	case BackendLumberjack:
		return NewLumberjack(fc.File, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidBackend, fc.Backend)
	}
}
