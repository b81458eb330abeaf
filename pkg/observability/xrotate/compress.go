package xrotate

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
)

//go:generate mockgen -source=compress.go -destination=mock_compressor_test.go -package=xrotate

// Compressor 将活动文件内容压缩为归档内容。实现不得访问文件系统。
type Compressor interface {
	Compress(raw []byte) ([]byte, error)
}

// GzipCompressor 输出单个标准 gzip 成员，可被 compress/gzip 读取。
type GzipCompressor struct {
	level int
}

// DefaultCompressor 返回默认级别的 gzip 压缩器。
func DefaultCompressor() *GzipCompressor {
	return &GzipCompressor{level: gzip.DefaultCompression}
}

// NewGzipCompressor 创建指定级别的压缩器。
// 有效范围为 gzip.StatelessCompression ~ gzip.BestCompression。
func NewGzipCompressor(level int) (*GzipCompressor, error) {
	if _, err := gzip.NewWriterLevel(io.Discard, level); err != nil {
		return nil, fmt.Errorf("%w: %d: %w", ErrInvalidLevel, level, err)
	}
	return &GzipCompressor{level: level}, nil
}

// Level 返回压缩级别。
func (c *GzipCompressor) Level() int {
	return c.level
}

// Compress 实现 [Compressor]。
func (c *GzipCompressor) Compress(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(len(raw)/2 + 64)

	zw, err := gzip.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompressFailure, err)
	}
	if _, err := zw.Write(raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompressFailure, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCompressFailure, err)
	}
	return buf.Bytes(), nil
}
