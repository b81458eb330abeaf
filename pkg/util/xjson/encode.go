package xjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrEncode 编码或写出失败。
var ErrEncode = errors.New("xjson: encode failed")

// WriteLines 将 items 逐条编码为一行 JSON 写入 w。
// 遇到第一个失败即返回，之前的行已写出。
func WriteLines[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i := range items {
		if err := enc.Encode(items[i]); err != nil {
			return fmt.Errorf("%w: item %d: %w", ErrEncode, i, err)
		}
	}
	return nil
}

// Pretty 将任意值序列化为格式化的 JSON 字符串。
// 用于日志和调试输出。序列化失败时返回 "<marshal error: ...>"。
func Pretty(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("<marshal error: %v>", err)
	}
	return string(data)
}
