// Package xjson 提供面向命令行与日志输出的 JSON 编码工具。
//
// # 功能概览
//
//   - [WriteLines]: 以 JSON Lines 格式逐条写出切片元素，便于 jq 等工具流式处理
//   - [Pretty]: 将任意值序列化为缩进格式的字符串，失败时返回
//     "<marshal error: ...>" 标记字符串（非合法 JSON）
//
// # 注意事项
//
// WriteLines 不转义 HTML 字符；Pretty 遵循 [encoding/json] 默认行为。
package xjson
