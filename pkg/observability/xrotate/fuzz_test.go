package xrotate

import (
	"strings"
	"testing"
	"time"
)

// FuzzParseEntryName 任意输入都不能 panic；解析成功的名称必须能原样重建。
func FuzzParseEntryName(f *testing.F) {
	f.Add("app-2024-01-02 03:04:05-1.gz")
	f.Add("my-app-2024-01-02 03:04:05-42.gz")
	f.Add("-2024-01-02 03:04:05-1.gz")
	f.Add("app-2024-01-02 03:04:05-0.gz")
	f.Add(".gz")
	f.Add("")

	f.Fuzz(func(t *testing.T, name string) {
		e, err := ParseEntryName(name, time.UTC)
		if err != nil {
			return
		}
		if e.Index < 1 {
			t.Fatalf("index %d must be positive", e.Index)
		}
		if e.Prefix == "" {
			t.Fatal("prefix must not be empty")
		}
		if !strings.HasSuffix(name, archiveExt) {
			t.Fatalf("accepted %q without %s suffix", name, archiveExt)
		}
		if got := entryName(e.Prefix, e.Label, e.Index); got != name {
			// 序号前导零会被规范化
			if e2, err := ParseEntryName(got, time.UTC); err != nil || e2.Index != e.Index {
				t.Fatalf("rebuilt %q from %q does not parse back", got, name)
			}
		}
	})
}
