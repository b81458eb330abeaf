package xrotate_test

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/omeyang/xsink/pkg/observability/xlog"
	"github.com/omeyang/xsink/pkg/observability/xrotate"
)

func Example() {
	dir, err := os.MkdirTemp("", "xrotate-example")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	f, err := xrotate.New(filepath.Join(dir, "app.log"),
		xrotate.WithMaxActiveSize(16),
		xrotate.WithMaxArchiveCount(3),
		xrotate.WithLogger(xlog.Discard()),
	)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	for i := range 5 {
		// 每行 18 字节，每次写入都会触发轮转
		if err := f.WriteLine(fmt.Sprintf("log line number %d", i)); err != nil {
			panic(err)
		}
	}

	entries, err := f.Entries()
	if err != nil {
		panic(err)
	}
	for _, e := range entries {
		fmt.Println(e.Prefix, e.Index)
	}
	// Output:
	// app 1
	// app 2
	// app 3
}

func ExampleEntryName() {
	ts := time.Date(2024, 5, 20, 13, 14, 0, 0, time.UTC)
	name := xrotate.EntryName("app", ts, 1, time.UTC)
	fmt.Println(name)

	e, err := xrotate.ParseEntryName(name, time.UTC)
	if err != nil {
		panic(err)
	}
	fmt.Println(e.Prefix, e.Label, e.Index)
	// Output:
	// app-2024-05-20 13:14:00-1.gz
	// app 2024-05-20 13:14:00 1
}

func ExampleArchiveDir() {
	dir, base, err := xrotate.ArchiveDir("/var/log/service.log")
	fmt.Println(dir, base, err)
	// Output:
	// /var/log/service service <nil>
}

func ExampleShouldRotate() {
	cfg := xrotate.DefaultConfig()
	fmt.Println(xrotate.ShouldRotate(cfg.MaxActiveSize, cfg))
	fmt.Println(xrotate.ShouldRotate(cfg.MaxActiveSize+1, cfg))

	cfg.MaxArchiveCount = 1
	fmt.Println(xrotate.ShouldRotate(cfg.MaxActiveSize+1, cfg))
	// Output:
	// false
	// true
	// false
}
