package xfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDir(t *testing.T) {
	root := t.TempDir()

	t.Run("创建多级父目录", func(t *testing.T) {
		file := filepath.Join(root, "a", "b", "c", "app.log")
		require.NoError(t, EnsureDir(file))

		info, err := os.Stat(filepath.Dir(file))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("目录已存在", func(t *testing.T) {
		file := filepath.Join(root, "a", "app.log")
		require.NoError(t, EnsureDir(file))
		require.NoError(t, EnsureDir(file))
	})

	t.Run("当前目录下的文件", func(t *testing.T) {
		assert.NoError(t, EnsureDir("app.log"))
	})

	t.Run("空路径", func(t *testing.T) {
		assert.ErrorIs(t, EnsureDir(""), ErrEmptyPath)
	})

	t.Run("空字节", func(t *testing.T) {
		assert.ErrorIs(t, EnsureDir("app\x00.log"), ErrNullByte)
		assert.ErrorIs(t, EnsureDir(filepath.Join(root, "x\x00y", "app.log")), ErrNullByte)
	})

	t.Run("缺少执行位", func(t *testing.T) {
		err := EnsureDirWithPerm(filepath.Join(root, "noexec", "app.log"), 0600)
		assert.ErrorIs(t, err, ErrInvalidPerm)
	})
}

func TestEnsureDirPath(t *testing.T) {
	root := t.TempDir()

	t.Run("创建归档目录", func(t *testing.T) {
		dir := filepath.Join(root, "app")
		require.NoError(t, EnsureDirPath(dir))
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("同名普通文件已存在", func(t *testing.T) {
		p := filepath.Join(root, "plain")
		require.NoError(t, os.WriteFile(p, []byte("x"), 0600))
		assert.ErrorIs(t, EnsureDirPath(p), ErrInvalidPath)
	})

	t.Run("空目录参数", func(t *testing.T) {
		assert.ErrorIs(t, EnsureDirPath(""), ErrEmptyPath)
	})
}
