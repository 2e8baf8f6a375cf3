//go:build !windows

package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 非常规文件被忽略
func TestWalkNonRegular(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, syscall.Mkfifo(filepath.Join(root, "fifo"), 0o644))
	assert.Empty(t, collect(t, New(nil), root))
}

// 指向目录的符号链接不跟随；指向文件的符号链接按文件处理
func TestWalkSymlinks(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "real", "a.txt"), "x")
	require.NoError(t, os.Symlink(filepath.Join(root, "real"), filepath.Join(root, "ln")))
	require.NoError(t, os.Symlink(filepath.Join(root, "real", "a.txt"), filepath.Join(root, "f.txt")))

	assert.Equal(t, []string{"real/a.txt", "f.txt"}, collect(t, New(nil), root))
}

func TestWalkDanglingSymlink(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Symlink(filepath.Join(root, "no"), filepath.Join(root, "dangling")))
	err := New(nil).Walk(context.Background(), root, func(string) error { return nil })
	assert.Error(t, err)
}

// 指向目录的符号链接计入子目录；指向文件与悬空的链接跳过
func TestReadDirsSymlinks(t *testing.T) {
	root := t.TempDir()
	book := filepath.Join(root, "book")
	touch(t, filepath.Join(book, "ch1", "a.txt"), "x")
	touch(t, filepath.Join(root, "shared", "ch9", "b.txt"), "y")
	require.NoError(t, os.Symlink(filepath.Join("..", "shared", "ch9"), filepath.Join(book, "ch2")))
	require.NoError(t, os.Symlink(filepath.Join(book, "ch1", "a.txt"), filepath.Join(book, "file-link")))
	require.NoError(t, os.Symlink(filepath.Join(root, "no"), filepath.Join(book, "dangling")))

	dirs, err := New(nil).ReadDirs(context.Background(), book)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(book, "ch1"), filepath.Join(book, "ch2")}, dirs)
}
