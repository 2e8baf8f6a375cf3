package filesystem

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"bitext2jsonl/pkg/contract"
)

// Options 为 FileSystem Reader 的可选配置。
type Options struct {
	// BufSize 为读缓冲区大小（字节）。默认 64KiB。
	BufSize int `json:"buf_size" yaml:"buf_size"`
	// ExcludeDirNames: 遍历时跳过这些目录名（基名、大小写不敏感）。
	ExcludeDirNames []string `json:"exclude_dir_names" yaml:"exclude_dir_names"`
	// ExcludePaths: 遍历时跳过这些目录（绝对路径比较），例如位于语料根内部的输出根。
	ExcludePaths []string `json:"-" yaml:"-"`
}

// FileSystem 负责目录遍历与文本读取；不在内部起并发。
type FileSystem struct {
	bufSize    int
	excludeDir map[string]struct{}
	excludeAbs map[string]struct{}
}

// New 创建 FileSystem Reader。
func New(opts *Options) *FileSystem {
	r := &FileSystem{
		bufSize:    64 * 1024,
		excludeDir: make(map[string]struct{}),
		excludeAbs: make(map[string]struct{}),
	}
	if opts == nil {
		return r
	}
	if opts.BufSize > 0 {
		r.bufSize = opts.BufSize
	}
	for _, name := range opts.ExcludeDirNames {
		if name = strings.TrimSpace(name); name != "" {
			r.excludeDir[strings.ToLower(name)] = struct{}{}
		}
	}
	for _, p := range opts.ExcludePaths {
		if abs, err := filepath.Abs(p); err == nil {
			r.excludeAbs[abs] = struct{}{}
		}
	}
	return r
}

// Walk 递归遍历 root，按稳定顺序（字典序；同层先目录后文件）对每个常规文件调用 yield。
// 目录符号链接不跟随；指向常规文件的符号链接视为文件。
func (r *FileSystem) Walk(ctx context.Context, root string, yield func(path string) error) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", root)
	}
	return r.walkDir(ctx, root, yield)
}

// ReadDirs 返回 dir 的直接子目录（字典序）。指向目录的符号链接计入；
// 悬空链接与指向文件的链接不是目录，跳过。
func (r *FileSystem) ReadDirs(ctx context.Context, dir string) ([]string, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		p := filepath.Join(dir, e.Name())
		switch {
		case e.IsDir():
			out = append(out, p)
		case e.Type()&os.ModeSymlink != 0:
			if fi, err := os.Stat(p); err == nil && fi.IsDir() {
				out = append(out, p)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// ReadText 读取整个文件并校验 UTF-8；非法编码返回 contract.ErrInvalidUTF8。
func (r *FileSystem) ReadText(ctx context.Context, path string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	b, err := io.ReadAll(bufio.NewReaderSize(f, r.bufSize))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%s: %w", path, contract.ErrInvalidUTF8)
	}
	return string(b), nil
}

func (r *FileSystem) skipDir(dir, name string) bool {
	if _, ok := r.excludeDir[strings.ToLower(name)]; ok {
		return true
	}
	if len(r.excludeAbs) == 0 {
		return false
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	_, ok := r.excludeAbs[abs]
	return ok
}

func (r *FileSystem) walkDir(ctx context.Context, dir string, yield func(string) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	// 先目录
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		p := filepath.Join(dir, e.Name())
		if r.skipDir(p, e.Name()) {
			continue
		}
		if err := r.walkDir(ctx, p, yield); err != nil {
			return err
		}
	}
	// 再文件
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		p := filepath.Join(dir, e.Name())
		mode := e.Type()
		if mode&os.ModeSymlink != 0 {
			t, err := os.Stat(p)
			if err != nil {
				return err
			}
			mode = t.Mode()
		}
		if !mode.IsRegular() {
			continue
		}
		if err := yield(p); err != nil {
			return err
		}
	}
	return nil
}
