package filesystem

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"bitext2jsonl/pkg/contract"
)

// Options: 最小必要选项。
type Options struct {
	// OutputDir: 输出根目录（必需）。所有 ArtifactID 均相对该目录解析。
	OutputDir string `json:"output_dir" yaml:"output_dir"`
	// Atomic: 是否使用原子替换（同目录临时文件 + rename）。nil 视为 true。
	Atomic *bool `json:"atomic,omitempty" yaml:"atomic,omitempty"`
	// PermFile/PermDir: 为 0 时使用 0644/0755。
	PermFile os.FileMode `json:"perm_file,omitempty" yaml:"perm_file,omitempty"`
	PermDir  os.FileMode `json:"perm_dir,omitempty" yaml:"perm_dir,omitempty"`
	// BufSize: 写缓冲区大小；<=0 使用 64KiB。
	BufSize int `json:"buf_size,omitempty" yaml:"buf_size,omitempty"`
}

// FS 按镜像目录结构把工件写入 OutputDir。
type FS struct {
	root    string
	atomic  bool
	permF   os.FileMode
	permD   os.FileMode
	bufSize int
}

// New 创建文件系统 Writer。
func New(opts *Options) (*FS, error) {
	if opts == nil || strings.TrimSpace(opts.OutputDir) == "" {
		return nil, os.ErrInvalid
	}
	w := &FS{root: opts.OutputDir, atomic: true, permF: 0o644, permD: 0o755, bufSize: 64 * 1024}
	if opts.Atomic != nil {
		w.atomic = *opts.Atomic
	}
	if opts.PermFile != 0 {
		w.permF = opts.PermFile
	}
	if opts.PermDir != 0 {
		w.permD = opts.PermDir
	}
	if opts.BufSize > 0 {
		w.bufSize = opts.BufSize
	}
	return w, nil
}

var _ contract.Writer = (*FS)(nil)

// Root 返回输出根目录。
func (w *FS) Root() string { return w.root }

// Write 将 r 的全部字节写入 id 对应的路径；父目录按需创建，已存在的文件被整体替换。
func (w *FS) Write(ctx context.Context, id contract.ArtifactID, r io.Reader) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	dest, err := w.mapPath(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), w.permD); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if w.atomic {
		return w.writeAtomic(ctx, dest, r)
	}
	return w.writeOverwrite(ctx, dest, r)
}

// mapPath: Clean + Join + 越界校验。
func (w *FS) mapPath(id contract.ArtifactID) (string, error) {
	rel := filepath.Clean(filepath.FromSlash(string(id)))
	if rel == "." || rel == "" {
		return "", contract.ErrPathInvalid
	}
	if filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" {
		return "", contract.ErrPathInvalid
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", contract.ErrPathInvalid
	}
	return filepath.Join(w.root, rel), nil
}

func (w *FS) writeOverwrite(ctx context.Context, dest string, r io.Reader) error {
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, w.permF)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriterSize(f, w.bufSize)
	if _, err := io.Copy(bw, readerWithCtx(ctx, r)); err != nil {
		return err
	}
	return bw.Flush()
}

func (w *FS) writeAtomic(ctx context.Context, dest string, r io.Reader) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, w.permF)

	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	bw := bufio.NewWriterSize(tmp, w.bufSize)
	if _, err := io.Copy(bw, readerWithCtx(ctx, r)); err != nil {
		return fail(err)
	}
	if err := bw.Flush(); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	// os.Rename 在 Windows 上同样以 REPLACE_EXISTING 语义替换目标。
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	// 最佳努力：同步父目录元数据
	_ = syncDir(dir)
	return nil
}

func syncDir(dir string) error {
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}

// readerWithCtx: 在每次 Read 前检查 ctx 是否已取消。
func readerWithCtx(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *ctxReader) Read(p []byte) (int, error) {
	select {
	case <-cr.ctx.Done():
		return 0, cr.ctx.Err()
	default:
	}
	return cr.r.Read(p)
}
