package diag

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// RotatingFile 是日志文件 sink（实现 zapcore.WriteSyncer）。
// - 首次写入时以截断方式打开 path：每次运行得到一份新日志；
// - 当 size+len(p) 超过 maxBytes 时，把当前文件重命名为 <name>-YYYYMMDD-HHMMSS.000000000<ext> 后重新创建。
type RotatingFile struct {
	path     string
	maxBytes int64
	mu       sync.Mutex
	f        *os.File
	curSize  int64
	opened   bool
}

// NewRotatingFile 创建 sink；maxBytes<=0 时使用 10MiB。
func NewRotatingFile(path string, maxBytes int64) *RotatingFile {
	if maxBytes <= 0 {
		maxBytes = 10 * 1024 * 1024
	}
	return &RotatingFile{path: path, maxBytes: maxBytes}
}

// Write 写入一条完整日志（zap 每次调用传入一整行）。
func (w *RotatingFile) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.ensureOpen(); err != nil {
		return 0, err
	}
	if w.curSize > 0 && w.curSize+int64(len(p)) > w.maxBytes {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := w.f.Write(p)
	w.curSize += int64(n)
	return n, err
}

// Sync 刷盘。
func (w *RotatingFile) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	return w.f.Sync()
}

func (w *RotatingFile) ensureOpen() error {
	if w.f != nil {
		return nil
	}
	if dir := filepath.Dir(w.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	flag := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if !w.opened {
		flag |= os.O_TRUNC
	}
	f, err := os.OpenFile(w.path, flag, 0o644)
	if err != nil {
		return err
	}
	w.f = f
	w.opened = true
	w.curSize = 0
	if st, err := f.Stat(); err == nil {
		w.curSize = st.Size()
	}
	return nil
}

func (w *RotatingFile) rotate() error {
	if w.f == nil {
		return w.ensureOpen()
	}
	_ = w.f.Close()
	w.f = nil
	ext := filepath.Ext(w.path)
	base := strings.TrimSuffix(w.path, ext)
	ts := time.Now().UTC().Format("20060102-150405.000000000")
	if err := os.Rename(w.path, fmt.Sprintf("%s-%s%s", base, ts, ext)); err != nil {
		return fmt.Errorf("rename rotated file: %w", err)
	}
	return w.ensureOpen()
}

// Close 关闭当前文件句柄。
func (w *RotatingFile) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}
