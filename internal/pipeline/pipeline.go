package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"bitext2jsonl/internal/bitext"
	"bitext2jsonl/internal/dataset"
	"bitext2jsonl/internal/diag"
	"bitext2jsonl/internal/discover"
	"bitext2jsonl/internal/merge"
	"bitext2jsonl/pkg/contract"
	rfs "bitext2jsonl/plugins/reader/filesystem"
)

// - 单线程、同步 I/O；阶段之间只通过文件系统传递状态。
// - 首错即停：已写出的文件保留，不做清理。
// - 每个目录在处理前记录 start 日志，崩溃时日志可定位到最后开始的目录。

// Settings 运行期配置（由 config.Assemble 构造）。
type Settings struct {
	SourceRoot  string
	OutputRoot  string
	Marker      string
	Instruction string
	Pair        bitext.Options
	Merge       merge.Options

	// Reader 用于语料根遍历（已排除输出根）；OutputReader 用于输出根扫描。
	Reader       *rfs.FileSystem
	OutputReader *rfs.FileSystem
	// Writer 的根必须是 OutputRoot。
	Writer contract.Writer
}

// Summary 汇总一次运行。
type Summary struct {
	Folders    int
	Records    int
	Mismatches int
	Artifacts  []contract.ArtifactID
	Merged     []merge.Result
}

// Run 执行 Convert 与 Merge 两个阶段。
func Run(ctx context.Context, set Settings, logger *diag.Logger) (Summary, error) {
	sum, err := Convert(ctx, set, logger)
	if err != nil {
		return sum, err
	}
	merged, err := Merge(ctx, set, logger)
	sum.Merged = merged
	return sum, err
}

// Convert: 发现书目目录 → 逐目录配对 → 装配记录 → 写出 dataset_<name>.jsonl。
func Convert(ctx context.Context, set Settings, logger *diag.Logger) (Summary, error) {
	var sum Summary
	if err := sanity(set); err != nil {
		return sum, fmt.Errorf("sanity: %w", err)
	}
	if logger == nil {
		logger = diag.Nop()
	}

	dt := logger.Start("discover", "scan corpus", zap.String("root", set.SourceRoot), zap.String("marker", set.Marker))
	folders, err := discover.Books(ctx, set.Reader, set.SourceRoot, set.Marker)
	if err != nil {
		logger.ErrorWith("discover", "scan failed", err, nil, set.SourceRoot)
		return sum, fmt.Errorf("discover: %w", err)
	}
	dt.Finish("scan corpus", int64(len(folders)))

	for _, folder := range folders {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		id := relID(set.SourceRoot, folder)
		start := time.Now()
		t := logger.StartWith("dump", "folder", id)

		pairs, st, err := bitext.Pair(ctx, set.Reader, folder, set.Pair)
		if err != nil {
			logger.ErrorWith("pair", "pair failed", err, &start, id)
			return sum, fmt.Errorf("pair %s: %w", id, err)
		}
		for _, m := range st.Mismatches {
			logger.Warn("pair", "line count mismatch, truncated to shorter file",
				zap.String("chapter", relID(set.SourceRoot, m.Chapter)),
				zap.Int("source_lines", m.SourceLines),
				zap.Int("target_lines", m.TargetLines),
				zap.Int("dropped", m.Dropped()))
		}
		logger.Debug("pair", "paired", zap.String("id", id), zap.Int("chapters", st.Chapters), zap.Int("pairs", st.Pairs))

		records := dataset.Build(pairs, set.Instruction)
		art, err := dataset.Dump(ctx, set.Writer, set.SourceRoot, folder, records)
		if err != nil {
			logger.ErrorWith("dump", "dump failed", err, &start, id)
			return sum, fmt.Errorf("dump %s: %w", id, err)
		}
		t.Finish("folder", int64(len(records)), zap.String("artifact", string(art)))

		sum.Folders++
		sum.Records += len(records)
		sum.Mismatches += len(st.Mismatches)
		sum.Artifacts = append(sum.Artifacts, art)
	}
	return sum, nil
}

// Merge: 扫描输出根，为每个目录写出 full_<dir>.jsonl。
func Merge(ctx context.Context, set Settings, logger *diag.Logger) ([]merge.Result, error) {
	if set.OutputReader == nil || set.Writer == nil || set.OutputRoot == "" {
		return nil, errors.New("sanity: merge requires output root, reader and writer")
	}
	if logger == nil {
		logger = diag.Nop()
	}
	mt := logger.Start("merge", "merge datasets", zap.String("root", set.OutputRoot))
	results, err := merge.Run(ctx, set.OutputReader, set.Writer, set.OutputRoot, set.Merge, func(g merge.Group) {
		logger.Debug("merge", "book", zap.String("id", relID(set.OutputRoot, g.Dir)), zap.Int("files", len(g.Files)))
	})
	if err != nil {
		logger.ErrorWith("merge", "merge failed", err, nil, set.OutputRoot)
		return results, fmt.Errorf("merge: %w", err)
	}
	for _, r := range results {
		logger.Debug("merge", "written", zap.String("artifact", string(r.ID)), zap.Int("rows", r.Rows))
	}
	mt.Finish("merge datasets", int64(len(results)))
	return results, nil
}

func sanity(set Settings) error {
	switch {
	case set.SourceRoot == "":
		return errors.New("source root empty")
	case set.OutputRoot == "":
		return errors.New("output root empty")
	case set.Reader == nil:
		return errors.New("reader nil")
	case set.Writer == nil:
		return errors.New("writer nil")
	}
	return nil
}

// relID 返回 p 相对 root 的规范化标识，失败时退回 p 本身。
func relID(root, p string) string {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return string(contract.NormalizeFileID(p))
	}
	absP, err := filepath.Abs(p)
	if err != nil {
		return string(contract.NormalizeFileID(p))
	}
	rel, err := filepath.Rel(absRoot, absP)
	if err != nil {
		return string(contract.NormalizeFileID(p))
	}
	return string(contract.NormalizeFileID(rel))
}
