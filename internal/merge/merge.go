// Package merge 把同一目录下的各数据文件合并为 full_<dir>.jsonl，并为每行打上来源标签。
package merge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"bitext2jsonl/internal/dataset"
	"bitext2jsonl/pkg/contract"
	rfs "bitext2jsonl/plugins/reader/filesystem"
)

const (
	// DefaultBilingualMarker 出现在文件名中的数据文件不参与合并。
	DefaultBilingualMarker = "双语"
	// FullPrefix 为合并文件名前缀：full_<dir>.jsonl。
	FullPrefix = "full_"
)

// Options 合并选项。
type Options struct {
	// BilingualMarker 为空时使用 DefaultBilingualMarker。
	BilingualMarker string
}

// Result 描述一个目录的合并结果。
type Result struct {
	Dir   string
	ID    contract.ArtifactID
	Files []string
	Rows  int
}

// Group 为同一父目录下参与合并的数据文件（文件名字典序）。
type Group struct {
	Dir   string
	Files []string
}

// Scan 在 outputRoot 下递归查找 dataset_*.jsonl，剔除文件名含 bilingual 标记的文件后按父目录分组。
// 只含被剔除文件的目录不形成分组。分组按目录字典序返回；outputRoot 不存在时没有分组。
func Scan(ctx context.Context, r *rfs.FileSystem, outputRoot, bilingual string) ([]Group, error) {
	if bilingual == "" {
		bilingual = DefaultBilingualMarker
	}
	if _, err := os.Stat(outputRoot); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	byDir := make(map[string][]string)
	err := r.Walk(ctx, outputRoot, func(p string) error {
		name := filepath.Base(p)
		if !IsDatasetFile(name) || strings.Contains(name, bilingual) {
			return nil
		}
		dir := filepath.Dir(p)
		byDir[dir] = append(byDir[dir], p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	groups := make([]Group, 0, len(byDir))
	for dir, files := range byDir {
		sort.Strings(files)
		groups = append(groups, Group{Dir: dir, Files: files})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Dir < groups[j].Dir })
	return groups, nil
}

// IsDatasetFile 判断文件名是否匹配 dataset_*.jsonl。
func IsDatasetFile(name string) bool {
	return strings.HasPrefix(name, dataset.FilePrefix) && strings.HasSuffix(name, dataset.Ext)
}

// BookTag 返回行来源标签：<dir 名>/<去掉 dataset_ 前缀的文件名>。
func BookTag(dir, file string) string {
	return filepath.Base(dir) + "/" + strings.TrimPrefix(filepath.Base(file), dataset.FilePrefix)
}

// Combine 读取分组内各文件，按文件顺序拼接并附加 book 标签；每个文件内部行序保持不变。
func Combine(ctx context.Context, r *rfs.FileSystem, g Group) ([]contract.MergedRecord, error) {
	var rows []contract.MergedRecord
	for _, f := range g.Files {
		text, err := r.ReadText(ctx, f)
		if err != nil {
			return nil, err
		}
		recs, err := dataset.Decode(strings.NewReader(text))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		tag := BookTag(g.Dir, f)
		for _, rec := range recs {
			rows = append(rows, rec.WithBook(tag))
		}
	}
	return rows, nil
}

// Run 扫描 outputRoot 并为每个分组写出 full_<dir>.jsonl（通过 w，w 的根必须是 outputRoot）。
// onGroup 在处理每个分组之前调用，可为 nil。
func Run(ctx context.Context, r *rfs.FileSystem, w contract.Writer, outputRoot string, opts Options, onGroup func(Group)) ([]Result, error) {
	groups, err := Scan(ctx, r, outputRoot, opts.BilingualMarker)
	if err != nil {
		return nil, err
	}
	results := make([]Result, 0, len(groups))
	for _, g := range groups {
		if onGroup != nil {
			onGroup(g)
		}
		rows, err := Combine(ctx, r, g)
		if err != nil {
			return results, err
		}
		id, err := fullID(outputRoot, g.Dir)
		if err != nil {
			return results, err
		}
		b, err := dataset.Marshal(rows)
		if err != nil {
			return results, err
		}
		if err := w.Write(ctx, id, bytes.NewReader(b)); err != nil {
			return results, fmt.Errorf("write %s: %w", id, err)
		}
		results = append(results, Result{Dir: g.Dir, ID: id, Files: g.Files, Rows: len(rows)})
	}
	return results, nil
}

func fullID(outputRoot, dir string) (contract.ArtifactID, error) {
	rel, err := filepath.Rel(outputRoot, dir)
	if err != nil {
		return "", fmt.Errorf("%s: %w", dir, contract.ErrPathInvalid)
	}
	return contract.NormalizeFileID(filepath.Join(rel, FullPrefix+filepath.Base(dir)+dataset.Ext)), nil
}
