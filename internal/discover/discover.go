// Package discover 定位语料根下需要处理的书目目录。
package discover

import (
	"context"
	"path/filepath"
	"sort"

	rfs "bitext2jsonl/plugins/reader/filesystem"
)

// DefaultMarker 为定位目录用的哨兵文件名，仅看存在性，不读内容。
const DefaultMarker = "bitext.txt"

// Books 遍历 root，对每个名为 marker 的文件收集其祖父目录（marker.parent.parent），
// 去重后按字典序返回绝对路径。没有任何 marker 时返回空切片，不视为错误。
func Books(ctx context.Context, r *rfs.FileSystem, root, marker string) ([]string, error) {
	if marker == "" {
		marker = DefaultMarker
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	err = r.Walk(ctx, abs, func(p string) error {
		if filepath.Base(p) != marker {
			return nil
		}
		seen[filepath.Dir(filepath.Dir(p))] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}
