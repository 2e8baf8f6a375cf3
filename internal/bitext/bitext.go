// Package bitext 把章节目录下的 source/target 文本按行号配对。
package bitext

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"bitext2jsonl/pkg/contract"
	rfs "bitext2jsonl/plugins/reader/filesystem"
)

// Policy 决定 source/target 行数不一致时的处理方式。
// 无论哪种策略，配对始终截断到较短一侧（zip-shortest），多出的行被丢弃。
type Policy string

const (
	// PolicyTruncate 静默截断。
	PolicyTruncate Policy = "truncate"
	// PolicyWarn 截断，并在 Stats.Mismatches 中报告，由调用方记录告警。
	PolicyWarn Policy = "warn"
	// PolicyError 行数不一致即失败。
	PolicyError Policy = "error"
)

// ParsePolicy 解析策略名；空串视为 PolicyWarn。
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PolicyWarn, nil
	case PolicyTruncate, PolicyWarn, PolicyError:
		return p, nil
	default:
		return "", fmt.Errorf("unknown mismatch policy %q", s)
	}
}

// Options 配置文件名与策略。
type Options struct {
	SourceName string
	TargetName string
	Mismatch   Policy
}

func (o Options) withDefaults() Options {
	if o.SourceName == "" {
		o.SourceName = "source.txt"
	}
	if o.TargetName == "" {
		o.TargetName = "target.txt"
	}
	if o.Mismatch == "" {
		o.Mismatch = PolicyWarn
	}
	return o
}

// Mismatch 描述一个行数不一致的章节。
type Mismatch struct {
	Chapter     string
	SourceLines int
	TargetLines int
}

// Dropped 返回被截断丢弃的行数。
func (m Mismatch) Dropped() int {
	if m.SourceLines > m.TargetLines {
		return m.SourceLines - m.TargetLines
	}
	return m.TargetLines - m.SourceLines
}

// Stats 汇总一次配对。
type Stats struct {
	Chapters   int
	Pairs      int
	Mismatches []Mismatch
}

// Pair 枚举 folder 的直接子目录（每个为一个章节），读取其中的 source/target 文本并逐行配对，
// 所有章节的结果按章节字典序拼接为一个扁平序列。
// 缺失文件、非 UTF-8 内容为硬错误。
func Pair(ctx context.Context, r *rfs.FileSystem, folder string, opts Options) ([]contract.LinePair, Stats, error) {
	opts = opts.withDefaults()
	var st Stats
	chapters, err := r.ReadDirs(ctx, folder)
	if err != nil {
		return nil, st, err
	}
	var pairs []contract.LinePair
	for _, ch := range chapters {
		src, err := r.ReadText(ctx, filepath.Join(ch, opts.SourceName))
		if err != nil {
			return nil, st, err
		}
		tgt, err := r.ReadText(ctx, filepath.Join(ch, opts.TargetName))
		if err != nil {
			return nil, st, err
		}
		srcLines, tgtLines := SplitLines(src), SplitLines(tgt)
		if len(srcLines) != len(tgtLines) {
			m := Mismatch{Chapter: ch, SourceLines: len(srcLines), TargetLines: len(tgtLines)}
			switch opts.Mismatch {
			case PolicyError:
				return nil, st, fmt.Errorf("%s: %w (source=%d target=%d)", ch, contract.ErrLineCountMismatch, m.SourceLines, m.TargetLines)
			case PolicyWarn:
				st.Mismatches = append(st.Mismatches, m)
			}
		}
		got := Zip(srcLines, tgtLines)
		pairs = append(pairs, got...)
		st.Chapters++
		st.Pairs += len(got)
	}
	return pairs, st, nil
}

// Zip 按位置配对两组行，长度取较短者。
func Zip(modern, classical []string) []contract.LinePair {
	n := min(len(modern), len(classical))
	out := make([]contract.LinePair, n)
	for i := 0; i < n; i++ {
		out[i] = contract.LinePair{Modern: modern[i], Classical: classical[i]}
	}
	return out
}
