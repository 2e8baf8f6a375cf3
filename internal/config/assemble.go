package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"bitext2jsonl/internal/bitext"
	"bitext2jsonl/internal/diag"
	"bitext2jsonl/internal/merge"
	"bitext2jsonl/internal/pipeline"
	rfs "bitext2jsonl/plugins/reader/filesystem"
	wfs "bitext2jsonl/plugins/writer/filesystem"
)

// Validate 对最小必要边界做静态校验。
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.SourceRoot) == "" {
		return errors.New("config: source_root empty")
	}
	if strings.TrimSpace(cfg.OutputRoot) == "" {
		return errors.New("config: output_root empty")
	}
	for _, f := range []struct{ name, v string }{
		{"marker", cfg.Marker},
		{"source_name", cfg.SourceName},
		{"target_name", cfg.TargetName},
	} {
		name, v := f.name, f.v
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("config: %s empty", name)
		}
		if strings.ContainsAny(v, `/\`) {
			return fmt.Errorf("config: %s must be a file name, got %q", name, v)
		}
	}
	if cfg.SourceName == cfg.TargetName {
		return fmt.Errorf("config: source_name and target_name are both %q", cfg.SourceName)
	}
	if cfg.Instruction == "" {
		return errors.New("config: instruction empty")
	}
	if strings.TrimSpace(cfg.BilingualMarker) == "" {
		return errors.New("config: bilingual_marker empty")
	}
	if _, err := bitext.ParsePolicy(cfg.Mismatch); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := diag.ParseLevel(cfg.Logging.Level); err != nil {
		return fmt.Errorf("config: logging.level: %w", err)
	}
	if cfg.Logging.MaxBytes < 0 {
		return errors.New("config: logging.max_bytes must be >= 0")
	}
	return nil
}

// LogConfig 从配置派生日志初始化参数。
func LogConfig(cfg Config, runID string) diag.LogConfig {
	return diag.LogConfig{
		Level:    cfg.Logging.Level,
		File:     cfg.Logging.File,
		MaxBytes: cfg.Logging.MaxBytes,
		Console:  cfg.Logging.ConsoleEnabled(),
		RunID:    runID,
	}
}

// Assemble 校验配置并构造流水线 Settings（Reader/Writer 实例）。
func Assemble(cfg Config) (pipeline.Settings, error) {
	if err := Validate(cfg); err != nil {
		return pipeline.Settings{}, err
	}
	policy, _ := bitext.ParsePolicy(cfg.Mismatch)

	srcRoot, err := filepath.Abs(cfg.SourceRoot)
	if err != nil {
		return pipeline.Settings{}, err
	}
	outRoot, err := filepath.Abs(cfg.OutputRoot)
	if err != nil {
		return pipeline.Settings{}, err
	}
	w, err := wfs.New(&wfs.Options{OutputDir: outRoot, Atomic: cfg.Writer.Atomic})
	if err != nil {
		return pipeline.Settings{}, err
	}
	return pipeline.Settings{
		SourceRoot:  srcRoot,
		OutputRoot:  w.Root(),
		Marker:      cfg.Marker,
		Instruction: cfg.Instruction,
		Pair: bitext.Options{
			SourceName: cfg.SourceName,
			TargetName: cfg.TargetName,
			Mismatch:   policy,
		},
		Merge: merge.Options{BilingualMarker: cfg.BilingualMarker},
		// 输出根位于语料根内部时（默认布局即如此）不参与发现
		Reader:       rfs.New(&rfs.Options{ExcludeDirNames: cfg.ExcludeDirNames, ExcludePaths: []string{outRoot}}),
		OutputReader: rfs.New(nil),
		Writer:       w,
	}, nil
}
