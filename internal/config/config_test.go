package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitext2jsonl/internal/bitext"
	"bitext2jsonl/pkg/contract"
	wfs "bitext2jsonl/plugins/writer/filesystem"
)

// 解析完整 config.json
func TestLoadJSON(t *testing.T) {
	cfg, err := Load("../../testdata/config/basic.json")
	if err != nil {
		t.Fatalf("加载失败: %v", err)
	}
	if cfg.SourceRoot != "corpus" || cfg.Mismatch != "error" {
		t.Fatalf("字段映射错误: %+v", cfg)
	}
	if cfg.Logging.ConsoleEnabled() || cfg.Writer.Atomic == nil || *cfg.Writer.Atomic {
		t.Fatalf("布尔字段映射错误: %+v", cfg)
	}
	if err := Validate(Merge(Defaults(), cfg)); err != nil {
		t.Fatalf("校验失败: %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	cfg, err := Load("../../testdata/config/basic.yaml")
	require.NoError(t, err)
	assert.Equal(t, "out", cfg.OutputRoot)
	assert.Equal(t, contract.DefaultInstruction, cfg.Instruction)
	assert.Equal(t, "对照", cfg.BilingualMarker)
	assert.Equal(t, "warn", cfg.Logging.Level)

	p := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(p, []byte("unknown: 1\n"), 0o644))
	_, err = Load(p)
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	cfg, err = Load(empty)
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)
}

// 含非法字段
func TestLoadJSONUnknown(t *testing.T) {
	if _, err := LoadJSON("", []byte(`{"unknown":1}`)); err == nil {
		t.Fatalf("应当返回错误")
	}
	if _, err := LoadJSON("", nil); err == nil {
		t.Fatalf("无配置来源应当返回错误")
	}
}

// ENV 覆盖部分字段
func TestEnvOverlay(t *testing.T) {
	env := []string{
		"BITEXT_SOURCE_ROOT=/corpus",
		"BITEXT_MISMATCH=error",
		"BITEXT_EXCLUDE_DIR_NAMES=.git, tmp ,",
		"BITEXT_LOG_CONSOLE=false",
		"BITEXT_WRITER_ATOMIC=",
		"BITEXT_UNKNOWN=1",
		"PATH=/usr/bin",
	}
	over, err := EnvOverlay(env)
	require.NoError(t, err)
	assert.Equal(t, "/corpus", over.SourceRoot)
	assert.Equal(t, "error", over.Mismatch)
	assert.Equal(t, []string{".git", "tmp"}, over.ExcludeDirNames)
	require.NotNil(t, over.Logging.Console)
	assert.False(t, *over.Logging.Console)
	assert.Nil(t, over.Writer.Atomic)

	_, err = EnvOverlay([]string{"BITEXT_LOG_CONSOLE=maybe"})
	assert.ErrorContains(t, err, "BITEXT_LOG_CONSOLE")
}

// 优先级：后者覆盖前者，空值不覆盖
func TestMerge(t *testing.T) {
	base := Defaults()
	f := false
	out := Merge(base, Config{OutputRoot: " out ", Logging: Logging{Console: &f}, ExcludeDirNames: []string{}})
	assert.Equal(t, "..", out.SourceRoot)
	assert.Equal(t, "out", out.OutputRoot)
	assert.False(t, out.Logging.ConsoleEnabled())
	assert.Empty(t, out.ExcludeDirNames)
	assert.Equal(t, contract.DefaultInstruction, out.Instruction)

	out = Merge(out, Config{Instruction: " 译为古文 "})
	assert.Equal(t, " 译为古文 ", out.Instruction)
	assert.Equal(t, []string{".git"}, Defaults().ExcludeDirNames)
}

func TestValidateErrors(t *testing.T) {
	require.NoError(t, Validate(Defaults()))
	require.NoError(t, Validate(DefaultTemplateConfig()))

	cases := map[string]func(*Config){
		"source_root":      func(c *Config) { c.SourceRoot = " " },
		"output_root":      func(c *Config) { c.OutputRoot = "" },
		"marker":           func(c *Config) { c.Marker = "" },
		"must be a file":   func(c *Config) { c.SourceName = "a/source.txt" },
		"both":             func(c *Config) { c.TargetName = c.SourceName },
		"instruction":      func(c *Config) { c.Instruction = "" },
		"bilingual_marker": func(c *Config) { c.BilingualMarker = "" },
		"mismatch":         func(c *Config) { c.Mismatch = "drop" },
		"logging.level":    func(c *Config) { c.Logging.Level = "loud" },
		"max_bytes":        func(c *Config) { c.Logging.MaxBytes = -1 },
	}
	for want, mutate := range cases {
		cfg := Defaults()
		mutate(&cfg)
		err := Validate(cfg)
		if assert.Error(t, err, want) {
			assert.Contains(t, err.Error(), want)
		}
	}
}

func TestAssemble(t *testing.T) {
	dir := t.TempDir()
	cfg := Defaults()
	cfg.SourceRoot = dir
	cfg.OutputRoot = filepath.Join(dir, "tools", "dataset")
	cfg.Mismatch = ""
	set, err := Assemble(cfg)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(set.SourceRoot))
	assert.Equal(t, filepath.Join(dir, "tools", "dataset"), set.OutputRoot)
	assert.Equal(t, bitext.PolicyWarn, set.Pair.Mismatch)
	assert.Equal(t, "source.txt", set.Pair.SourceName)
	assert.NotNil(t, set.Reader)
	assert.NotNil(t, set.OutputReader)
	require.NotNil(t, set.Writer)
	// Writer 的根即输出根，合并阶段据此计算 full_*.jsonl 的相对标识
	fsw, ok := set.Writer.(*wfs.FS)
	require.True(t, ok)
	assert.Equal(t, set.OutputRoot, fsw.Root())

	cfg.Mismatch = "bogus"
	_, err = Assemble(cfg)
	assert.Error(t, err)
}

func TestLogConfig(t *testing.T) {
	lc := LogConfig(Defaults(), "rid")
	assert.Equal(t, "debug", lc.Level)
	assert.Equal(t, "bitext2jsonl.log", lc.File)
	assert.True(t, lc.Console)
	assert.Equal(t, "rid", lc.RunID)
}

// init-config 不覆盖已存在文件
func TestWriteTemplate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "conf")
	written, err := WriteTemplate(dir)
	require.NoError(t, err)
	assert.Len(t, written, 2)

	cfg, err := Load(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	assert.Equal(t, DefaultTemplateConfig(), cfg)

	env, err := os.ReadFile(filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(env), "BITEXT_MISMATCH="))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte("{}"), 0o644))
	written, err = WriteTemplate(dir)
	require.NoError(t, err)
	assert.Empty(t, written)
	b, err := os.ReadFile(filepath.Join(dir, "config.json"))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(b))
}

func TestSplitComma(t *testing.T) {
	parts := splitComma("a, b , ,c")
	if len(parts) != 3 || parts[1] != "b" {
		t.Fatalf("splitComma 结果错误: %v", parts)
	}
}
