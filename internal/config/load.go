package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"bitext2jsonl/internal/bitext"
	"bitext2jsonl/internal/discover"
	"bitext2jsonl/internal/merge"
	"bitext2jsonl/pkg/contract"
)

// EnvPrefix 为环境变量覆盖前缀。
const EnvPrefix = "BITEXT_"

// Defaults 返回默认配置：工具位于语料内的 tools/ 目录下运行，
// 读取上一级目录，写入当前目录下的 dataset/。
func Defaults() Config {
	return Config{
		SourceRoot:      "..",
		OutputRoot:      "dataset",
		Marker:          discover.DefaultMarker,
		SourceName:      "source.txt",
		TargetName:      "target.txt",
		Instruction:     contract.DefaultInstruction,
		BilingualMarker: merge.DefaultBilingualMarker,
		Mismatch:        string(bitext.PolicyWarn),
		ExcludeDirNames: []string{".git"},
		Logging:         Logging{Level: "debug", File: "bitext2jsonl.log"},
	}
}

// Load 按扩展名解析配置文件：.yaml/.yml 使用 YAML，其余按 JSON（均严格拒绝未知字段）。
func Load(path string) (Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	default:
		return LoadJSON(path, nil)
	}
}

// LoadJSON 从文件路径或原始 JSON 解析 Config（严格拒绝未知字段）。
func LoadJSON(path string, raw []byte) (Config, error) {
	var cfg Config
	var r io.Reader
	switch {
	case len(raw) > 0:
		r = bytes.NewReader(raw)
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return cfg, err
		}
		defer f.Close()
		r = f
	default:
		return cfg, errors.New("no config source provided")
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadYAML 解析 YAML 配置文件（严格拒绝未知字段）。空文件得到零值配置。
func LoadYAML(path string) (Config, error) {
	var cfg Config
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, err
	}
	return cfg, nil
}

// Merge 按优先级合并（后者覆盖前者）；空值不覆盖，不做深度合并。
func Merge(base, over Config) Config {
	out := base
	setStr := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	setStr(&out.SourceRoot, over.SourceRoot)
	setStr(&out.OutputRoot, over.OutputRoot)
	setStr(&out.Marker, over.Marker)
	setStr(&out.SourceName, over.SourceName)
	setStr(&out.TargetName, over.TargetName)
	setStr(&out.BilingualMarker, over.BilingualMarker)
	setStr(&out.Mismatch, over.Mismatch)
	// 指令文本按原样保留（不裁剪空白）
	if over.Instruction != "" {
		out.Instruction = over.Instruction
	}
	if over.ExcludeDirNames != nil {
		out.ExcludeDirNames = cloneStrings(over.ExcludeDirNames)
	}

	setStr(&out.Logging.Level, over.Logging.Level)
	setStr(&out.Logging.File, over.Logging.File)
	if over.Logging.Console != nil {
		v := *over.Logging.Console
		out.Logging.Console = &v
	}
	if over.Logging.MaxBytes != 0 {
		out.Logging.MaxBytes = over.Logging.MaxBytes
	}
	if over.Writer.Atomic != nil {
		v := *over.Writer.Atomic
		out.Writer.Atomic = &v
	}
	return out
}

// EnvOverlay 从环境变量构建一个 Config 覆盖（仅解析有限键集合，前缀 BITEXT_）。
// 布尔值解析失败返回错误；未知键忽略。
func EnvOverlay(environ []string) (Config, error) {
	var over Config
	for _, kv := range environ {
		if !strings.HasPrefix(kv, EnvPrefix) {
			continue
		}
		eq := strings.IndexByte(kv, '=')
		if eq <= len(EnvPrefix) {
			continue
		}
		key := strings.TrimPrefix(kv[:eq], EnvPrefix)
		val := kv[eq+1:]
		switch key {
		case "SOURCE_ROOT":
			over.SourceRoot = val
		case "OUTPUT_ROOT":
			over.OutputRoot = val
		case "MARKER":
			over.Marker = val
		case "SOURCE_NAME":
			over.SourceName = val
		case "TARGET_NAME":
			over.TargetName = val
		case "INSTRUCTION":
			over.Instruction = val
		case "BILINGUAL_MARKER":
			over.BilingualMarker = val
		case "MISMATCH":
			over.Mismatch = val
		case "EXCLUDE_DIR_NAMES":
			if strings.TrimSpace(val) != "" {
				over.ExcludeDirNames = splitComma(val)
			}
		case "LOG_LEVEL":
			over.Logging.Level = val
		case "LOG_FILE":
			over.Logging.File = val
		case "LOG_CONSOLE":
			b, err := parseBool(key, val)
			if err != nil {
				return over, err
			}
			over.Logging.Console = b
		case "WRITER_ATOMIC":
			b, err := parseBool(key, val)
			if err != nil {
				return over, err
			}
			over.Writer.Atomic = b
		}
	}
	return over, nil
}

// parseBool 空值视为未设置。
func parseBool(key, val string) (*bool, error) {
	if strings.TrimSpace(val) == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		return nil, fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	return &b, nil
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
