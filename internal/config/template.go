package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// DefaultTemplateConfig 返回 init-config 生成的配置模板：默认值全部显式写出。
func DefaultTemplateConfig() Config {
	cfg := Defaults()
	console, atomic := true, true
	cfg.Logging.Console = &console
	cfg.Writer.Atomic = &atomic
	return cfg
}

// WriteTemplate 在 dir 下生成 config.json 与 .env 模板；已存在的文件跳过，不覆盖。
// 返回实际写出的文件路径。
func WriteTemplate(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var written []string
	b, err := json.MarshalIndent(DefaultTemplateConfig(), "", "  ")
	if err != nil {
		return nil, err
	}
	cfgPath := filepath.Join(dir, "config.json")
	ok, err := writeExclusive(cfgPath, append(b, '\n'))
	if err != nil {
		return written, err
	}
	if ok {
		written = append(written, cfgPath)
	}
	envPath := filepath.Join(dir, ".env")
	ok, err = writeExclusive(envPath, []byte(dotEnvTemplate()))
	if err != nil {
		return written, err
	}
	if ok {
		written = append(written, envPath)
	}
	return written, nil
}

func writeExclusive(path string, b []byte) (bool, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if _, err := f.Write(b); err != nil {
		return false, err
	}
	return true, nil
}

func dotEnvTemplate() string {
	var b strings.Builder
	b.WriteString("# bitext2jsonl .env 模板（由 init-config 生成）\n")
	b.WriteString("# 优先级：CLI > ENV(.env) > 配置文件 > 默认值；空值表示未设置。\n\n")
	b.WriteString("# 配置来源（二选一）\n")
	b.WriteString(EnvPrefix + "CONFIG_FILE=\n")
	b.WriteString(EnvPrefix + "CONFIG_JSON=\n\n")
	b.WriteString("# 路径与文件名\n")
	for _, k := range []string{"SOURCE_ROOT", "OUTPUT_ROOT", "MARKER", "SOURCE_NAME", "TARGET_NAME", "EXCLUDE_DIR_NAMES"} {
		b.WriteString(EnvPrefix + k + "=\n")
	}
	b.WriteString("\n# 记录与合并\n")
	for _, k := range []string{"INSTRUCTION", "BILINGUAL_MARKER", "MISMATCH"} {
		b.WriteString(EnvPrefix + k + "=\n")
	}
	b.WriteString("\n# 日志与写出\n")
	for _, k := range []string{"LOG_LEVEL", "LOG_FILE", "LOG_CONSOLE", "WRITER_ATOMIC"} {
		b.WriteString(EnvPrefix + k + "=\n")
	}
	return b.String()
}
