package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cfgpkg "bitext2jsonl/internal/config"
	"bitext2jsonl/internal/diag"
	"bitext2jsonl/internal/pipeline"
)

// 退出码：0 成功；1 运行期失败；3 配置失败。
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 3
)

// 测试替换点
var (
	pipelineConvert = pipeline.Convert
	pipelineMerge   = pipeline.Merge
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func configErr(format string, a ...any) error {
	return &exitError{code: exitConfig, err: fmt.Errorf(format, a...)}
}

// flags 为 CLI 覆盖项；空值表示未设置。
type flags struct {
	config     string
	sourceRoot string
	outputRoot string
	marker     string
	mismatch   string
	logLevel   string
	logFile    string
	noConsole  bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	// 在任何 ENV 读取前加载工作目录下的 .env（不覆盖已有 ENV）。
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(stderr, ".env 解析失败（已忽略）: %v\n", err)
	}
	root := newRootCmd(stdout)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}
	fmt.Fprintf(stderr, "运行失败: %v\n", err)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// cobra 自身的参数/旗标错误归为配置失败
	return exitConfig
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	var f flags
	root := &cobra.Command{
		Use:   "bitext2jsonl",
		Short: "把双语平行语料转换为指令微调 JSON-Lines 数据集",
		Long: `bitext2jsonl 遍历语料根，定位含 bitext.txt 的章节目录，
将 source.txt（现代汉语）与 target.txt（古文）逐行配对，
写出 dataset_<目录>.jsonl，并把同一书目下的数据文件合并为 full_<书目>.jsonl。

不带子命令时等价于 run。`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return execute(cmd.Context(), f, true, true)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&f.config, "config", "", "配置文件路径（JSON 或 YAML）；缺省读取 ./config.json 或 ./config.yaml（若存在）")
	pf.StringVar(&f.sourceRoot, "source-root", "", "语料根目录（覆盖配置）")
	pf.StringVar(&f.outputRoot, "output-root", "", "输出根目录（覆盖配置）")
	pf.StringVar(&f.marker, "marker", "", "哨兵文件名（覆盖配置）")
	pf.StringVar(&f.mismatch, "mismatch", "", "行数不一致策略 truncate|warn|error（覆盖配置）")
	pf.StringVar(&f.logLevel, "log-level", "", "日志级别 debug|info|warn|error（覆盖配置）")
	pf.StringVar(&f.logFile, "log-file", "", "日志文件路径（覆盖配置）")
	pf.BoolVar(&f.noConsole, "no-console", false, "关闭控制台日志输出")

	root.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "转换并合并（默认）",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return execute(cmd.Context(), f, true, true)
			},
		},
		&cobra.Command{
			Use:   "convert",
			Short: "仅生成每个目录的 dataset_*.jsonl",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return execute(cmd.Context(), f, true, false)
			},
		},
		&cobra.Command{
			Use:   "merge",
			Short: "仅合并输出根下已有的 dataset_*.jsonl",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return execute(cmd.Context(), f, false, true)
			},
		},
		&cobra.Command{
			Use:   "init-config [dir]",
			Short: "在目录（默认当前目录）生成 config.json 与 .env 模板，不覆盖已有文件",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				dir := "."
				if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
					dir = strings.TrimSpace(args[0])
				}
				written, err := cfgpkg.WriteTemplate(dir)
				if err != nil {
					return configErr("生成默认配置失败: %w", err)
				}
				for _, p := range written {
					fmt.Fprintln(stdout, p)
				}
				return nil
			},
		},
	)
	return root
}

// resolveConfig 合并 默认值 < 配置文件 < ENV < CLI。
func resolveConfig(f flags) (cfgpkg.Config, error) {
	cfg := cfgpkg.Defaults()

	path := f.config
	if path == "" {
		path = os.Getenv(cfgpkg.EnvPrefix + "CONFIG_FILE")
	}
	if path == "" {
		for _, p := range []string{"config.json", "config.yaml", "config.yml"} {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}
	switch raw := os.Getenv(cfgpkg.EnvPrefix + "CONFIG_JSON"); {
	case raw != "":
		base, err := cfgpkg.LoadJSON("", []byte(raw))
		if err != nil {
			return cfg, configErr("配置解析失败: %w", err)
		}
		cfg = cfgpkg.Merge(cfg, base)
	case path != "":
		base, err := cfgpkg.Load(path)
		if err != nil {
			return cfg, configErr("配置解析失败: %w", err)
		}
		cfg = cfgpkg.Merge(cfg, base)
	}

	overEnv, err := cfgpkg.EnvOverlay(os.Environ())
	if err != nil {
		return cfg, configErr("环境变量解析失败: %w", err)
	}
	cfg = cfgpkg.Merge(cfg, overEnv)

	over := cfgpkg.Config{
		SourceRoot: f.sourceRoot,
		OutputRoot: f.outputRoot,
		Marker:     f.marker,
		Mismatch:   f.mismatch,
		Logging:    cfgpkg.Logging{Level: f.logLevel, File: f.logFile},
	}
	if f.noConsole {
		off := false
		over.Logging.Console = &off
	}
	cfg = cfgpkg.Merge(cfg, over)

	if err := cfgpkg.Validate(cfg); err != nil {
		return cfg, configErr("配置校验失败: %w", err)
	}
	return cfg, nil
}

func execute(ctx context.Context, f flags, convert, merge bool) error {
	start := time.Now()
	cfg, err := resolveConfig(f)
	if err != nil {
		return err
	}
	set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		return configErr("装配失败: %w", err)
	}
	logger, err := diag.NewLogger(cfgpkg.LogConfig(cfg, uuid.NewString()))
	if err != nil {
		return configErr("日志初始化失败: %w", err)
	}
	defer logger.Close()

	if b, err := json.Marshal(cfg); err == nil {
		logger.Debug("config", "effective", zap.ByteString("config", b))
	}

	t := logger.Start("pipeline", "run", zap.Bool("convert", convert), zap.Bool("merge", merge))
	var rows int64
	if convert {
		sum, err := pipelineConvert(ctx, set, logger)
		if err != nil {
			logger.ErrorWith("pipeline", "first error", err, &start, "")
			return &exitError{code: exitRuntime, err: err}
		}
		rows += int64(sum.Records)
	}
	if merge {
		res, err := pipelineMerge(ctx, set, logger)
		if err != nil {
			logger.ErrorWith("pipeline", "first error", err, &start, "")
			return &exitError{code: exitRuntime, err: err}
		}
		for _, r := range res {
			rows += int64(r.Rows)
		}
	}
	t.Finish("run", rows)
	return nil
}
