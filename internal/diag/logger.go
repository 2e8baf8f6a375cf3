package diag

import (
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig 为日志初始化参数；进程启动时调用一次 NewLogger。
type LogConfig struct {
	// Level: debug|info|warn|error，默认 debug。
	Level string
	// File: 日志文件路径；为空则不写文件。
	File string
	// MaxBytes: 单个日志文件轮转阈值；<=0 使用 10MiB。
	MaxBytes int64
	// Console: 是否同时输出到控制台。
	Console bool
	// ConsoleWriter: 控制台输出目标，默认 os.Stdout。
	ConsoleWriter io.Writer
	// RunID: 本次运行的关联 ID，写入每条日志的 corr_id。
	RunID string
}

// Logger 封装 zap：文件为 JSON 行，控制台为可读格式。
// 事件统一携带 comp/stage 字段（start|finish|warn|error）。
type Logger struct {
	z    *zap.Logger
	sink *RotatingFile
}

// ParseLevel 解析日志级别；空串为 debug。
func ParseLevel(s string) (zapcore.Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return zapcore.DebugLevel, nil
	}
	return zapcore.ParseLevel(s)
}

// NewLogger 按配置构建日志器。
func NewLogger(cfg LogConfig) (*Logger, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	enabler := zap.NewAtomicLevelAt(lvl)

	var cores []zapcore.Core
	var sink *RotatingFile
	if strings.TrimSpace(cfg.File) != "" {
		sink = NewRotatingFile(cfg.File, cfg.MaxBytes)
		ec := zap.NewProductionEncoderConfig()
		ec.TimeKey = "ts"
		ec.EncodeTime = zapcore.RFC3339TimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(ec), sink, enabler))
	}
	if cfg.Console {
		w := cfg.ConsoleWriter
		if w == nil {
			w = os.Stdout
		}
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
		ec.EncodeLevel = zapcore.CapitalLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.AddSync(w), enabler))
	}
	if len(cores) == 0 {
		return Nop(), nil
	}
	z := zap.New(zapcore.NewTee(cores...))
	if cfg.RunID != "" {
		z = z.With(zap.String("corr_id", cfg.RunID))
	}
	return &Logger{z: z, sink: sink}, nil
}

// Nop 返回丢弃所有输出的日志器。
func Nop() *Logger { return &Logger{z: zap.NewNop()} }

// Close 刷新并关闭文件 sink。
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	_ = l.z.Sync()
	if l.sink != nil {
		return l.sink.Close()
	}
	return nil
}

// Start 记录 start 事件；返回计时器用于 Finish。
func (l *Logger) Start(comp, msg string, fields ...zap.Field) *Timer {
	l.z.Info(msg, append([]zap.Field{zap.String("comp", comp), zap.String("stage", "start")}, fields...)...)
	return &Timer{l: l, comp: comp, t0: time.Now()}
}

// StartWith 记录带目标标识（目录/工件）的 start。
func (l *Logger) StartWith(comp, msg, id string) *Timer {
	l.z.Info(msg, zap.String("comp", comp), zap.String("stage", "start"), zap.String("id", id))
	return &Timer{l: l, comp: comp, id: id, t0: time.Now()}
}

// Debug 输出调试事件。
func (l *Logger) Debug(comp, msg string, fields ...zap.Field) {
	l.z.Debug(msg, append([]zap.Field{zap.String("comp", comp)}, fields...)...)
}

// Warn 输出告警事件。
func (l *Logger) Warn(comp, msg string, fields ...zap.Field) {
	l.z.Warn(msg, append([]zap.Field{zap.String("comp", comp), zap.String("stage", "warn")}, fields...)...)
}

// ErrorWith 记录 error 事件；code 由 Classify 得出，since 为 nil 时不带耗时。
func (l *Logger) ErrorWith(comp, msg string, err error, since *time.Time, id string) {
	fields := []zap.Field{
		zap.String("comp", comp),
		zap.String("stage", "error"),
		zap.String("code", string(Classify(err))),
		zap.Error(err),
	}
	if since != nil {
		fields = append(fields, zap.Int64("dur_ms", time.Since(*since).Milliseconds()))
	}
	if id != "" {
		fields = append(fields, zap.String("id", id))
	}
	l.z.Error(msg, fields...)
}

// Timer 用于 start→finish 计时。
type Timer struct {
	l    *Logger
	comp string
	id   string
	t0   time.Time
}

// Finish 记录 finish；count 为本阶段产出数量。
func (t *Timer) Finish(msg string, count int64, fields ...zap.Field) {
	if t == nil || t.l == nil {
		return
	}
	fs := []zap.Field{
		zap.String("comp", t.comp),
		zap.String("stage", "finish"),
		zap.Int64("dur_ms", time.Since(t.t0).Milliseconds()),
		zap.Int64("count", count),
	}
	if t.id != "" {
		fs = append(fs, zap.String("id", t.id))
	}
	t.l.z.Info(msg, append(fs, fields...)...)
}
