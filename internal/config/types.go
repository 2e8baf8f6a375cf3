package config

// Config: 运行期只读配置（一次解析，运行期不变）。
// JSON/YAML 使用 snake_case；未知字段在解析期失败。
type Config struct {
	// SourceRoot: 语料根；OutputRoot: 输出根（镜像语料根的目录结构）。
	SourceRoot string `json:"source_root" yaml:"source_root"`
	OutputRoot string `json:"output_root" yaml:"output_root"`

	// Marker: 定位书目目录的哨兵文件名。
	Marker string `json:"marker" yaml:"marker"`
	// SourceName/TargetName: 章节目录内的现代文/古文文件名。
	SourceName string `json:"source_name" yaml:"source_name"`
	TargetName string `json:"target_name" yaml:"target_name"`
	// Instruction: 每条记录的固定指令。
	Instruction string `json:"instruction" yaml:"instruction"`
	// BilingualMarker: 文件名含该子串的数据文件不参与合并。
	BilingualMarker string `json:"bilingual_marker" yaml:"bilingual_marker"`
	// Mismatch: 行数不一致策略 truncate|warn|error。
	Mismatch string `json:"mismatch" yaml:"mismatch"`
	// ExcludeDirNames: 遍历语料根时跳过的目录名。
	ExcludeDirNames []string `json:"exclude_dir_names" yaml:"exclude_dir_names"`

	Logging Logging `json:"logging" yaml:"logging"`
	Writer  Writer  `json:"writer" yaml:"writer"`
}

// Logging: 日志等级、文件与控制台开关。
type Logging struct {
	Level   string `json:"level" yaml:"level"`
	File    string `json:"file" yaml:"file"`
	Console *bool  `json:"console,omitempty" yaml:"console,omitempty"`
	// MaxBytes: 日志文件轮转阈值（字节），0 使用默认。
	MaxBytes int64 `json:"max_bytes,omitempty" yaml:"max_bytes,omitempty"`
}

// Writer: 输出写入选项。
type Writer struct {
	// Atomic: 是否使用临时文件 + rename；nil 视为 true。
	Atomic *bool `json:"atomic,omitempty" yaml:"atomic,omitempty"`
}

// ConsoleEnabled 返回控制台输出是否开启（默认开启）。
func (l Logging) ConsoleEnabled() bool { return l.Console == nil || *l.Console }
