package contract

// DefaultInstruction 为每条记录固定携带的指令文本（现代汉语 → 古文）。
const DefaultInstruction = "请把现代汉语翻译成古文"

// FileID: 逻辑路径标识（正斜杠、已清理），用于日志与 book 标签，跨平台一致。
type FileID string

// LinePair: 同一行号上的一对对齐文本。
// Modern 来自 source.txt，Classical 来自 target.txt。
type LinePair struct {
	Modern    string
	Classical string
}

// Record: 指令微调样本。
// 字段重命名规则：source(现代文) → output，target(古文) → input。
// JSON 字段顺序即输出顺序。
type Record struct {
	Instruction string `json:"instruction"`
	Input       string `json:"input"`
	Output      string `json:"output"`
}

// MergedRecord: 合并文件中的一行，额外携带来源标签 book。
type MergedRecord struct {
	Instruction string `json:"instruction"`
	Input       string `json:"input"`
	Output      string `json:"output"`
	Book        string `json:"book"`
}

// WithBook 返回附加 book 标签后的合并行。
func (r Record) WithBook(book string) MergedRecord {
	return MergedRecord{Instruction: r.Instruction, Input: r.Input, Output: r.Output, Book: book}
}
