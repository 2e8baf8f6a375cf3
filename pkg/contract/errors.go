package contract

import "errors"

// 最小错误分类（哨兵）。调用方以 %w 包装并附带路径。
var (
	// ErrPathInvalid: 目标标识映射为无效/越界路径（例如绝对路径或 '..' 逃逸）。
	ErrPathInvalid = errors.New("path invalid")
	// ErrInvalidUTF8: 文本文件不是合法 UTF-8。
	ErrInvalidUTF8 = errors.New("invalid utf-8")
	// ErrLineCountMismatch: source/target 行数不一致且策略为 error。
	ErrLineCountMismatch = errors.New("line count mismatch")
	// ErrInvalidRecord: JSONL 行无法解码为记录。
	ErrInvalidRecord = errors.New("invalid record")
)
