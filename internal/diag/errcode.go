package diag

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"bitext2jsonl/pkg/contract"
)

// Code 是最小错误分类代码，仅用于日志汇总，与退出码解耦。
type Code string

const (
	CodeUnknown   Code = "unknown"
	CodeInvariant Code = "invariant"
	CodeDecode    Code = "decode"
	CodeCancel    Code = "cancel"
	CodeIO        Code = "io"
)

// Classify 将错误归为最小分类。
// 仅依赖哨兵错误与标准库错误类型，不做字符串匹配。
func Classify(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CodeCancel
	}
	if errors.Is(err, contract.ErrLineCountMismatch) || errors.Is(err, contract.ErrPathInvalid) {
		return CodeInvariant
	}
	var serr *json.SyntaxError
	if errors.Is(err, contract.ErrInvalidUTF8) || errors.Is(err, contract.ErrInvalidRecord) || errors.As(err, &serr) {
		return CodeDecode
	}
	var perr *os.PathError
	var lerr *os.LinkError
	if errors.As(err, &perr) || errors.As(err, &lerr) {
		return CodeIO
	}
	return CodeUnknown
}
