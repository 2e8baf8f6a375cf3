// Package dataset 负责记录装配与 JSON-Lines 编解码。
package dataset

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"bitext2jsonl/pkg/contract"
)

const (
	// FilePrefix 为单目录数据文件名前缀：dataset_<folder>.jsonl。
	FilePrefix = "dataset_"
	// Ext 为输出扩展名。
	Ext = ".jsonl"
)

// Build 把行对转换为记录：古文 → input，现代文 → output，统一附加 instruction。
func Build(pairs []contract.LinePair, instruction string) []contract.Record {
	if instruction == "" {
		instruction = contract.DefaultInstruction
	}
	out := make([]contract.Record, len(pairs))
	for i, p := range pairs {
		out[i] = contract.Record{Instruction: instruction, Input: p.Classical, Output: p.Modern}
	}
	return out
}

// Encode 以 JSON-Lines 写出 rows：每行一个紧凑对象，非 ASCII 原样输出，不做 HTML 转义。
func Encode[T any](w io.Writer, rows []T) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for i := range rows {
		// Encode 自带换行
		if err := enc.Encode(rows[i]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Marshal 把 rows 编码为内存中的 JSON-Lines 字节。
func Marshal[T any](rows []T) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode 逐行读取 JSON-Lines 记录；空行跳过，未知字段或非法 JSON 返回 contract.ErrInvalidRecord。
func Decode(r io.Reader) ([]contract.Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var out []contract.Record
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		var rec contract.Record
		if err := dec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("line %d: %w: %v", line, contract.ErrInvalidRecord, err)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// TargetPath 计算 folder 对应数据文件相对输出根的标识：
// <folder.parent 相对 corpusRoot 的路径>/dataset_<folder 名>.jsonl。
// folder 不在 corpusRoot 之内时返回 contract.ErrPathInvalid。
func TargetPath(corpusRoot, folder string) (contract.ArtifactID, error) {
	root, err := filepath.Abs(corpusRoot)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(folder)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, filepath.Dir(abs))
	if err != nil {
		return "", fmt.Errorf("%s: %w", folder, contract.ErrPathInvalid)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s: %w", folder, contract.ErrPathInvalid)
	}
	name := FilePrefix + filepath.Base(abs) + Ext
	return contract.NormalizeFileID(filepath.Join(rel, name)), nil
}

// Dump 编码 records 并通过 w 写到 TargetPath(corpusRoot, folder)，返回写出的工件标识。
func Dump(ctx context.Context, w contract.Writer, corpusRoot, folder string, records []contract.Record) (contract.ArtifactID, error) {
	if w == nil {
		return "", errors.New("dataset: nil writer")
	}
	id, err := TargetPath(corpusRoot, folder)
	if err != nil {
		return "", err
	}
	b, err := Marshal(records)
	if err != nil {
		return "", err
	}
	if err := w.Write(ctx, id, bytes.NewReader(b)); err != nil {
		return "", fmt.Errorf("write %s: %w", id, err)
	}
	return id, nil
}
