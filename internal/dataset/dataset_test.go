package dataset

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bitext2jsonl/pkg/contract"
	wfs "bitext2jsonl/plugins/writer/filesystem"
)

func TestBuildRenamesFields(t *testing.T) {
	pairs := []contract.LinePair{{Modern: "line1", Classical: "古一"}, {Modern: "line2", Classical: "古二"}}
	recs := Build(pairs, "")
	require.Len(t, recs, 2)
	assert.Equal(t, contract.Record{Instruction: contract.DefaultInstruction, Input: "古一", Output: "line1"}, recs[0])
	assert.Equal(t, contract.Record{Instruction: contract.DefaultInstruction, Input: "古二", Output: "line2"}, recs[1])

	for _, r := range Build(pairs, "custom") {
		assert.Equal(t, "custom", r.Instruction)
	}
}

func TestEncodeWireFormat(t *testing.T) {
	recs := []contract.Record{
		{Instruction: contract.DefaultInstruction, Input: "古一", Output: "line1"},
		{Instruction: contract.DefaultInstruction, Input: "<a&b>", Output: "say \"hi\""},
	}
	b, err := Marshal(recs)
	require.NoError(t, err)
	want := `{"instruction":"请把现代汉语翻译成古文","input":"古一","output":"line1"}` + "\n" +
		`{"instruction":"请把现代汉语翻译成古文","input":"<a&b>","output":"say \"hi\""}` + "\n"
	assert.Equal(t, want, string(b))

	merged := []contract.MergedRecord{recs[0].WithBook("BookA/ch1.jsonl")}
	b, err = Marshal(merged)
	require.NoError(t, err)
	assert.Equal(t, `{"instruction":"请把现代汉语翻译成古文","input":"古一","output":"line1","book":"BookA/ch1.jsonl"}`+"\n", string(b))

	b, err = Marshal([]contract.Record{})
	require.NoError(t, err)
	assert.Empty(t, b)
}

func TestDecode(t *testing.T) {
	in := `{"instruction":"i","input":"古","output":"今"}` + "\n\n" + `{"instruction":"i","input":"a","output":"b"}`
	recs, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []contract.Record{
		{Instruction: "i", Input: "古", Output: "今"},
		{Instruction: "i", Input: "a", Output: "b"},
	}, recs)

	_, err = Decode(strings.NewReader(`{"instruction":"i","input":"a","output":"b","book":"x"}`))
	assert.ErrorIs(t, err, contract.ErrInvalidRecord)
	_, err = Decode(strings.NewReader("{oops"))
	assert.ErrorIs(t, err, contract.ErrInvalidRecord)
}

func TestTargetPath(t *testing.T) {
	root := t.TempDir()
	id, err := TargetPath(root, filepath.Join(root, "双语数据", "史记", "七十列传"))
	require.NoError(t, err)
	assert.Equal(t, contract.ArtifactID("双语数据/史记/dataset_七十列传.jsonl"), id)

	id, err = TargetPath(root, filepath.Join(root, "BookA"))
	require.NoError(t, err)
	assert.Equal(t, contract.ArtifactID("dataset_BookA.jsonl"), id)

	_, err = TargetPath(filepath.Join(root, "a"), filepath.Join(root, "b", "c"))
	assert.ErrorIs(t, err, contract.ErrPathInvalid)
}

// 同一输入重复 Dump，输出逐字节一致
func TestDumpIdempotent(t *testing.T) {
	corpus := t.TempDir()
	out := t.TempDir()
	w, err := wfs.New(&wfs.Options{OutputDir: out})
	require.NoError(t, err)

	folder := filepath.Join(corpus, "史记", "七十列传")
	recs := Build([]contract.LinePair{{Modern: "今", Classical: "古"}}, "")
	id, err := Dump(context.Background(), w, corpus, folder, recs)
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(string(id))))
	require.NoError(t, err)

	_, err = Dump(context.Background(), w, corpus, folder, recs)
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(string(id))))
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, second))
}

type failWriter struct{}

func (failWriter) Write(context.Context, contract.ArtifactID, io.Reader) error {
	return errors.New("permission denied")
}

func TestDumpWriteError(t *testing.T) {
	root := t.TempDir()
	_, err := Dump(context.Background(), failWriter{}, root, filepath.Join(root, "a", "b"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a/dataset_b.jsonl")

	_, err = Dump(context.Background(), nil, root, filepath.Join(root, "a"), nil)
	assert.Error(t, err)
}
