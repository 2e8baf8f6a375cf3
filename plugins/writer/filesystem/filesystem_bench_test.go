package filesystem

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"bitext2jsonl/pkg/contract"
)

// BenchmarkWrite 不同载荷尺寸下的写入开销。
func BenchmarkWrite(b *testing.B) {
	line := []byte(`{"instruction":"请把现代汉语翻译成古文","input":"古文","output":"现代文"}` + "\n")
	for _, n := range []int{16, 16 * 1024} {
		b.Run(fmt.Sprintf("lines=%d", n), func(b *testing.B) {
			data := bytes.Repeat(line, n)
			w, err := New(&Options{OutputDir: b.TempDir()})
			if err != nil {
				b.Fatalf("创建 Writer 失败: %v", err)
			}
			id := contract.ArtifactID("bench/dataset_x.jsonl")
			ctx := context.Background()
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := w.Write(ctx, id, bytes.NewReader(data)); err != nil {
					b.Fatalf("写入失败: %v", err)
				}
			}
		})
	}
}
