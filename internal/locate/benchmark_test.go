package locate

import (
	"fmt"
	"path/filepath"
	"testing"
)

func BenchmarkScan(b *testing.B) {
	root := b.TempDir()
	for d := 0; d < 10; d++ {
		for f := 0; f < 20; f++ {
			path := filepath.Join(root, fmt.Sprintf("dir%d", d), fmt.Sprintf("file%d", f))
			writeFileB(b, path, 1024*(f+1))
		}
	}

	scanner := NewScanner(Options{MinSize: 10 * 1024, Sniff: true})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := scanner.Scan(root); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLocate(b *testing.B) {
	var candidates []Candidate
	for i := 0; i < 100; i++ {
		candidates = append(candidates, Candidate{Path: fmt.Sprintf("/x/f%03d", i), Size: int64(i % 7)})
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Locate(candidates, "f050")
	}
}
