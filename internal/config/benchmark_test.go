package config

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

func BenchmarkParser_ParseString_Small(b *testing.B) {
	luaCode := `
		binstall = {
			tools = {
				"sharkdp/fd@v10.2.0",
				"cli/cli@v2.40.0",
				{ repo = "BurntSushi/ripgrep", tag = "14.1.1", name = "rg" },
				"koalaman/shellcheck",
				"junegunn/fzf",
			},
		}
	`

	parser := NewParser(nil)
	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := parser.ParseString(context.Background(), luaCode); err != nil {
			b.Fatalf("Parse failed: %v", err)
		}
	}
}

func BenchmarkParser_ParseString_Large(b *testing.B) {
	var tools strings.Builder
	tools.WriteString("binstall = {\n  tools = {\n")
	for i := 0; i < MaxToolCount; i++ {
		fmt.Fprintf(&tools, "    \"owner/tool%d@v1.0.%d\",\n", i, i)
	}
	tools.WriteString("  },\n}")
	code := tools.String()

	parser := NewParser(nil)
	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := parser.ParseString(context.Background(), code); err != nil {
			b.Fatalf("Parse failed: %v", err)
		}
	}
}

func BenchmarkGenerator_Generate(b *testing.B) {
	manifest := &Manifest{}
	for i := 0; i < 100; i++ {
		manifest.Tools = append(manifest.Tools, ToolSpec{Repo: fmt.Sprintf("owner/tool%d", i), Tag: "v1.0.0"})
	}

	gen := NewGenerator()
	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := gen.Generate(manifest); err != nil {
			b.Fatalf("Generate failed: %v", err)
		}
	}
}
