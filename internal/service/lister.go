package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/ZebulonRouseFrantzich/binstall/internal/binary"
)

// InstalledTool is one install directory and its receipt.
type InstalledTool struct {
	Dir     string
	Receipt binary.Receipt
}

// Lister reads install receipts under a tool cache root.
type Lister struct {
	toolCache string
}

// NewLister creates a lister for toolCache.
func NewLister(toolCache string) *Lister {
	return &Lister{toolCache: toolCache}
}

// List returns every installed tool sorted by repo, tag and target. A
// missing tool cache yields an empty list.
func (l *Lister) List(ctx context.Context) ([]InstalledTool, error) {
	var tools []InstalledTool

	err := filepath.WalkDir(l.toolCache, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == l.toolCache && errors.Is(err, fs.ErrNotExist) {
				return fs.SkipAll
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || d.Name() != binary.ReceiptFile {
			return nil
		}

		dir := filepath.Dir(path)
		receipt, err := binary.ReadReceipt(dir)
		if err != nil {
			// Half-written installs have no usable receipt
			return nil
		}
		if _, err := os.Stat(filepath.Join(dir, receipt.Binary)); err != nil {
			return nil
		}
		tools = append(tools, InstalledTool{Dir: dir, Receipt: *receipt})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan tool cache: %w", err)
	}

	SortTools(tools)
	return tools, nil
}

// SortTools orders tools by repo, then tag, then target. Semver tags sort
// by version ahead of other tags, which sort lexically.
func SortTools(tools []InstalledTool) {
	sort.SliceStable(tools, func(i, j int) bool {
		a, b := tools[i].Receipt, tools[j].Receipt
		if ra, rb := strings.ToLower(a.Repo), strings.ToLower(b.Repo); ra != rb {
			return ra < rb
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if c := compareTags(a.Tag, b.Tag); c != 0 {
			return c < 0
		}
		return a.Target < b.Target
	})
}

func compareTags(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	switch {
	case errA == nil && errB == nil:
		return va.Compare(vb)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// Newest keeps, for each repo and binary name, the install with the highest
// tag for target. The input must already be sorted with SortTools.
func Newest(tools []InstalledTool, target string) []InstalledTool {
	var out []InstalledTool
	index := make(map[string]int)
	for _, tool := range tools {
		if tool.Receipt.Target != target {
			continue
		}
		key := strings.ToLower(tool.Receipt.Repo) + "\x00" + tool.Receipt.Name
		if i, ok := index[key]; ok {
			out[i] = tool
			continue
		}
		index[key] = len(out)
		out = append(out, tool)
	}
	return out
}
