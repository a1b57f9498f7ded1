package asset

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ZebulonRouseFrantzich/binstall/internal/platform"
)

// Matcher picks release assets using an explicit PatternTable.
type Matcher struct {
	table *PatternTable
}

// NewMatcher returns a Matcher backed by table, or by DefaultPatternTable
// when table is nil.
func NewMatcher(table *PatternTable) *Matcher {
	if table == nil {
		table = DefaultPatternTable()
	}
	return &Matcher{table: table}
}

// Table returns the pattern table the matcher uses.
func (m *Matcher) Table() *PatternTable {
	return m.table
}

// Select returns the single asset in assetNames built for target.
//
// binaryName is the executable the caller expects; it is used only to break
// ties between several platform matches. Errors are
// platform.ErrUnsupportedPlatform, *NoMatchError or *AmbiguousError.
func (m *Matcher) Select(assetNames []string, binaryName string, target platform.Target) (string, error) {
	matches, err := m.Match(assetNames, target)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", &NoMatchError{Target: target, Assets: slices.Clone(assetNames)}
	}
	return m.Resolve(matches, binaryName, target)
}

// Match returns every asset whose name carries a platform token for target,
// in input order. The relaxed fallback tokens are tried only when nothing
// matches the primary tokens.
func (m *Matcher) Match(assetNames []string, target platform.Target) ([]string, error) {
	if !m.table.Supports(target) {
		return nil, fmt.Errorf("%w: %s/%s", platform.ErrUnsupportedPlatform, target.OS, target.Arch)
	}

	matches := filterNames(assetNames, m.table.primary[target], nil)
	if len(matches) > 0 {
		return matches, nil
	}

	relaxed := m.table.relaxed[target]
	if len(relaxed) == 0 {
		return nil, nil
	}
	return filterNames(assetNames, relaxed, m.otherArchTokens(target)), nil
}

// Resolve reduces a set of platform matches to one asset.
//
// With several matches it prefers names containing binaryName, then, with
// exactly two left (in lexical order), musl over gnu and .zip over a
// tarball on Windows (the tarball elsewhere).
func (m *Matcher) Resolve(matches []string, binaryName string, target platform.Target) (string, error) {
	switch len(matches) {
	case 0:
		return "", &NoMatchError{Target: target}
	case 1:
		return matches[0], nil
	}

	working := matches
	if binaryName != "" {
		lowerBin := strings.ToLower(binaryName)
		var named []string
		for _, name := range matches {
			if strings.Contains(strings.ToLower(name), lowerBin) {
				named = append(named, name)
			}
		}
		switch {
		case len(named) == 1:
			return named[0], nil
		case len(named) > 1:
			working = named
		}
	}

	sorted := slices.Clone(working)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	if len(sorted) == 1 {
		return sorted[0], nil
	}

	if len(sorted) == 2 {
		if pick, ok := tieBreak(sorted[0], sorted[1], target); ok {
			return pick, nil
		}
	}

	return "", &AmbiguousError{Target: target, Candidates: sorted}
}

// otherArchTokens returns the primary tokens of every other architecture on
// the same OS. Relaxed matches carrying one of them belong to that
// architecture and are dropped.
func (m *Matcher) otherArchTokens(target platform.Target) []string {
	var tokens []string
	for _, arch := range supportedArch {
		if arch == target.Arch {
			continue
		}
		tokens = append(tokens, m.table.primary[platform.Target{OS: target.OS, Arch: arch}]...)
	}
	return tokens
}

func filterNames(names, tokens, reject []string) []string {
	var out []string
	for _, name := range names {
		lower := strings.ToLower(name)
		if isPackage(lower) {
			continue
		}
		if !matchName(lower, tokens) {
			continue
		}
		if len(reject) > 0 && matchName(lower, reject) {
			continue
		}
		out = append(out, name)
	}
	return out
}

var (
	gnuMarkers  = []string{"linux-gnu", "linux_gnu"}
	muslMarkers = []string{"linux-musl", "linux_musl"}
)

// tieBreak decides between exactly two sorted candidates.
func tieBreak(a, b string, target platform.Target) (string, bool) {
	la, lb := strings.ToLower(a), strings.ToLower(b)

	switch {
	case containsAny(la, gnuMarkers) && containsAny(lb, muslMarkers):
		return b, true
	case containsAny(la, muslMarkers) && containsAny(lb, gnuMarkers):
		return a, true
	}

	switch {
	case isTarball(la) && strings.HasSuffix(lb, ".zip"):
		if target.IsWindows() {
			return b, true
		}
		return a, true
	case strings.HasSuffix(la, ".zip") && isTarball(lb):
		if target.IsWindows() {
			return a, true
		}
		return b, true
	}

	return "", false
}

func isTarball(lower string) bool {
	return strings.HasSuffix(lower, ".tar.gz") || strings.HasSuffix(lower, ".tgz")
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
