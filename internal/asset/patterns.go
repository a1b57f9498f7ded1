// Package asset selects the release asset built for a target platform.
//
// Vendors spell operating systems and architectures in many ways
// ("x86_64-unknown-linux-musl", "tool_Linux_amd64", "tool-darwin-arm64").
// A PatternTable lists those spellings per OS and architecture; a Matcher
// combines them pairwise into candidate tokens, filters an asset list with a
// boundary-aware tokenizer, and resolves multiple survivors with a fixed set
// of tie-breaks. Matching is pure: the same inputs always give the same
// answer.
package asset

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/ZebulonRouseFrantzich/binstall/internal/platform"
)

// Every target a PatternTable must cover.
var (
	supportedOS   = []platform.OS{platform.OSLinux, platform.OSMacOS, platform.OSWindows}
	supportedArch = []platform.Arch{platform.ArchX64, platform.ArchIA32, platform.ArchARM64}
)

// separators join an OS spelling and an architecture spelling into a token.
var separators = []string{"-", "_", "", "."}

// Synonyms is the raw input for a PatternTable.
type Synonyms struct {
	OS   map[platform.OS][]string
	Arch map[platform.Arch][]string
	// Fallback lists the relaxed architecture spellings tried only when no
	// asset matches. An empty string stands for the OS spelling alone.
	Fallback map[platform.Arch][]string
}

// DefaultSynonyms returns a fresh copy of the built-in spellings.
func DefaultSynonyms() Synonyms {
	return Synonyms{
		OS: map[platform.OS][]string{
			platform.OSLinux:   {"linux", "linux-musl", "unknown-linux"},
			platform.OSWindows: {"windows", "pc-windows"},
			platform.OSMacOS:   {"darwin", "apple-darwin", "macos"},
		},
		Arch: map[platform.Arch][]string{
			platform.ArchX64:   {"x86_64", "x64", "amd64"},
			platform.ArchIA32:  {"i686", "x32", "amd32"},
			platform.ArchARM64: {"aarch64", "arm64"},
		},
		Fallback: map[platform.Arch][]string{
			platform.ArchX64:  {"64", ""},
			platform.ArchIA32: {"32"},
		},
	}
}

// PatternTable holds the precomputed candidate tokens for every supported
// target. It is immutable once built and safe for concurrent use.
type PatternTable struct {
	synonyms Synonyms
	primary  map[platform.Target][]string
	relaxed  map[platform.Target][]string
}

// NewPatternTable validates s and precomputes the token sets.
// Every supported OS and architecture needs at least one spelling, every
// spelling must start and end with a letter or digit, and no spelling may
// appear as both an OS and an architecture.
func NewPatternTable(s Synonyms) (*PatternTable, error) {
	clean := Synonyms{
		OS:       make(map[platform.OS][]string, len(supportedOS)),
		Arch:     make(map[platform.Arch][]string, len(supportedArch)),
		Fallback: make(map[platform.Arch][]string),
	}

	osSeen := make(map[string]platform.OS)
	for _, os := range supportedOS {
		words, err := normalizeWords(s.OS[os], false)
		if err != nil {
			return nil, fmt.Errorf("os %s: %w", os, err)
		}
		if len(words) == 0 {
			return nil, fmt.Errorf("os %s: at least one spelling is required", os)
		}
		for _, w := range words {
			osSeen[w] = os
		}
		clean.OS[os] = words
	}

	for _, arch := range supportedArch {
		words, err := normalizeWords(s.Arch[arch], false)
		if err != nil {
			return nil, fmt.Errorf("arch %s: %w", arch, err)
		}
		if len(words) == 0 {
			return nil, fmt.Errorf("arch %s: at least one spelling is required", arch)
		}
		for _, w := range words {
			if os, ok := osSeen[w]; ok {
				return nil, fmt.Errorf("arch %s: spelling %q is also used for os %s", arch, w, os)
			}
		}
		clean.Arch[arch] = words

		fallback, err := normalizeWords(s.Fallback[arch], true)
		if err != nil {
			return nil, fmt.Errorf("fallback %s: %w", arch, err)
		}
		if len(fallback) > 0 {
			clean.Fallback[arch] = fallback
		}
	}

	t := &PatternTable{
		synonyms: clean,
		primary:  make(map[platform.Target][]string),
		relaxed:  make(map[platform.Target][]string),
	}
	for _, os := range supportedOS {
		for _, arch := range supportedArch {
			target := platform.Target{OS: os, Arch: arch}
			t.primary[target] = combine(clean.OS[os], clean.Arch[arch])
			if fb := clean.Fallback[arch]; len(fb) > 0 {
				t.relaxed[target] = combine(clean.OS[os], fb)
			}
		}
	}

	return t, nil
}

var defaultTable = mustPatternTable(DefaultSynonyms())

// DefaultPatternTable returns the shared table built from DefaultSynonyms.
func DefaultPatternTable() *PatternTable {
	return defaultTable
}

func mustPatternTable(s Synonyms) *PatternTable {
	t, err := NewPatternTable(s)
	if err != nil {
		panic(err)
	}
	return t
}

// With returns a new table whose spellings are the union of t's and extra's.
func (t *PatternTable) With(extra Synonyms) (*PatternTable, error) {
	merged := t.Synonyms()
	for os, words := range extra.OS {
		merged.OS[os] = append(merged.OS[os], words...)
	}
	for arch, words := range extra.Arch {
		merged.Arch[arch] = append(merged.Arch[arch], words...)
	}
	for arch, words := range extra.Fallback {
		merged.Fallback[arch] = append(merged.Fallback[arch], words...)
	}
	return NewPatternTable(merged)
}

// Synonyms returns a deep copy of the spellings the table was built from.
func (t *PatternTable) Synonyms() Synonyms {
	out := Synonyms{
		OS:       make(map[platform.OS][]string, len(t.synonyms.OS)),
		Arch:     make(map[platform.Arch][]string, len(t.synonyms.Arch)),
		Fallback: make(map[platform.Arch][]string, len(t.synonyms.Fallback)),
	}
	for k, v := range t.synonyms.OS {
		out.OS[k] = slices.Clone(v)
	}
	for k, v := range t.synonyms.Arch {
		out.Arch[k] = slices.Clone(v)
	}
	for k, v := range t.synonyms.Fallback {
		out.Fallback[k] = slices.Clone(v)
	}
	return out
}

// Supports reports whether target is covered by the table.
func (t *PatternTable) Supports(target platform.Target) bool {
	_, ok := t.primary[target]
	return ok
}

// Tokens returns the candidate tokens for target, or nil if unsupported.
func (t *PatternTable) Tokens(target platform.Target) []string {
	return slices.Clone(t.primary[target])
}

// FallbackTokens returns the relaxed tokens for target, if any.
func (t *PatternTable) FallbackTokens(target platform.Target) []string {
	return slices.Clone(t.relaxed[target])
}

// Targets returns every supported target in a stable order.
func (t *PatternTable) Targets() []platform.Target {
	targets := slices.Collect(maps.Keys(t.primary))
	slices.SortFunc(targets, func(a, b platform.Target) int {
		return strings.Compare(a.String(), b.String())
	})
	return targets
}

// combine joins every os spelling with every arch spelling, using each
// separator in both orders. An empty arch spelling yields the os spelling.
func combine(osWords, archWords []string) []string {
	seen := make(map[string]bool)
	var tokens []string
	add := func(tok string) {
		if !seen[tok] {
			seen[tok] = true
			tokens = append(tokens, tok)
		}
	}

	for _, o := range osWords {
		for _, a := range archWords {
			if a == "" {
				add(o)
				continue
			}
			for _, sep := range separators {
				add(o + sep + a)
				add(a + sep + o)
			}
		}
	}
	return tokens
}

// normalizeWords lowercases, trims and dedupes words, keeping order.
func normalizeWords(words []string, allowEmpty bool) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			if !allowEmpty {
				continue
			}
		} else if !isAlnum(w[0]) || !isAlnum(w[len(w)-1]) {
			return nil, fmt.Errorf("spelling %q must start and end with a letter or digit", w)
		}
		if seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out, nil
}
