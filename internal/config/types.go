package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ZebulonRouseFrantzich/binstall/internal/asset"
)

// Manifest is the evaluated content of a binstall.lua file.
type Manifest struct {
	// Tools to install, in manifest order
	Tools []ToolSpec

	// Synonyms are extra OS and architecture spellings merged into the
	// built-in pattern table
	Synonyms asset.Synonyms
}

// ToolSpec names one release binary.
type ToolSpec struct {
	// Repo is "owner/repo"
	Repo string
	// Tag is a release tag; empty means latest
	Tag string
	// Name is the binary name when it differs from the repo name
	Name string
}

// Split returns the owner and repository halves of Repo.
func (t ToolSpec) Split() (owner, repo string) {
	owner, repo, _ = strings.Cut(t.Repo, "/")
	return owner, repo
}

// String returns "owner/repo" or "owner/repo@tag".
func (t ToolSpec) String() string {
	if t.Tag == "" {
		return t.Repo
	}
	return t.Repo + "@" + t.Tag
}

// ParseToolSpec parses "owner/repo" or "owner/repo@tag".
func ParseToolSpec(s string) (ToolSpec, error) {
	s = strings.TrimSpace(s)
	repo, tag, _ := strings.Cut(s, "@")
	spec := ToolSpec{Repo: repo, Tag: tag}
	if err := spec.Validate(); err != nil {
		return ToolSpec{}, err
	}
	return spec, nil
}

var (
	repoPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)
	tagPattern  = regexp.MustCompile(`^[A-Za-z0-9_.+-]+$`)
	namePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
)

// Validate checks the repo, tag and name formats.
func (t ToolSpec) Validate() error {
	if t.Repo == "" {
		return &ValidationError{Field: "repo", Message: "repo cannot be empty"}
	}
	for field, value := range map[string]string{"repo": t.Repo, "tag": t.Tag, "name": t.Name} {
		if len(value) > MaxStringLength {
			return &ValidationError{
				Field:   field,
				Message: fmt.Sprintf("too long (%d chars, max %d)", len(value), MaxStringLength),
			}
		}
	}
	if !repoPattern.MatchString(t.Repo) || hasDotSegment(t.Repo) {
		return &ValidationError{Field: "repo", Message: fmt.Sprintf("invalid repo %q (expected: owner/repo)", t.Repo)}
	}
	if t.Tag != "" && !tagPattern.MatchString(t.Tag) {
		return &ValidationError{Field: "tag", Message: fmt.Sprintf("invalid tag %q", t.Tag)}
	}
	if t.Name != "" && (!namePattern.MatchString(t.Name) || t.Name == "." || t.Name == "..") {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("invalid binary name %q", t.Name)}
	}
	return nil
}

func hasDotSegment(repo string) bool {
	for _, part := range strings.Split(repo, "/") {
		if part == "." || part == ".." {
			return true
		}
	}
	return false
}

// Validate performs basic validation on a Manifest.
func (m *Manifest) Validate() error {
	if len(m.Tools) > MaxToolCount {
		return &ValidationError{
			Field:   "tools",
			Message: fmt.Sprintf("too many tools (%d), maximum is %d", len(m.Tools), MaxToolCount),
		}
	}

	seen := make(map[ToolSpec]bool, len(m.Tools))
	for i, tool := range m.Tools {
		if err := tool.Validate(); err != nil {
			return prefixField(fmt.Sprintf("tools[%d]", i), err)
		}
		if seen[tool] {
			return &ValidationError{Field: fmt.Sprintf("tools[%d]", i), Message: fmt.Sprintf("duplicate tool %s", tool)}
		}
		seen[tool] = true
	}

	if _, err := m.PatternTable(); err != nil {
		return &ValidationError{Field: "synonyms", Message: err.Error()}
	}
	return nil
}

// PatternTable returns the built-in pattern table extended with the
// manifest's synonyms.
func (m *Manifest) PatternTable() (*asset.PatternTable, error) {
	if !hasSynonyms(m) {
		return asset.DefaultPatternTable(), nil
	}
	return asset.DefaultPatternTable().With(m.Synonyms)
}

// Add inserts tool, replacing an entry for the same repo and binary name.
// It reports whether an entry was replaced.
func (m *Manifest) Add(tool ToolSpec) (bool, error) {
	if err := tool.Validate(); err != nil {
		return false, err
	}
	for i, existing := range m.Tools {
		if strings.EqualFold(existing.Repo, tool.Repo) && existing.Name == tool.Name {
			m.Tools[i] = tool
			return true, nil
		}
	}
	if len(m.Tools) >= MaxToolCount {
		return false, &ValidationError{
			Field:   "tools",
			Message: fmt.Sprintf("too many tools, maximum is %d", MaxToolCount),
		}
	}
	m.Tools = append(m.Tools, tool)
	return false, nil
}

// ValidationError reports an invalid manifest entry or setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return "invalid " + e.Field + ": " + e.Message
	}
	return "invalid manifest: " + e.Message
}
