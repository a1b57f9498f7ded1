package binary

import (
	"fmt"
	"strings"
	"time"

	"github.com/ZebulonRouseFrantzich/binstall/internal/platform"
)

// Request names a release binary to install.
type Request struct {
	Owner string
	Repo  string
	// Tag is a release tag; empty or "latest" selects the latest release.
	Tag string
	// Name is the binary name; defaults to Repo.
	Name string
}

// String returns owner/repo[@tag].
func (r Request) String() string {
	s := r.Owner + "/" + r.Repo
	if r.Tag != "" {
		s += "@" + r.Tag
	}
	return s
}

// BinaryName returns Name, or Repo when Name is empty.
func (r Request) BinaryName() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Repo
}

// Validate checks that the request names a repository and a usable binary.
func (r Request) Validate() error {
	if r.Owner == "" || r.Repo == "" {
		return fmt.Errorf("repo must be in owner/repo form, got %q", r.Owner+"/"+r.Repo)
	}
	for _, part := range []string{r.Owner, r.Repo, r.Name, r.Tag} {
		if strings.ContainsAny(part, `/\`) || part == ".." {
			return fmt.Errorf("invalid path element %q in %s", part, r)
		}
	}
	return nil
}

// Result describes a completed install.
type Result struct {
	Owner string
	Repo  string
	// Tag is the resolved tag, never "latest".
	Tag    string
	Target platform.Target
	// Dir is the install directory added to PATH.
	Dir string
	// BinaryPath is the installed executable.
	BinaryPath string
	// Asset is the downloaded release asset; empty on a cache hit.
	Asset    string
	CacheHit bool
	Duration time.Duration
}
