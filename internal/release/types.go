// Package release resolves GitHub releases to their downloadable assets.
package release

import (
	"context"
	"errors"
)

// ErrReleaseNotFound is returned when the repository or tag has no release.
var ErrReleaseNotFound = errors.New("release not found")

// LatestTag selects the most recent non-prerelease.
const LatestTag = "latest"

// Asset is a single downloadable file attached to a release.
type Asset struct {
	ID          int64
	Name        string
	URL         string // browser download URL
	Size        int64
	ContentType string
}

// Release is the subset of release metadata the installer needs.
type Release struct {
	Owner  string
	Repo   string
	Tag    string
	Assets []Asset
}

// AssetNames returns asset names in release order.
func (r *Release) AssetNames() []string {
	names := make([]string, len(r.Assets))
	for i, a := range r.Assets {
		names[i] = a.Name
	}
	return names
}

// Asset returns the asset with the given name.
func (r *Release) Asset(name string) (Asset, bool) {
	for _, a := range r.Assets {
		if a.Name == name {
			return a, true
		}
	}
	return Asset{}, false
}

// Provider resolves a release by tag. An empty tag or LatestTag means the
// latest release.
type Provider interface {
	Resolve(ctx context.Context, owner, repo, tag string) (*Release, error)
}

// IsLatest reports whether tag asks for the latest release.
func IsLatest(tag string) bool {
	return tag == "" || tag == LatestTag
}
