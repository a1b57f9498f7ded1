package locate

import (
	"cmp"
	"errors"
	"path/filepath"
	"slices"
	"strings"
)

// ErrNoBinaryFound is returned when there is no candidate to choose from.
var ErrNoBinaryFound = errors.New("no binary found")

// Locate picks the executable among candidates.
//
// A single candidate is returned as is, whatever its name. With several, the
// one whose base name equals binaryName wins; failing that, the largest file
// does. Equal sizes are ordered by path so the result never depends on input
// order.
func Locate(candidates []Candidate, binaryName string) (string, error) {
	switch len(candidates) {
	case 0:
		return "", ErrNoBinaryFound
	case 1:
		return candidates[0].Path, nil
	}

	sorted := slices.Clone(candidates)
	slices.SortFunc(sorted, func(a, b Candidate) int {
		if c := cmp.Compare(b.Size, a.Size); c != 0 {
			return c
		}
		return strings.Compare(a.Path, b.Path)
	})

	if binaryName != "" {
		for _, c := range sorted {
			if filepath.Base(c.Path) == binaryName {
				return c.Path, nil
			}
		}
	}

	return sorted[0].Path, nil
}
