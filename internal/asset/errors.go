package asset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ZebulonRouseFrantzich/binstall/internal/platform"
)

var (
	// ErrNoMatchingAsset is returned when no asset survives matching.
	ErrNoMatchingAsset = errors.New("no matching asset")
	// ErrAmbiguousAsset is returned when more than one asset survives every tie-break.
	ErrAmbiguousAsset = errors.New("ambiguous asset")
)

// NoMatchError lists the assets that were considered for a target.
type NoMatchError struct {
	Target platform.Target
	Assets []string
}

func (e *NoMatchError) Error() string {
	if len(e.Assets) == 0 {
		return fmt.Sprintf("no matching asset for %s: release has no assets", e.Target)
	}
	return fmt.Sprintf("no matching asset for %s in [%s]", e.Target, strings.Join(e.Assets, ", "))
}

// Is makes errors.Is(err, ErrNoMatchingAsset) succeed.
func (e *NoMatchError) Is(target error) bool {
	return target == ErrNoMatchingAsset
}

// AmbiguousError lists the candidates left after every tie-break.
type AmbiguousError struct {
	Target     platform.Target
	Candidates []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous asset for %s: %d candidates remain [%s]",
		e.Target, len(e.Candidates), strings.Join(e.Candidates, ", "))
}

// Is makes errors.Is(err, ErrAmbiguousAsset) succeed.
func (e *AmbiguousError) Is(target error) bool {
	return target == ErrAmbiguousAsset
}
