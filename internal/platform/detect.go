package platform

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// RealDetector implements Detector using actual platform detection.
type RealDetector struct {
	goos   string
	goarch string
}

// NewDetector creates a new platform detector for the running process.
func NewDetector() Detector {
	return &RealDetector{goos: runtime.GOOS, goarch: runtime.GOARCH}
}

// Detect performs platform detection and returns platform information.
//
// On Linux, if gopsutil fails to detect the distribution, the distro fields
// stay empty and detection still succeeds.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	os, err := NormalizeOS(d.goos)
	if err != nil {
		return nil, fmt.Errorf("platform detection failed: %w", err)
	}
	arch, err := NormalizeArch(d.goarch)
	if err != nil {
		return nil, fmt.Errorf("platform detection failed: %w", err)
	}

	info := &Info{
		Target: Target{OS: os, Arch: arch},
		GOOS:   d.goos,
		GOARCH: d.goarch,
	}

	if os != OSLinux {
		return info, nil
	}

	platform, family, version, err := host.PlatformInformationWithContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
		return info, nil
	}

	platform = normalizePlatform(platform)
	if platform != "" {
		info.Platform = platform
		info.Family = mapFamily(family)
		info.Version = normalizePlatform(version)
		// gopsutil reports alpine's family as "alpine" but some builds leave it empty
		if info.Family == FamilyUnknown && platform == "alpine" {
			info.Family = FamilyAlpine
		}
	}

	return info, nil
}
