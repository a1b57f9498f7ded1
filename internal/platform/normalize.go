package platform

import (
	"fmt"
	"strings"
)

// familyMap maps distribution names to their canonical family names.
var familyMap = map[string]string{
	"debian":   FamilyDebian,
	"ubuntu":   FamilyDebian, // gopsutil might return ubuntu as family
	"rhel":     FamilyRHEL,
	"centos":   FamilyRHEL,
	"rocky":    FamilyRHEL,
	"fedora":   FamilyFedora,
	"suse":     FamilySUSE,
	"opensuse": FamilySUSE,
	"arch":     FamilyArch,
	"manjaro":  FamilyArch,
	"alpine":   FamilyAlpine,
	"gentoo":   FamilyGentoo,
}

// NormalizeOS converts a GOOS value (or an already normalized name) to an OS.
func NormalizeOS(goos string) (OS, error) {
	switch strings.ToLower(strings.TrimSpace(goos)) {
	case "linux":
		return OSLinux, nil
	case "darwin", "macos":
		return OSMacOS, nil
	case "windows", "win32":
		return OSWindows, nil
	default:
		return "", fmt.Errorf("%w: operating system %q", ErrUnsupportedPlatform, goos)
	}
}

// NormalizeArch converts a GOARCH value (or a common vendor spelling) to an Arch.
func NormalizeArch(arch string) (Arch, error) {
	switch strings.ToLower(strings.TrimSpace(arch)) {
	case "amd64", "x86_64", "x64":
		return ArchX64, nil
	case "386", "i386", "i686", "x86", "ia32":
		return ArchIA32, nil
	case "arm64", "aarch64":
		return ArchARM64, nil
	default:
		return "", fmt.Errorf("%w: architecture %q", ErrUnsupportedPlatform, arch)
	}
}

// ParseTarget parses "<os>-<arch>" or "<os>/<arch>", e.g. "linux-x64" or
// "darwin/arm64".
func ParseTarget(s string) (Target, error) {
	sep := strings.IndexAny(s, "-/")
	if sep <= 0 || sep == len(s)-1 {
		return Target{}, fmt.Errorf("invalid target %q: expected <os>-<arch>", s)
	}

	os, err := NormalizeOS(s[:sep])
	if err != nil {
		return Target{}, err
	}
	arch, err := NormalizeArch(s[sep+1:])
	if err != nil {
		return Target{}, err
	}
	return Target{OS: os, Arch: arch}, nil
}

// normalizePlatform converts platform IDs to lowercase for consistency.
func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

// mapFamily maps distribution family strings to canonical family names.
func mapFamily(family string) string {
	normalized := strings.ToLower(strings.TrimSpace(family))
	if canonical, ok := familyMap[normalized]; ok {
		return canonical
	}
	return FamilyUnknown
}
