// Package platform describes the execution target a binary is installed for.
//
// A Target is the normalized (OS, architecture) pair used by asset matching,
// install directory layout and cache keys. Detection uses the Go runtime for
// OS and architecture and gopsutil for Linux distribution details, which are
// exposed to the Lua manifest as a read-only table.
package platform

import (
	"context"
	"errors"
	"strings"
)

// ErrUnsupportedPlatform is returned when an OS or architecture has no
// normalized form.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// OS is a normalized operating system name.
type OS string

const (
	OSLinux   OS = "linux"
	OSMacOS   OS = "macos"
	OSWindows OS = "windows"
)

// Arch is a normalized CPU architecture name.
type Arch string

const (
	ArchX64   Arch = "x64"
	ArchIA32  Arch = "ia32"
	ArchARM64 Arch = "arm64"
)

// Linux distribution family constants.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux
	FamilyGentoo  = "gentoo"  // Gentoo
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// Target is the (OS, architecture) pair an installed binary must run on.
type Target struct {
	OS   OS
	Arch Arch
}

// String returns the "<os>-<arch>" form used in install paths and cache keys.
func (t Target) String() string {
	return string(t.OS) + "-" + string(t.Arch)
}

// IsWindows reports whether the target OS is Windows.
func (t Target) IsWindows() bool {
	return t.OS == OSWindows
}

// ExecutableName returns name with the platform executable suffix applied.
func (t Target) ExecutableName(name string) string {
	if t.IsWindows() && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		return name + ".exe"
	}
	return name
}

// Info contains platform detection information.
type Info struct {
	Target   Target
	GOOS     string // runtime.GOOS
	GOARCH   string // runtime.GOARCH
	Platform string // distro ID (Linux only, e.g., "ubuntu", "alpine")
	Family   string // canonical family (e.g., "debian", "alpine")
	Version  string // distro version (Linux only, e.g., "22.04")
}

// Distro contains Linux distribution information.
type Distro struct {
	ID      string
	Family  string
	Version string
}

// GetDistro returns distro information if this is a Linux platform.
// Returns nil for non-Linux platforms or if distro detection failed.
func (i *Info) GetDistro() *Distro {
	if i.Target.OS != OSLinux || i.Platform == "" {
		return nil
	}
	return &Distro{
		ID:      i.Platform,
		Family:  i.Family,
		Version: i.Version,
	}
}

// IsLinux returns true if the platform is Linux.
func (i *Info) IsLinux() bool {
	return i.Target.OS == OSLinux
}

// IsMacOS returns true if the platform is macOS.
func (i *Info) IsMacOS() bool {
	return i.Target.OS == OSMacOS
}

// IsWindows returns true if the platform is Windows.
func (i *Info) IsWindows() bool {
	return i.Target.OS == OSWindows
}

// IsMusl returns true on distributions whose libc is musl.
func (i *Info) IsMusl() bool {
	return i.IsLinux() && i.Family == FamilyAlpine
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}

// StaticDetector returns a fixed Info. It is used when the target is
// overridden on the command line.
type StaticDetector struct {
	Info *Info
}

// Detect returns the configured info.
func (d StaticDetector) Detect(ctx context.Context) (*Info, error) {
	return d.Info, nil
}
