package platform

import (
	"errors"
	"testing"
)

func TestNormalizeOS(t *testing.T) {
	tests := []struct {
		input   string
		want    OS
		wantErr bool
	}{
		{"linux", OSLinux, false},
		{"darwin", OSMacOS, false},
		{"macos", OSMacOS, false},
		{"windows", OSWindows, false},
		{"win32", OSWindows, false},
		{"Linux", OSLinux, false},
		{"freebsd", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeOS(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("NormalizeOS() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err != nil && !errors.Is(err, ErrUnsupportedPlatform) {
				t.Errorf("NormalizeOS() error = %v, want ErrUnsupportedPlatform", err)
			}
			if got != tt.want {
				t.Errorf("NormalizeOS() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeArch(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Arch
		wantErr bool
	}{
		{"amd64", "amd64", ArchX64, false},
		{"x86_64", "x86_64", ArchX64, false},
		{"x64", "x64", ArchX64, false},
		{"386", "386", ArchIA32, false},
		{"i686", "i686", ArchIA32, false},
		{"ia32", "ia32", ArchIA32, false},
		{"arm64", "arm64", ArchARM64, false},
		{"aarch64", "aarch64", ArchARM64, false},
		{"arm unsupported", "arm", "", true},
		{"riscv64 unsupported", "riscv64", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeArch(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("NormalizeArch() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("NormalizeArch() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseTarget(t *testing.T) {
	tests := []struct {
		input   string
		want    Target
		wantErr bool
	}{
		{"linux-x64", Target{OSLinux, ArchX64}, false},
		{"darwin/arm64", Target{OSMacOS, ArchARM64}, false},
		{"windows-ia32", Target{OSWindows, ArchIA32}, false},
		{"macos-amd64", Target{OSMacOS, ArchX64}, false},
		{"linux", Target{}, true},
		{"linux-", Target{}, true},
		{"-x64", Target{}, true},
		{"plan9-x64", Target{}, true},
		{"linux-mips", Target{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTarget(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseTarget() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseTarget() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizePlatform(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"ubuntu", "ubuntu", "ubuntu"},
		{"Ubuntu uppercase", "Ubuntu", "ubuntu"},
		{"with spaces", "  ubuntu  ", "ubuntu"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizePlatform(tt.input); got != tt.want {
				t.Errorf("normalizePlatform() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMapFamily(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"debian", FamilyDebian},
		{"ubuntu", FamilyDebian},
		{"centos", FamilyRHEL},
		{"alpine", FamilyAlpine},
		{"Arch", FamilyArch},
		{"slackware", FamilyUnknown},
		{"", FamilyUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := mapFamily(tt.input); got != tt.want {
				t.Errorf("mapFamily(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
