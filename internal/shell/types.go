package shell

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// ShellType names a shell binstall can render PATH lines for.
type ShellType string

const (
	ShellBash ShellType = "bash"
	ShellZsh  ShellType = "zsh"
	ShellFish ShellType = "fish"
)

var supportedShells = []ShellType{ShellBash, ShellZsh, ShellFish}

// SupportedShells returns the shells PathCommand understands.
func SupportedShells() []ShellType {
	return slices.Clone(supportedShells)
}

func (s ShellType) String() string {
	return string(s)
}

// IsValid reports whether s is a supported shell.
func (s ShellType) IsValid() bool {
	return slices.Contains(supportedShells, s)
}

// ParseShell accepts a shell name or the path of a shell binary, including
// login shells ("-bash") and Windows builds ("bash.exe").
func ParseShell(name string) (ShellType, error) {
	shell := ShellType(shellName(name))
	if err := ValidateShell(shell); err != nil {
		return "", &UnsupportedShellError{Shell: name}
	}
	return shell, nil
}

func shellName(path string) string {
	base := strings.ToLower(filepath.Base(path))
	base = strings.TrimPrefix(base, "-")
	return strings.TrimSuffix(base, ".exe")
}

// ValidateShell returns an *UnsupportedShellError unless shell is supported.
func ValidateShell(shell ShellType) error {
	if !shell.IsValid() {
		return &UnsupportedShellError{Shell: shell.String()}
	}
	return nil
}

// ErrShellNotDetected is returned when neither $SHELL nor the parent
// process names a supported shell.
var ErrShellNotDetected = errors.New("could not detect a supported shell")

// Detection records which shell DetectShell found and where.
type Detection struct {
	Shell ShellType
	// Source is "SHELL" or "parent process".
	Source string
	// Path is the shell binary as reported by the source.
	Path string
}

// UnsupportedShellError reports a shell PathCommand cannot render for.
type UnsupportedShellError struct {
	Shell string
}

func (e *UnsupportedShellError) Error() string {
	names := make([]string, len(supportedShells))
	for i, s := range supportedShells {
		names[i] = string(s)
	}
	return fmt.Sprintf("unsupported shell %q (supported: %s)", e.Shell, strings.Join(names, ", "))
}

// PathFileError reports a failure to update the GITHUB_PATH file.
type PathFileError struct {
	Path    string
	Message string
	Cause   error
}

func (e *PathFileError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %v", e.Message, e.Path, e.Cause)
	}
	return e.Message + " " + e.Path
}

func (e *PathFileError) Unwrap() error {
	return e.Cause
}
