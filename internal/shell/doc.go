// Package shell exposes installed binaries on PATH.
//
// This package handles:
//   - Prepending install directories to the process PATH
//   - Recording them in the GITHUB_PATH file so later workflow steps see them
//   - Detecting the user's shell (bash, zsh, fish)
//   - Rendering PATH lines for `binstall env`
//
// # GitHub Actions
//
// The runner creates a fresh file for every step and names it in
// GITHUB_PATH. Each line appended to it is prepended to PATH for the steps
// that follow. Outside a runner the variable is unset and only the current
// process is affected.
//
// # Shell Detection
//
// DetectShell tries, in order:
//  1. The $SHELL environment variable
//  2. The parent process executable, read with gopsutil
//
// # Example Usage
//
//	exporter := shell.NewPathExporter()
//	if err := exporter.AddPath("/opt/hostedtoolcache/cli/cli/v2.40.0/linux-x64"); err != nil {
//	    return err
//	}
//
//	line, err := shell.PathCommand(shell.ShellBash, dirs)
//	// export PATH="/opt/.../linux-x64:$PATH"
package shell
