package shell

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v4/process"
)

// parentExe returns the executable of the parent process. Tests replace it.
var parentExe = func() (string, error) {
	p, err := process.NewProcess(int32(os.Getppid()))
	if err != nil {
		return "", err
	}
	if exe, err := p.Exe(); err == nil && exe != "" {
		return exe, nil
	}
	return p.Name()
}

// DetectShell finds the user's shell from $SHELL, then from the parent
// process. An unsupported $SHELL falls through to the parent process.
func DetectShell() (*Detection, error) {
	if path := os.Getenv(EnvShell); path != "" {
		if shell, err := ParseShell(path); err == nil {
			return &Detection{Shell: shell, Source: EnvShell, Path: path}, nil
		}
	}

	path, err := parentExe()
	if err == nil && path != "" {
		if shell, err := ParseShell(path); err == nil {
			return &Detection{Shell: shell, Source: "parent process", Path: path}, nil
		}
	}

	return nil, fmt.Errorf("%w (SHELL=%q, parent=%q); name one explicitly", ErrShellNotDetected, os.Getenv(EnvShell), path)
}
