package shell

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathExporter makes install directories visible to the current process
// and, on an Actions runner, to later workflow steps.
type PathExporter struct {
	getenv func(string) string
	setenv func(string, string) error
}

// NewPathExporter returns an exporter working on the process environment.
func NewPathExporter() *PathExporter {
	return &PathExporter{getenv: os.Getenv, setenv: os.Setenv}
}

// AddPath moves dir to the front of PATH. When GITHUB_PATH is set the dir
// is also appended to that file.
func (e *PathExporter) AddPath(dir string) error {
	if dir == "" {
		return fmt.Errorf("directory is required")
	}

	if err := e.setenv(EnvPath, prependPath(e.getenv(EnvPath), dir)); err != nil {
		return fmt.Errorf("set %s: %w", EnvPath, err)
	}

	if pathFile := e.getenv(EnvGitHubPath); pathFile != "" {
		if err := AppendPathFile(pathFile, dir); err != nil {
			return err
		}
	}
	return nil
}

// prependPath returns list with dir first and any other copy of it removed.
func prependPath(list, dir string) string {
	parts := []string{dir}
	for _, p := range filepath.SplitList(list) {
		if p != "" && p != dir {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, string(os.PathListSeparator))
}

// AppendPathFile adds dir as a line of the runner's path file. A dir that is
// already listed is not added twice.
func AppendPathFile(pathFile, dir string) error {
	existing, err := os.ReadFile(pathFile)
	if err != nil && !os.IsNotExist(err) {
		return &PathFileError{Path: pathFile, Message: "read", Cause: err}
	}

	for _, line := range strings.Split(string(existing), "\n") {
		if strings.TrimSpace(line) == dir {
			return nil
		}
	}

	f, err := os.OpenFile(pathFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return &PathFileError{Path: pathFile, Message: "open", Cause: err}
	}
	defer f.Close()

	var buf bytes.Buffer
	if len(existing) > 0 && !bytes.HasSuffix(existing, []byte("\n")) {
		buf.WriteByte('\n')
	}
	buf.WriteString(dir)
	buf.WriteByte('\n')

	if _, err := f.Write(buf.Bytes()); err != nil {
		return &PathFileError{Path: pathFile, Message: "append to", Cause: err}
	}
	if err := f.Close(); err != nil {
		return &PathFileError{Path: pathFile, Message: "close", Cause: err}
	}
	return nil
}
