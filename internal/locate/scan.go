// Package locate finds the executable inside an unpacked release archive.
//
// A Scanner walks an extraction directory and yields the files that look like
// a real binary rather than bundled noise (licenses, READMEs, completion
// scripts). Locate then picks one of those candidates.
package locate

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ZebulonRouseFrantzich/binstall/internal/logging"
)

const (
	// DefaultMinSize is the size a file must exceed to be considered a binary.
	DefaultMinSize = 500 * 1024
	// DefaultSniffBytes is how much of a file is read when sniffing content.
	DefaultSniffBytes = 8000
)

// Candidate is a file that passed the scanner's predicate.
type Candidate struct {
	Path string
	Size int64
}

// Options configures the scanner predicate.
type Options struct {
	// MinSize is exclusive: a file must be strictly larger. Zero means DefaultMinSize;
	// a negative value disables the size check.
	MinSize int64
	// Sniff enables content inspection of the first SniffBytes bytes.
	Sniff bool
	// SniffBytes is the prefix length inspected when Sniff is set.
	// Zero means DefaultSniffBytes.
	SniffBytes int
	Logger     logging.Logger
}

// Scanner walks directory trees looking for binary candidates.
// It keeps no state between walks and may be shared across goroutines.
type Scanner struct {
	minSize    int64
	sniff      bool
	sniffBytes int
	logger     logging.Logger
}

// NewScanner creates a scanner from opts.
func NewScanner(opts Options) *Scanner {
	s := &Scanner{
		minSize:    opts.MinSize,
		sniff:      opts.Sniff,
		sniffBytes: opts.SniffBytes,
		logger:     logging.OrNop(opts.Logger),
	}
	if s.minSize == 0 {
		s.minSize = DefaultMinSize
	}
	if s.sniffBytes <= 0 {
		s.sniffBytes = DefaultSniffBytes
	}
	return s
}

// Scan returns every candidate under root, sorted by path.
func (s *Scanner) Scan(root string) ([]Candidate, error) {
	var out []Candidate
	for c, err := range s.All(root) {
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Candidate) int {
		return strings.Compare(a.Path, b.Path)
	})
	return out, nil
}

// All lazily yields candidates under root. Each call starts a fresh walk.
//
// Directories are processed from an explicit stack and recorded by canonical
// path, so a symlink that points back up the tree is visited once and the
// walk always terminates. A regular file reachable through several links is
// yielded once, under the first path that reached it. The walk stops at the
// first error, which is yielded with a zero Candidate.
func (s *Scanner) All(root string) iter.Seq2[Candidate, error] {
	return func(yield func(Candidate, error) bool) {
		canonicalRoot, err := filepath.EvalSymlinks(root)
		if err != nil {
			yield(Candidate{}, fmt.Errorf("resolve scan root: %w", err))
			return
		}

		visitedDirs := map[string]bool{canonicalRoot: true}
		seenFiles := make(map[string]bool)
		stack := []string{root}

		for len(stack) > 0 {
			dir := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			entries, err := os.ReadDir(dir)
			if err != nil {
				yield(Candidate{}, fmt.Errorf("read directory %s: %w", dir, err))
				return
			}

			var subdirs []string
			for _, entry := range entries {
				path := filepath.Join(dir, entry.Name())

				// Stat follows symlinks; dangling links are skipped.
				info, err := os.Stat(path)
				if err != nil {
					if errors.Is(err, os.ErrNotExist) {
						s.logger.Debug("skipping dangling symlink", "path", path)
						continue
					}
					yield(Candidate{}, fmt.Errorf("stat %s: %w", path, err))
					return
				}

				if !info.IsDir() && !info.Mode().IsRegular() {
					continue
				}

				canonical, err := filepath.EvalSymlinks(path)
				if err != nil {
					yield(Candidate{}, fmt.Errorf("resolve %s: %w", path, err))
					return
				}

				if info.IsDir() {
					if visitedDirs[canonical] {
						s.logger.Debug("skipping visited directory", "path", path, "target", canonical)
						continue
					}
					visitedDirs[canonical] = true
					subdirs = append(subdirs, path)
					continue
				}

				if seenFiles[canonical] {
					continue
				}
				seenFiles[canonical] = true

				ok, err := s.accept(path, info.Size())
				if err != nil {
					yield(Candidate{}, err)
					return
				}
				if !ok {
					continue
				}
				if !yield(Candidate{Path: path, Size: info.Size()}, nil) {
					return
				}
			}

			// Push in reverse so directories pop in lexical order.
			for i := len(subdirs) - 1; i >= 0; i-- {
				stack = append(stack, subdirs[i])
			}
		}
	}
}

// accept applies the size threshold and, if enabled, content sniffing.
func (s *Scanner) accept(path string, size int64) (bool, error) {
	if s.minSize >= 0 && size <= s.minSize {
		return false, nil
	}
	if !s.sniff {
		return true, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	binary, err := LooksBinary(f, s.sniffBytes)
	if err != nil {
		return false, fmt.Errorf("sniff %s: %w", path, err)
	}
	if !binary {
		s.logger.Debug("skipping text file", "path", path, "size", size)
	}
	return binary, nil
}

// LooksBinary reads up to n bytes from r and reports whether they look like
// an executable: a known ELF, PE or Mach-O header, or any NUL byte.
func LooksBinary(r io.Reader, n int) (bool, error) {
	if n <= 0 {
		n = DefaultSniffBytes
	}
	buf := make([]byte, n)
	read, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return false, err
	}
	buf = buf[:read]

	if Format(buf) != FormatUnknown {
		return true, nil
	}
	return slices.Contains(buf, 0), nil
}
