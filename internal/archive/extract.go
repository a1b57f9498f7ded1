// Package archive unpacks downloaded release archives and packs install
// directories for the cache.
package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrIllegalPath is returned for entries that would land outside the
// destination directory.
var ErrIllegalPath = errors.New("illegal file path")

// Kind identifies an archive format.
type Kind int

const (
	KindNone Kind = iota
	KindTarGz
	KindTarBz2
	KindZip
	KindGz  // .gz that may hold a tar stream or a single file
	KindBz2 // .bz2 that may hold a tar stream or a single file
)

// Detect returns the archive kind for a file name.
func Detect(name string) Kind {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return KindTarGz
	case strings.HasSuffix(lower, ".tar.bz2"), strings.HasSuffix(lower, ".tbz2"), strings.HasSuffix(lower, ".tbz"):
		return KindTarBz2
	case strings.HasSuffix(lower, ".zip"):
		return KindZip
	case strings.HasSuffix(lower, ".gz"):
		return KindGz
	case strings.HasSuffix(lower, ".bz2"):
		return KindBz2
	default:
		return KindNone
	}
}

// IsArchive reports whether name ends in .gz, .tgz, .bz2, .tbz or .zip.
func IsArchive(name string) bool {
	return Detect(name) != KindNone
}

// Extractor handles archive extraction
type Extractor struct{}

// NewExtractor creates a new extractor
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract unpacks archivePath into destDir, choosing the format from the
// file name.
func (e *Extractor) Extract(archivePath, destDir string) error {
	switch kind := Detect(archivePath); kind {
	case KindTarGz:
		return e.ExtractTarGz(archivePath, destDir)
	case KindTarBz2:
		return e.ExtractTarBz2(archivePath, destDir)
	case KindZip:
		return e.ExtractZip(archivePath, destDir)
	case KindGz:
		return e.extractCompressed(archivePath, destDir, gunzip, ".gz")
	case KindBz2:
		return e.extractCompressed(archivePath, destDir, bunzip2, ".bz2")
	default:
		return fmt.Errorf("unsupported archive format: %s", filepath.Base(archivePath))
	}
}

// ExtractTarGz extracts a .tar.gz archive to a destination directory
func (e *Extractor) ExtractTarGz(archivePath, destDir string) error {
	return e.extractTarFile(archivePath, destDir, gunzip)
}

// ExtractTarBz2 extracts a .tar.bz2 archive to a destination directory
func (e *Extractor) ExtractTarBz2(archivePath, destDir string) error {
	return e.extractTarFile(archivePath, destDir, bunzip2)
}

type decompressor func(io.Reader) (io.Reader, error)

func gunzip(r io.Reader) (io.Reader, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("create gzip reader: %w", err)
	}
	return zr, nil
}

func bunzip2(r io.Reader) (io.Reader, error) {
	return bzip2.NewReader(r), nil
}

func (e *Extractor) extractTarFile(archivePath, destDir string, decompress decompressor) error {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	r, err := decompress(archiveFile)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	return extractTar(tar.NewReader(r), destDir)
}

// extractCompressed handles a bare .gz or .bz2: a tar stream is unpacked,
// anything else is written as a single file named after the archive minus
// its suffix.
func (e *Extractor) extractCompressed(archivePath, destDir string, decompress decompressor, suffix string) error {
	isTar, err := probeTar(archivePath, decompress)
	if err != nil {
		return err
	}
	if isTar {
		return e.extractTarFile(archivePath, destDir, decompress)
	}

	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	r, err := decompress(archiveFile)
	if err != nil {
		return err
	}

	base := filepath.Base(archivePath)
	name := base[:len(base)-len(suffix)]
	if name == "" {
		return fmt.Errorf("cannot derive file name from %s", base)
	}

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}
	return writeFile(filepath.Join(destDir, name), r, 0755)
}

func probeTar(archivePath string, decompress decompressor) (bool, error) {
	archiveFile, err := os.Open(archivePath)
	if err != nil {
		return false, fmt.Errorf("open archive: %w", err)
	}
	defer archiveFile.Close()

	r, err := decompress(archiveFile)
	if err != nil {
		return false, err
	}
	_, err = tar.NewReader(r).Next()
	return err == nil, nil
}

func extractTar(tarReader *tar.Reader, destDir string) error {
	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tar header: %w", err)
		}

		target, err := safeJoin(destDir, header.Name)
		if err != nil {
			return err
		}
		if target == "" {
			continue // the archive root itself, e.g. "./"
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}

		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("create parent dir for %s: %w", target, err)
			}
			if err := writeFile(target, tarReader, header.FileInfo().Mode().Perm()); err != nil {
				return err
			}

		case tar.TypeSymlink:
			if err := makeSymlink(destDir, target, header.Linkname); err != nil {
				return err
			}

		case tar.TypeLink:
			source, err := safeJoin(destDir, header.Linkname)
			if err != nil || source == "" {
				return fmt.Errorf("%w: hard link %s -> %s", ErrIllegalPath, header.Name, header.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("create parent dir for %s: %w", target, err)
			}
			if err := os.Link(source, target); err != nil {
				return fmt.Errorf("create hard link %s: %w", target, err)
			}

		default:
			// Skip other types (char devices, block devices, etc.)
			continue
		}
	}
}

// ExtractZip extracts a .zip archive to a destination directory
func (e *Extractor) ExtractZip(archivePath, destDir string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open zip: %w", err)
	}
	defer zr.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	for _, f := range zr.File {
		target, err := safeJoin(destDir, f.Name)
		if err != nil {
			return err
		}
		if target == "" {
			continue
		}

		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}

		case mode&os.ModeSymlink != 0:
			linkname, err := readZipEntry(f)
			if err != nil {
				return err
			}
			if err := makeSymlink(destDir, target, linkname); err != nil {
				return err
			}

		default:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return fmt.Errorf("create parent dir for %s: %w", target, err)
			}
			perm := mode.Perm()
			if perm == 0 {
				perm = 0644
			}
			rc, err := f.Open()
			if err != nil {
				return fmt.Errorf("open zip entry %s: %w", f.Name, err)
			}
			err = writeFile(target, rc, perm)
			rc.Close()
			if err != nil {
				return err
			}
		}
	}

	return nil
}

func readZipEntry(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open zip entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, 4096))
	if err != nil {
		return "", fmt.Errorf("read zip entry %s: %w", f.Name, err)
	}
	return string(data), nil
}

// safeJoin joins name onto destDir and rejects results outside destDir.
// It returns "" for entries naming destDir itself.
func safeJoin(destDir, name string) (string, error) {
	root := filepath.Clean(destDir)
	target := filepath.Join(root, name)
	if target == root {
		return "", nil
	}
	if !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrIllegalPath, name)
	}
	return target, nil
}

// makeSymlink creates target -> linkname after checking that the link
// resolves inside destDir.
func makeSymlink(destDir, target, linkname string) error {
	if filepath.IsAbs(linkname) {
		return fmt.Errorf("%w: symlink %s -> %s", ErrIllegalPath, target, linkname)
	}
	root := filepath.Clean(destDir)
	resolved := filepath.Join(filepath.Dir(target), linkname)
	if resolved != root && !strings.HasPrefix(resolved, root+string(os.PathSeparator)) {
		return fmt.Errorf("%w: symlink %s -> %s", ErrIllegalPath, target, linkname)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("create parent dir for %s: %w", target, err)
	}
	if err := os.Symlink(linkname, target); err != nil {
		return fmt.Errorf("create symlink %s: %w", target, err)
	}
	return nil
}

func writeFile(path string, r io.Reader, perm os.FileMode) error {
	outFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("create file %s: %w", path, err)
	}

	if _, err := io.Copy(outFile, r); err != nil {
		outFile.Close()
		return fmt.Errorf("write file %s: %w", path, err)
	}

	if err := outFile.Close(); err != nil {
		return fmt.Errorf("close file %s: %w", path, err)
	}
	return nil
}
