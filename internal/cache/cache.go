// Package cache persists installed tool directories between runs, keyed by
// repository, tag and target.
package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZebulonRouseFrantzich/binstall/internal/archive"
	"github.com/ZebulonRouseFrantzich/binstall/internal/logging"
	"github.com/ZebulonRouseFrantzich/binstall/internal/platform"
)

const (
	// KeyPrefix starts every cache key.
	KeyPrefix = "install-binary"
	// MaxKeyLength is the longest key a store accepts.
	MaxKeyLength = 512
)

// ErrReserved is returned by Save when an entry for the key already exists.
var ErrReserved = errors.New("cache entry already exists")

// ValidationError reports a key or directory a store cannot accept.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid cache %s %q: %s", e.Field, e.Value, e.Message)
}

// Is reports whether target is also a ValidationError.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// Key returns the cache key for an install.
func Key(owner, repo, tag string, target platform.Target) string {
	return strings.Join([]string{KeyPrefix, owner, repo, tag, target.String()}, "/")
}

// Store restores and saves install directories.
type Store interface {
	// Restore fills dir from the entry for key. A miss returns false, nil.
	Restore(ctx context.Context, dir, key string) (bool, error)
	// Save records dir under key.
	Save(ctx context.Context, dir, key string) error
}

// ValidateKey checks that key can name a cache entry.
func ValidateKey(key string) error {
	switch {
	case key == "":
		return &ValidationError{Field: "key", Value: key, Message: "must not be empty"}
	case len(key) > MaxKeyLength:
		return &ValidationError{Field: "key", Value: key[:32] + "...", Message: fmt.Sprintf("longer than %d characters", MaxKeyLength)}
	case strings.Contains(key, ","):
		return &ValidationError{Field: "key", Value: key, Message: "must not contain commas"}
	case strings.HasPrefix(key, "/"), strings.Contains(key, "\\"):
		return &ValidationError{Field: "key", Value: key, Message: "must be a relative slash-separated path"}
	}
	for _, part := range strings.Split(key, "/") {
		if part == "" || part == "." || part == ".." {
			return &ValidationError{Field: "key", Value: key, Message: "must not contain empty, . or .. segments"}
		}
	}
	return nil
}

// DirStore keeps one tar.gz per key under a root directory.
type DirStore struct {
	root      string
	extractor *archive.Extractor
}

// NewDirStore creates a store rooted at root.
func NewDirStore(root string) *DirStore {
	return &DirStore{
		root:      root,
		extractor: archive.NewExtractor(),
	}
}

func (s *DirStore) entryPath(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key)) + ".tar.gz"
}

// Restore implements Store.
func (s *DirStore) Restore(ctx context.Context, dir, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := ValidateKey(key); err != nil {
		return false, err
	}

	entry := s.entryPath(key)
	if _, err := os.Stat(entry); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat cache entry: %w", err)
	}

	if err := s.extractor.ExtractTarGz(entry, dir); err != nil {
		return false, fmt.Errorf("restore cache entry %s: %w", key, err)
	}
	return true, nil
}

// Save implements Store.
func (s *DirStore) Save(ctx context.Context, dir, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ValidateKey(key); err != nil {
		return err
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return &ValidationError{Field: "path", Value: dir, Message: "is not a directory"}
	}

	entry := s.entryPath(key)
	if _, err := os.Stat(entry); err == nil {
		return fmt.Errorf("%w: %s", ErrReserved, key)
	}

	if err := archive.PackTarGz(dir, entry); err != nil {
		return fmt.Errorf("save cache entry %s: %w", key, err)
	}
	return nil
}

// HandleSaveError applies the save failure policy: validation errors are
// returned, an existing entry is logged at info and anything else is
// logged as a warning.
func HandleSaveError(logger logging.Logger, key string, err error) error {
	if err == nil {
		return nil
	}
	logger = logging.OrNop(logger)

	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		return err
	case errors.Is(err, ErrReserved):
		logger.Info("cache entry already saved", "key", key)
	default:
		logger.Warn("failed to save cache", "key", key, "error", err)
	}
	return nil
}
