package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZebulonRouseFrantzich/binstall/internal/config"
	"github.com/ZebulonRouseFrantzich/binstall/internal/logging"
	"github.com/ZebulonRouseFrantzich/binstall/internal/transaction"
)

// ManifestService reads and updates the tool manifest.
type ManifestService struct {
	parser ManifestParser
	writer ManifestWriter
	path   string
	logger logging.Logger
}

// NewManifestService creates a manifest service for the file at path.
func NewManifestService(parser ManifestParser, writer ManifestWriter, path string, logger logging.Logger) *ManifestService {
	return &ManifestService{
		parser: parser,
		writer: writer,
		path:   path,
		logger: logging.OrNop(logger),
	}
}

// Path returns the manifest location.
func (s *ManifestService) Path() string {
	return s.path
}

// Tools returns the tools listed in the manifest.
func (s *ManifestService) Tools(ctx context.Context) ([]config.ToolSpec, error) {
	manifest, err := s.parser.ParseFile(ctx, s.path)
	if err != nil {
		return nil, err
	}
	return manifest.Tools, nil
}

// Load parses the manifest. A missing file yields an empty manifest.
func (s *ManifestService) Load(ctx context.Context) (*config.Manifest, error) {
	manifest, err := s.parser.ParseFile(ctx, s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &config.Manifest{}, nil
	}
	if err != nil {
		return nil, err
	}
	return manifest, nil
}

// AddResult reports what Add changed.
type AddResult struct {
	Tool     config.ToolSpec
	Replaced bool
	Created  bool
}

// Add records tool in the manifest, replacing an entry for the same repo
// and binary name. The file is rewritten from its evaluated form.
func (s *ManifestService) Add(ctx context.Context, tool config.ToolSpec) (*AddResult, error) {
	if err := tool.Validate(); err != nil {
		return nil, err
	}

	lock, err := transaction.AcquireLock(ctx, filepath.Dir(s.path), filepath.Base(s.path))
	if err != nil {
		return nil, fmt.Errorf("lock manifest: %w", err)
	}
	defer func() { _ = lock.Release() }()

	_, statErr := os.Stat(s.path)
	created := errors.Is(statErr, os.ErrNotExist)

	manifest, err := s.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}

	replaced, err := manifest.Add(tool)
	if err != nil {
		return nil, err
	}

	if err := s.writer.WriteFile(s.path, manifest); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	s.logger.Info("updated manifest", "path", s.path, "tool", tool.String(), "replaced", replaced)
	return &AddResult{Tool: tool, Replaced: replaced, Created: created}, nil
}
