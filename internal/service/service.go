// Package service provides the operations behind binstall's commands.
package service

import (
	"context"
	"errors"

	"github.com/ZebulonRouseFrantzich/binstall/internal/binary"
	"github.com/ZebulonRouseFrantzich/binstall/internal/config"
)

// ErrNoTools is returned when there is nothing to install.
var ErrNoTools = errors.New("no tools to install")

// BinaryManager installs a single release binary.
type BinaryManager interface {
	Install(ctx context.Context, req binary.Request) (*binary.Result, error)
}

// ManifestParser reads a manifest file.
type ManifestParser interface {
	ParseFile(ctx context.Context, path string) (*config.Manifest, error)
}

// ManifestWriter writes a manifest file.
type ManifestWriter interface {
	WriteFile(path string, manifest *config.Manifest) error
}
