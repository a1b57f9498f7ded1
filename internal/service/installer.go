package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ZebulonRouseFrantzich/binstall/internal/binary"
	"github.com/ZebulonRouseFrantzich/binstall/internal/config"
	"github.com/ZebulonRouseFrantzich/binstall/internal/logging"
)

// Installer installs a list of tools one after another.
type Installer struct {
	manager BinaryManager
	logger  logging.Logger
	now     func() time.Time
}

// NewInstaller creates an installer. now times the run; nil means time.Now.
func NewInstaller(manager BinaryManager, logger logging.Logger, now func() time.Time) *Installer {
	if now == nil {
		now = time.Now
	}
	return &Installer{
		manager: manager,
		logger:  logging.OrNop(logger),
		now:     now,
	}
}

// InstallRequest contains the tools to install, in order.
type InstallRequest struct {
	Tools []config.ToolSpec
}

// InstallResult contains one result per installed tool.
type InstallResult struct {
	Results  []*binary.Result
	Duration time.Duration
}

// Execute installs every tool and stops at the first failure. Tools
// installed before the failure are still reported in the result.
func (s *Installer) Execute(ctx context.Context, req InstallRequest) (*InstallResult, error) {
	if len(req.Tools) == 0 {
		return nil, ErrNoTools
	}

	start := s.now()
	result := &InstallResult{Results: make([]*binary.Result, 0, len(req.Tools))}

	for _, tool := range req.Tools {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		owner, repo := tool.Split()
		s.logger.Info("installing", "tool", tool.String())

		res, err := s.manager.Install(ctx, binary.Request{
			Owner: owner,
			Repo:  repo,
			Tag:   tool.Tag,
			Name:  tool.Name,
		})
		if err != nil {
			s.logger.Error("install failed", "tool", tool.String(), "error", err)
			result.Duration = s.now().Sub(start)
			return result, fmt.Errorf("install %s: %w", tool, err)
		}

		s.logger.Info("installed", "tool", tool.String(), "tag", res.Tag, "path", res.BinaryPath, "cache_hit", res.CacheHit)
		result.Results = append(result.Results, res)
	}

	result.Duration = s.now().Sub(start)
	return result, nil
}
