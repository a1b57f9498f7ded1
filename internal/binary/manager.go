package binary

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZebulonRouseFrantzich/binstall/internal/archive"
	"github.com/ZebulonRouseFrantzich/binstall/internal/asset"
	"github.com/ZebulonRouseFrantzich/binstall/internal/cache"
	"github.com/ZebulonRouseFrantzich/binstall/internal/locate"
	"github.com/ZebulonRouseFrantzich/binstall/internal/logging"
	"github.com/ZebulonRouseFrantzich/binstall/internal/platform"
	"github.com/ZebulonRouseFrantzich/binstall/internal/release"
	"github.com/ZebulonRouseFrantzich/binstall/internal/transaction"
)

// Fetcher downloads a URL to a file.
type Fetcher interface {
	DownloadToFile(ctx context.Context, url, destPath string) error
}

// PathAdder makes a directory visible on PATH.
type PathAdder interface {
	AddPath(dir string) error
}

// Manager orchestrates release resolution, download, extraction and
// installation of a single binary.
type Manager struct {
	toolCache string
	tempDir   string
	target    platform.Target
	provider  release.Provider
	fetcher   Fetcher
	matcher   *asset.Matcher
	scanner   *locate.Scanner
	extractor *archive.Extractor
	cache     cache.Store
	path      PathAdder
	logger    logging.Logger
	now       func() time.Time
}

// Config holds configuration for the binary manager
type Config struct {
	// ToolCache is the root of all install directories. Empty installs
	// relative to the working directory.
	ToolCache string
	// TempDir holds downloads and extractions; defaults to os.TempDir().
	TempDir  string
	Target   platform.Target
	Provider release.Provider
	Fetcher  Fetcher
	// Matcher defaults to the built-in pattern table.
	Matcher *asset.Matcher
	// Scanner defaults to a scanner with default options.
	Scanner *locate.Scanner
	// Cache is optional; nil disables restore and save.
	Cache cache.Store
	// Path is optional; nil leaves PATH alone.
	Path   PathAdder
	Logger logging.Logger
	Now    func() time.Time
}

// NewManager creates a new binary manager
func NewManager(config Config) (*Manager, error) {
	if config.Provider == nil {
		return nil, fmt.Errorf("Provider is required")
	}
	if config.Fetcher == nil {
		return nil, fmt.Errorf("Fetcher is required")
	}
	if config.Target == (platform.Target{}) {
		return nil, fmt.Errorf("Target is required")
	}

	logger := logging.OrNop(config.Logger)
	if config.ToolCache == "" {
		logger.Warn("tool cache directory is not set, installing relative to the working directory")
	}

	m := &Manager{
		toolCache: config.ToolCache,
		tempDir:   config.TempDir,
		target:    config.Target,
		provider:  config.Provider,
		fetcher:   config.Fetcher,
		matcher:   config.Matcher,
		scanner:   config.Scanner,
		extractor: archive.NewExtractor(),
		cache:     config.Cache,
		path:      config.Path,
		logger:    logger,
		now:       config.Now,
	}
	if m.tempDir == "" {
		m.tempDir = os.TempDir()
	}
	if m.matcher == nil {
		m.matcher = asset.NewMatcher(nil)
	}
	if m.scanner == nil {
		m.scanner = locate.NewScanner(locate.Options{Logger: logger})
	}
	if m.now == nil {
		m.now = time.Now
	}
	return m, nil
}

// Target returns the platform binaries are installed for.
func (m *Manager) Target() platform.Target {
	return m.target
}

// ToolCache returns the install root.
func (m *Manager) ToolCache() string {
	return m.toolCache
}

// InstallDir returns <toolCache>/<owner>/<repo>/<tag>/<os>-<arch>.
func (m *Manager) InstallDir(owner, repo, tag string) string {
	return filepath.Join(m.toolCache, owner, repo, tag, m.target.String())
}

// Installed returns the receipt for an install directory whose binary is
// still present.
func (m *Manager) Installed(dir string) (*Receipt, bool) {
	receipt, err := ReadReceipt(dir)
	if err != nil {
		return nil, false
	}
	if !fileExists(filepath.Join(dir, receipt.Binary)) {
		return nil, false
	}
	return receipt, true
}

// Install resolves, downloads and installs the binary for req, then adds
// its directory to PATH. A cached or already installed copy short-circuits
// the download.
func (m *Manager) Install(ctx context.Context, req Request) (*Result, error) {
	start := m.now()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	rel, err := m.provider.Resolve(ctx, req.Owner, req.Repo, req.Tag)
	if err != nil {
		return nil, fmt.Errorf("resolve release: %w", err)
	}

	binName := req.BinaryName()
	installDir := m.InstallDir(req.Owner, req.Repo, rel.Tag)
	result := &Result{
		Owner:  req.Owner,
		Repo:   req.Repo,
		Tag:    rel.Tag,
		Target: m.target,
		Dir:    installDir,
	}

	lock, err := transaction.WaitLock(ctx, filepath.Dir(installDir), filepath.Base(installDir), 0)
	if err != nil {
		return nil, fmt.Errorf("lock install dir: %w", err)
	}
	defer lock.Release()

	key := cache.Key(req.Owner, req.Repo, rel.Tag, m.target)
	if hit, binaryPath := m.reuse(ctx, installDir, key, binName); hit {
		result.CacheHit = true
		result.BinaryPath = binaryPath
		if err := m.addPath(installDir); err != nil {
			return nil, err
		}
		result.Duration = m.now().Sub(start)
		return result, nil
	}

	assetName, err := m.matcher.Select(rel.AssetNames(), binName, m.target)
	if err != nil {
		return nil, fmt.Errorf("select asset for %s: %w", req, err)
	}
	a, _ := rel.Asset(assetName)
	result.Asset = assetName
	m.logger.Info("selected asset", "repo", req.Owner+"/"+req.Repo, "tag", rel.Tag, "asset", assetName)

	workDir := filepath.Join(m.tempDir, "binstall-"+binName)
	if err := os.RemoveAll(workDir); err != nil {
		return nil, fmt.Errorf("clean work dir: %w", err)
	}
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	downloadPath := filepath.Join(workDir, assetName)
	if err := m.fetcher.DownloadToFile(ctx, a.URL, downloadPath); err != nil {
		return nil, fmt.Errorf("download %s: %w", assetName, err)
	}

	sourcePath, err := m.findBinary(downloadPath, filepath.Join(workDir, "extract"), binName)
	if err != nil {
		return nil, err
	}

	destName := m.target.ExecutableName(binName)
	result.BinaryPath = filepath.Join(installDir, destName)
	if err := installFile(sourcePath, result.BinaryPath, !m.target.IsWindows()); err != nil {
		return nil, fmt.Errorf("install %s: %w", destName, err)
	}

	receipt := &Receipt{
		Repo:        req.Owner + "/" + req.Repo,
		Tag:         rel.Tag,
		Name:        binName,
		Binary:      destName,
		Asset:       assetName,
		Target:      m.target.String(),
		InstalledAt: m.now().UTC(),
	}
	if err := WriteReceipt(installDir, receipt); err != nil {
		return nil, err
	}

	if m.cache != nil {
		if err := cache.HandleSaveError(m.logger, key, m.cache.Save(ctx, installDir, key)); err != nil {
			return nil, fmt.Errorf("save cache: %w", err)
		}
	}

	if err := m.addPath(installDir); err != nil {
		return nil, err
	}

	result.Duration = m.now().Sub(start)
	m.logger.Info("installed binary", "path", result.BinaryPath, "duration", result.Duration)
	return result, nil
}

// reuse reports whether installDir already holds the binary, either from
// an earlier install or restored from the cache.
func (m *Manager) reuse(ctx context.Context, installDir, key, binName string) (bool, string) {
	if receipt, ok := m.Installed(installDir); ok {
		m.logger.Debug("binary already installed", "dir", installDir)
		return true, filepath.Join(installDir, receipt.Binary)
	}
	if m.cache == nil {
		return false, ""
	}

	hit, err := m.cache.Restore(ctx, installDir, key)
	if err != nil {
		m.logger.Warn("failed to restore cache", "key", key, "error", err)
		return false, ""
	}
	if !hit {
		m.logger.Debug("cache miss", "key", key)
		return false, ""
	}

	m.logger.Info("restored from cache", "key", key)
	if receipt, ok := m.Installed(installDir); ok {
		return true, filepath.Join(installDir, receipt.Binary)
	}
	return true, filepath.Join(installDir, m.target.ExecutableName(binName))
}

// findBinary returns the file to install: the download itself, or the
// binary located inside it when it is an archive.
func (m *Manager) findBinary(downloadPath, extractDir, binName string) (string, error) {
	if !archive.IsArchive(downloadPath) {
		return downloadPath, nil
	}

	if err := m.extractor.Extract(downloadPath, extractDir); err != nil {
		return "", fmt.Errorf("extract %s: %w", filepath.Base(downloadPath), err)
	}

	candidates, err := m.scanner.Scan(extractDir)
	if err != nil {
		return "", fmt.Errorf("scan %s: %w", extractDir, err)
	}

	path, err := locate.Locate(candidates, m.target.ExecutableName(binName))
	if errors.Is(err, locate.ErrNoBinaryFound) {
		return "", fmt.Errorf("%w in %s. Files: %s", err, extractDir, strings.Join(listFiles(extractDir), ", "))
	}
	if err != nil {
		return "", err
	}
	m.logger.Debug("located binary", "path", path, "candidates", len(candidates))
	return path, nil
}

func (m *Manager) addPath(dir string) error {
	if m.path == nil {
		return nil
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve install dir: %w", err)
	}
	if err := m.path.AddPath(abs); err != nil {
		return fmt.Errorf("add %s to PATH: %w", abs, err)
	}
	return nil
}
