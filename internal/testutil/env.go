// Package testutil provides utilities for testing binstall in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// Env holds the isolated locations SetupTestEnv points binstall at.
type Env struct {
	Root      string
	ToolCache string
	CacheDir  string
	PathFile  string
	Manifest  string
	TempDir   string
}

// isolatedVars are cleared so a runner's own settings never leak into tests.
var isolatedVars = []string{
	"BINSTALL_TOKEN",
	"BINSTALL_API_URL",
	"BINSTALL_TARGET",
	"BINSTALL_REPO",
	"BINSTALL_TAG",
	"BINSTALL_NAME",
	"BINSTALL_MIN_SIZE",
	"BINSTALL_SNIFF",
	"BINSTALL_SNIFF_BYTES",
	"BINSTALL_RETRIES",
	"BINSTALL_TIMEOUT",
	"BINSTALL_METADATA_TTL",
	"BINSTALL_NO_PROGRESS",
	"BINSTALL_VERBOSE",
	"GITHUB_TOKEN",
	"GITHUB_API_URL",
	"INPUT_TOKEN",
	"INPUT_REPO",
	"INPUT_TAG",
	"INPUT_NAME",
}

// SetupTestEnv creates isolated test directories for each test and points
// the tool cache, archive cache, manifest and GITHUB_PATH file at them.
// This ensures binstall tests never touch:
// - The runner's hosted tool cache
// - The user's cache directory
// - The PATH of later workflow steps
//
// The cleanup function is automatically handled by t.TempDir().
func SetupTestEnv(t *testing.T) *Env {
	t.Helper()

	tmpDir := t.TempDir()
	env := &Env{
		Root:      tmpDir,
		ToolCache: filepath.Join(tmpDir, "toolcache"),
		CacheDir:  filepath.Join(tmpDir, "cache"),
		PathFile:  filepath.Join(tmpDir, "github_path"),
		Manifest:  filepath.Join(tmpDir, "binstall.lua"),
		TempDir:   filepath.Join(tmpDir, "tmp"),
	}

	for _, name := range isolatedVars {
		t.Setenv(name, "")
	}

	t.Setenv("BINSTALL_TOOL_CACHE", env.ToolCache)
	t.Setenv("RUNNER_TOOL_CACHE", env.ToolCache)
	t.Setenv("BINSTALL_CACHE_DIR", env.CacheDir)
	t.Setenv("BINSTALL_MANIFEST", env.Manifest)
	t.Setenv("GITHUB_PATH", env.PathFile)
	t.Setenv("RUNNER_TEMP", env.TempDir)
	t.Setenv("PATH", os.Getenv("PATH"))

	for _, dir := range []string{env.ToolCache, env.CacheDir, env.TempDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}
	return env
}
