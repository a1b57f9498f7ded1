package binary

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ZebulonRouseFrantzich/binstall/internal/asset"
	"github.com/ZebulonRouseFrantzich/binstall/internal/cache"
	"github.com/ZebulonRouseFrantzich/binstall/internal/locate"
	"github.com/ZebulonRouseFrantzich/binstall/internal/platform"
	"github.com/ZebulonRouseFrantzich/binstall/internal/release"
)

var linuxX64 = platform.Target{OS: platform.OSLinux, Arch: platform.ArchX64}

// staticProvider serves one release and records the tags it was asked for.
type staticProvider struct {
	release *release.Release
	err     error
	tags    []string
}

func (p *staticProvider) Resolve(_ context.Context, owner, repo, tag string) (*release.Release, error) {
	p.tags = append(p.tags, tag)
	if p.err != nil {
		return nil, p.err
	}
	rel := *p.release
	rel.Owner, rel.Repo = owner, repo
	return &rel, nil
}

type recordingPath struct {
	dirs []string
}

func (p *recordingPath) AddPath(dir string) error {
	p.dirs = append(p.dirs, dir)
	return nil
}

// memoryStore is a cache.Store backed by DirStore under a temp dir that
// also counts calls.
type memoryStore struct {
	*cache.DirStore
	mu       sync.Mutex
	restores int
	saves    int
}

func (s *memoryStore) Restore(ctx context.Context, dir, key string) (bool, error) {
	s.mu.Lock()
	s.restores++
	s.mu.Unlock()
	return s.DirStore.Restore(ctx, dir, key)
}

func (s *memoryStore) Save(ctx context.Context, dir, key string) error {
	s.mu.Lock()
	s.saves++
	s.mu.Unlock()
	return s.DirStore.Save(ctx, dir, key)
}

// tarGz builds an in-memory tar.gz of files.
func tarGz(t *testing.T, files map[string][]byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	tarWriter := tar.NewWriter(gzipWriter)

	for name, content := range files {
		header := &tar.Header{
			Name: name,
			Mode: 0755,
			Size: int64(len(content)),
		}
		if err := tarWriter.WriteHeader(header); err != nil {
			t.Fatalf("failed to write header: %v", err)
		}
		if _, err := tarWriter.Write(content); err != nil {
			t.Fatalf("failed to write content: %v", err)
		}
	}

	if err := tarWriter.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gzipWriter.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// assetServer serves each payload under /<name> and counts requests.
func assetServer(t *testing.T, payloads map[string][]byte) (*httptest.Server, *int) {
	t.Helper()
	var mu sync.Mutex
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		data, ok := payloads[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func releaseFor(srv *httptest.Server, tag string, names ...string) *release.Release {
	rel := &release.Release{Tag: tag}
	for _, name := range names {
		rel.Assets = append(rel.Assets, release.Asset{Name: name, URL: srv.URL + "/" + name})
	}
	return rel
}

type managerFixture struct {
	manager   *Manager
	provider  *staticProvider
	path      *recordingPath
	store     *memoryStore
	toolCache string
}

func newFixture(t *testing.T, rel *release.Release, target platform.Target) *managerFixture {
	t.Helper()

	f := &managerFixture{
		provider:  &staticProvider{release: rel},
		path:      &recordingPath{},
		store:     &memoryStore{DirStore: cache.NewDirStore(t.TempDir())},
		toolCache: t.TempDir(),
	}

	m, err := NewManager(Config{
		ToolCache: f.toolCache,
		TempDir:   t.TempDir(),
		Target:    target,
		Provider:  f.provider,
		Fetcher:   NewDownloader(DownloaderConfig{Retries: -1}),
		Scanner:   locate.NewScanner(locate.Options{MinSize: -1}),
		Cache:     f.store,
		Path:      f.path,
		Now:       func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	f.manager = m
	return f
}

func TestNewManager(t *testing.T) {
	provider := &staticProvider{}
	fetcher := NewDownloader(DownloaderConfig{})

	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name:   "valid config",
			config: Config{Target: linuxX64, Provider: provider, Fetcher: fetcher},
		},
		{
			name:    "missing provider",
			config:  Config{Target: linuxX64, Fetcher: fetcher},
			wantErr: "Provider is required",
		},
		{
			name:    "missing fetcher",
			config:  Config{Target: linuxX64, Provider: provider},
			wantErr: "Fetcher is required",
		},
		{
			name:    "missing target",
			config:  Config{Provider: provider, Fetcher: fetcher},
			wantErr: "Target is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewManager(tt.config)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("NewManager() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewManager() error = %v", err)
			}
			if m.tempDir != os.TempDir() {
				t.Errorf("tempDir = %s, want %s", m.tempDir, os.TempDir())
			}
		})
	}
}

func TestManagerInstallDir(t *testing.T) {
	m, err := NewManager(Config{
		ToolCache: "/opt/hostedtoolcache",
		Target:    platform.Target{OS: platform.OSMacOS, Arch: platform.ArchARM64},
		Provider:  &staticProvider{},
		Fetcher:   NewDownloader(DownloaderConfig{}),
	})
	if err != nil {
		t.Fatal(err)
	}

	got := m.InstallDir("cli", "cli", "v2.40.0")
	want := filepath.Join("/opt/hostedtoolcache", "cli", "cli", "v2.40.0", "macos-arm64")
	if got != want {
		t.Errorf("InstallDir() = %s, want %s", got, want)
	}
}

func TestManagerInstall_Archive(t *testing.T) {
	archive := tarGz(t, map[string][]byte{
		"tool-1.0.0/tool":      []byte("\x7fELF tool binary"),
		"tool-1.0.0/README.md": []byte("# tool"),
	})
	srv, _ := assetServer(t, map[string][]byte{"tool-1.0.0-linux-amd64.tar.gz": archive})
	rel := releaseFor(srv, "v1.0.0",
		"tool-1.0.0-linux-amd64.tar.gz",
		"tool-1.0.0-darwin-arm64.tar.gz",
		"tool-1.0.0-windows-amd64.zip",
		"checksums.txt")
	f := newFixture(t, rel, linuxX64)

	result, err := f.manager.Install(context.Background(), Request{Owner: "acme", Repo: "tool"})
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	wantDir := filepath.Join(f.toolCache, "acme", "tool", "v1.0.0", "linux-x64")
	if result.Dir != wantDir {
		t.Errorf("Dir = %s, want %s", result.Dir, wantDir)
	}
	if result.Tag != "v1.0.0" || result.CacheHit || result.Asset != "tool-1.0.0-linux-amd64.tar.gz" {
		t.Errorf("Install() = %+v", result)
	}
	if len(f.provider.tags) != 1 || f.provider.tags[0] != "" {
		t.Errorf("provider asked for tags %v, want [\"\"]", f.provider.tags)
	}

	content, err := os.ReadFile(filepath.Join(wantDir, "tool"))
	if err != nil || string(content) != "\x7fELF tool binary" {
		t.Fatalf("installed binary = %q, %v", content, err)
	}
	if runtime.GOOS != "windows" {
		info, _ := os.Stat(result.BinaryPath)
		if info.Mode().Perm() != 0755 {
			t.Errorf("mode = %v, want 0755", info.Mode().Perm())
		}
	}

	receipt, err := ReadReceipt(wantDir)
	if err != nil {
		t.Fatalf("ReadReceipt() error = %v", err)
	}
	if receipt.Repo != "acme/tool" || receipt.Binary != "tool" || receipt.Target != "linux-x64" {
		t.Errorf("receipt = %+v", receipt)
	}

	if len(f.path.dirs) != 1 || f.path.dirs[0] != wantDir {
		t.Errorf("PATH additions = %v, want [%s]", f.path.dirs, wantDir)
	}
	if f.store.saves != 1 {
		t.Errorf("cache saves = %d, want 1", f.store.saves)
	}
}

func TestManagerInstall_BareBinary(t *testing.T) {
	srv, _ := assetServer(t, map[string][]byte{"jq-linux-amd64": []byte("\x7fELF jq")})
	rel := releaseFor(srv, "jq-1.7.1", "jq-linux-amd64", "jq-macos-arm64", "jq-windows-amd64.exe")
	f := newFixture(t, rel, linuxX64)

	result, err := f.manager.Install(context.Background(), Request{Owner: "jqlang", Repo: "jq", Tag: "jq-1.7.1"})
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	if filepath.Base(result.BinaryPath) != "jq" {
		t.Errorf("BinaryPath = %s, want .../jq", result.BinaryPath)
	}
	content, _ := os.ReadFile(result.BinaryPath)
	if string(content) != "\x7fELF jq" {
		t.Errorf("installed content = %q", content)
	}
}

func TestManagerInstall_WindowsAppendsExe(t *testing.T) {
	srv, _ := assetServer(t, map[string][]byte{"tool-windows-amd64.exe": []byte("MZ tool")})
	rel := releaseFor(srv, "v2", "tool-linux-amd64", "tool-windows-amd64.exe")
	f := newFixture(t, rel, platform.Target{OS: platform.OSWindows, Arch: platform.ArchX64})

	result, err := f.manager.Install(context.Background(), Request{Owner: "acme", Repo: "tool", Tag: "v2"})
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if filepath.Base(result.BinaryPath) != "tool.exe" {
		t.Errorf("BinaryPath = %s, want .../tool.exe", result.BinaryPath)
	}
}

func TestManagerInstall_CustomName(t *testing.T) {
	archive := tarGz(t, map[string][]byte{
		"ripgrep-14.1.1-x86_64-unknown-linux-musl/rg":           []byte("\x7fELF rg"),
		"ripgrep-14.1.1-x86_64-unknown-linux-musl/complete/_rg": []byte("#compdef rg and a much longer completion script body"),
	})
	srv, _ := assetServer(t, map[string][]byte{"ripgrep-14.1.1-x86_64-unknown-linux-musl.tar.gz": archive})
	rel := releaseFor(srv, "14.1.1",
		"ripgrep-14.1.1-x86_64-unknown-linux-musl.tar.gz",
		"ripgrep-14.1.1-x86_64-apple-darwin.tar.gz")
	f := newFixture(t, rel, linuxX64)

	result, err := f.manager.Install(context.Background(), Request{Owner: "BurntSushi", Repo: "ripgrep", Tag: "14.1.1", Name: "rg"})
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	content, _ := os.ReadFile(result.BinaryPath)
	if filepath.Base(result.BinaryPath) != "rg" || string(content) != "\x7fELF rg" {
		t.Errorf("installed %s = %q, want rg binary", result.BinaryPath, content)
	}
}

func TestManagerInstall_SecondRunIsHit(t *testing.T) {
	srv, hits := assetServer(t, map[string][]byte{"tool-linux-amd64": []byte("bin")})
	rel := releaseFor(srv, "v1", "tool-linux-amd64")
	f := newFixture(t, rel, linuxX64)
	ctx := context.Background()

	if _, err := f.manager.Install(ctx, Request{Owner: "acme", Repo: "tool", Tag: "v1"}); err != nil {
		t.Fatal(err)
	}
	result, err := f.manager.Install(ctx, Request{Owner: "acme", Repo: "tool", Tag: "v1"})
	if err != nil {
		t.Fatalf("second Install() error = %v", err)
	}

	if !result.CacheHit {
		t.Error("second install should be a hit")
	}
	if *hits != 1 {
		t.Errorf("asset downloaded %d times, want 1", *hits)
	}
	if len(f.path.dirs) != 2 {
		t.Errorf("PATH additions = %d, want 2", len(f.path.dirs))
	}
}

func TestManagerInstall_RestoresFromCache(t *testing.T) {
	srv, hits := assetServer(t, map[string][]byte{"tool-linux-amd64": []byte("bin")})
	rel := releaseFor(srv, "v1", "tool-linux-amd64")
	f := newFixture(t, rel, linuxX64)
	ctx := context.Background()

	first, err := f.manager.Install(ctx, Request{Owner: "acme", Repo: "tool", Tag: "v1"})
	if err != nil {
		t.Fatal(err)
	}

	// A fresh runner: install dir gone, cache still there.
	if err := os.RemoveAll(first.Dir); err != nil {
		t.Fatal(err)
	}

	result, err := f.manager.Install(ctx, Request{Owner: "acme", Repo: "tool", Tag: "v1"})
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if !result.CacheHit || result.Asset != "" {
		t.Errorf("Install() = %+v, want cache hit", result)
	}
	if *hits != 1 {
		t.Errorf("asset downloaded %d times, want 1", *hits)
	}
	content, err := os.ReadFile(result.BinaryPath)
	if err != nil || string(content) != "bin" {
		t.Errorf("restored binary = %q, %v", content, err)
	}
}

func TestManagerInstall_NoBinaryInArchive(t *testing.T) {
	archive := tarGz(t, map[string][]byte{
		"docs/README.md": []byte("readme"),
		"LICENSE":        []byte("mit"),
	})
	srv, _ := assetServer(t, map[string][]byte{"tool-linux-amd64.tar.gz": archive})
	rel := releaseFor(srv, "v1", "tool-linux-amd64.tar.gz")
	f := newFixture(t, rel, linuxX64)
	f.manager.scanner = locate.NewScanner(locate.Options{})

	_, err := f.manager.Install(context.Background(), Request{Owner: "acme", Repo: "tool", Tag: "v1"})
	if !errors.Is(err, locate.ErrNoBinaryFound) {
		t.Fatalf("Install() error = %v, want ErrNoBinaryFound", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "no binary found in ") || !strings.Contains(msg, "Files: LICENSE, docs/README.md") {
		t.Errorf("error message = %q", msg)
	}
	if len(f.path.dirs) != 0 {
		t.Error("failed install should not touch PATH")
	}
}

func TestManagerInstall_Errors(t *testing.T) {
	srv, _ := assetServer(t, map[string][]byte{})

	tests := []struct {
		name    string
		rel     *release.Release
		provErr error
		req     Request
		target  error
	}{
		{
			name:   "no matching asset",
			rel:    releaseFor(srv, "v1", "tool-darwin-arm64.tar.gz", "tool.deb"),
			req:    Request{Owner: "acme", Repo: "tool"},
			target: asset.ErrNoMatchingAsset,
		},
		{
			name:   "ambiguous asset",
			rel:    releaseFor(srv, "v1", "alpha-linux-amd64", "beta-linux-amd64", "gamma-linux-amd64"),
			req:    Request{Owner: "acme", Repo: "tool"},
			target: asset.ErrAmbiguousAsset,
		},
		{
			name:    "release not found",
			rel:     &release.Release{},
			provErr: release.ErrReleaseNotFound,
			req:     Request{Owner: "acme", Repo: "tool", Tag: "v404"},
			target:  release.ErrReleaseNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.rel, linuxX64)
			f.provider.err = tt.provErr

			_, err := f.manager.Install(context.Background(), tt.req)
			if !errors.Is(err, tt.target) {
				t.Errorf("Install() error = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestManagerInstall_DownloadFailure(t *testing.T) {
	srv, _ := assetServer(t, map[string][]byte{})
	rel := releaseFor(srv, "v1", "tool-linux-amd64")
	f := newFixture(t, rel, linuxX64)

	_, err := f.manager.Install(context.Background(), Request{Owner: "acme", Repo: "tool", Tag: "v1"})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("Install() error = %v, want 404 StatusError", err)
	}
	if _, ok := f.manager.Installed(f.manager.InstallDir("acme", "tool", "v1")); ok {
		t.Error("failed install must not leave a receipt")
	}
}

func TestManagerInstall_CleansWorkDir(t *testing.T) {
	srv, _ := assetServer(t, map[string][]byte{"tool-linux-amd64": []byte("bin")})
	rel := releaseFor(srv, "v1", "tool-linux-amd64")
	f := newFixture(t, rel, linuxX64)

	if _, err := f.manager.Install(context.Background(), Request{Owner: "acme", Repo: "tool", Tag: "v1"}); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(f.manager.tempDir, "binstall-tool")); !os.IsNotExist(err) {
		t.Error("work dir should be removed after install")
	}
}

func TestRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
		binary  string
		str     string
	}{
		{"repo default name", Request{Owner: "cli", Repo: "cli"}, false, "cli", "cli/cli"},
		{"custom name and tag", Request{Owner: "BurntSushi", Repo: "ripgrep", Tag: "14.1.1", Name: "rg"}, false, "rg", "BurntSushi/ripgrep@14.1.1"},
		{"missing owner", Request{Repo: "cli"}, true, "cli", "/cli"},
		{"missing repo", Request{Owner: "cli"}, true, "cli", "cli/"},
		{"traversal in name", Request{Owner: "a", Repo: "b", Name: "../evil"}, true, "../evil", "a/b"},
		{"dot dot tag", Request{Owner: "a", Repo: "b", Tag: ".."}, true, "b", "a/b@.."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.req.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := tt.req.BinaryName(); got != tt.binary {
				t.Errorf("BinaryName() = %s, want %s", got, tt.binary)
			}
			if got := tt.req.String(); got != tt.str {
				t.Errorf("String() = %s, want %s", got, tt.str)
			}
		})
	}
}
