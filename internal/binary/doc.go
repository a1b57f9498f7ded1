// Package binary installs a single executable from a GitHub release.
//
// # Install flow
//
// Manager.Install walks a fixed sequence:
//  1. Resolve the release; "latest" becomes a concrete tag
//  2. Lock <toolCache>/<owner>/<repo>/<tag>/<os>-<arch>
//  3. Reuse an existing install or restore one from the cache
//  4. Select the asset for the target with an asset.Matcher
//  5. Download it to a per-binary temp directory
//  6. For archives, extract and locate the executable inside
//  7. Copy it into the install directory (".exe" and no chmod on Windows)
//  8. Write a .binstall.yaml receipt, save the cache and add the dir to PATH
//
// # Usage
//
//	mgr, err := binary.NewManager(binary.Config{
//	    ToolCache: os.Getenv("RUNNER_TOOL_CACHE"),
//	    Target:    info.Target,
//	    Provider:  provider,
//	    Fetcher:   binary.NewDownloader(binary.DownloaderConfig{Token: token}),
//	    Path:      shell.NewPathExporter(),
//	})
//	if err != nil {
//	    return err
//	}
//
//	result, err := mgr.Install(ctx, binary.Request{Owner: "cli", Repo: "cli", Name: "gh"})
//
// # Architecture
//
// The package is organized into several components:
//   - Manager: orchestration of the steps above
//   - Downloader: HTTP download with retry logic and progress output
//   - Receipt: the record of what an install directory holds
package binary
