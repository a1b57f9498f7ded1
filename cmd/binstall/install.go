package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ZebulonRouseFrantzich/binstall/internal/asset"
	"github.com/ZebulonRouseFrantzich/binstall/internal/binary"
	"github.com/ZebulonRouseFrantzich/binstall/internal/cache"
	"github.com/ZebulonRouseFrantzich/binstall/internal/config"
	"github.com/ZebulonRouseFrantzich/binstall/internal/platform"
	"github.com/ZebulonRouseFrantzich/binstall/internal/release"
	"github.com/ZebulonRouseFrantzich/binstall/internal/service"
	"github.com/ZebulonRouseFrantzich/binstall/internal/shell"
	"github.com/spf13/cobra"
)

func (a *app) installCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install [owner/repo[@tag]...]",
		Short: "Install release binaries and add them to PATH",
		Long: `Install one binary per repository. Without arguments the tools come
from the repo/tag/name action inputs, or else from the manifest.

Examples:
  binstall install cli/cli --name gh
  binstall install sharkdp/fd@v10.2.0 BurntSushi/ripgrep@14.1.1
  binstall install`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			tools, err := a.installTools(cmd, args)
			if err != nil {
				return err
			}

			matcher, manifest, err := a.matcher(ctx)
			if err != nil {
				return err
			}
			if len(tools) == 0 {
				tools = manifest.Tools
			}
			if len(tools) == 0 {
				return fmt.Errorf("%w: pass owner/repo or list tools in %s", service.ErrNoTools, a.settings.Manifest)
			}

			target, err := a.target(ctx)
			if err != nil {
				return err
			}
			mgr, err := a.newManager(ctx, target, matcher)
			if err != nil {
				return err
			}

			installer := service.NewInstaller(mgr, a.logger, nil)
			result, err := installer.Execute(ctx, service.InstallRequest{Tools: tools})
			if result != nil {
				for _, res := range result.Results {
					printResult(cmd.OutOrStdout(), res)
				}
			}
			return err
		},
	}
	cmd.Flags().String(config.FlagName(config.KeyTag), "", "release tag (default latest)")
	cmd.Flags().String(config.FlagName(config.KeyName), "", "binary name (default repo name)")
	addScannerFlags(cmd)
	return cmd
}

// installTools turns arguments into tool specs. --tag and --name apply only
// to a single repository.
func (a *app) installTools(cmd *cobra.Command, args []string) ([]config.ToolSpec, error) {
	if len(args) == 0 {
		spec, ok, err := a.settings.Request()
		if err != nil || !ok {
			return nil, err
		}
		return []config.ToolSpec{spec}, nil
	}

	if len(args) > 1 {
		for _, flag := range []string{config.KeyTag, config.KeyName} {
			if cmd.Flags().Changed(flag) {
				return nil, fmt.Errorf("--%s needs a single repository", flag)
			}
		}
	}

	tools := make([]config.ToolSpec, 0, len(args))
	for _, arg := range args {
		spec, err := config.ParseToolSpec(arg)
		if err != nil {
			return nil, err
		}
		if len(args) == 1 {
			if spec.Tag == "" {
				spec.Tag = a.settings.Tag
			}
			spec.Name = a.settings.Name
		}
		if err := spec.Validate(); err != nil {
			return nil, err
		}
		tools = append(tools, spec)
	}
	return tools, nil
}

// newManager wires the provider, download, cache and PATH stack.
func (a *app) newManager(ctx context.Context, target platform.Target, matcher *asset.Matcher) (*binary.Manager, error) {
	s := a.settings

	opts := []release.Option{
		release.WithRetries(s.Retries),
		release.WithLogger(a.logger),
	}
	if s.APIURL != "" {
		opts = append(opts, release.WithBaseURL(s.APIURL))
	}
	github, err := release.NewGitHubProvider(ctx, s.Token, opts...)
	if err != nil {
		return nil, err
	}
	provider := release.NewCachedProvider(github, release.CacheConfig{
		TTL:    s.MetadataTTL,
		Logger: a.logger,
	})

	var progress io.Writer
	if !s.NoProgress {
		progress = a.stderr
	}
	fetcher := binary.NewDownloader(binary.DownloaderConfig{
		Token:     s.Token,
		UserAgent: "binstall/" + Version,
		Retries:   s.Retries,
		Timeout:   s.Timeout,
		Progress:  progress,
	})

	var store cache.Store
	if s.CacheDir != "" {
		store = cache.NewDirStore(s.CacheDir)
	}

	return binary.NewManager(binary.Config{
		ToolCache: s.ToolCache,
		TempDir:   os.Getenv("RUNNER_TEMP"),
		Target:    target,
		Provider:  provider,
		Fetcher:   fetcher,
		Matcher:   matcher,
		Scanner:   a.scanner(),
		Cache:     store,
		Path:      shell.NewPathExporter(),
		Logger:    a.logger,
	})
}

func printResult(w io.Writer, res *binary.Result) {
	source := res.Asset
	if res.CacheHit {
		source = "cache"
	}
	fmt.Fprintf(w, "%s/%s@%s -> %s (%s)\n", res.Owner, res.Repo, res.Tag, res.BinaryPath, source)
}
