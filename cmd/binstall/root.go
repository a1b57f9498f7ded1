package main

import (
	"context"
	"io"
	"log/slog"
	"runtime"

	"github.com/ZebulonRouseFrantzich/binstall/internal/asset"
	"github.com/ZebulonRouseFrantzich/binstall/internal/config"
	"github.com/ZebulonRouseFrantzich/binstall/internal/locate"
	"github.com/ZebulonRouseFrantzich/binstall/internal/logging"
	"github.com/ZebulonRouseFrantzich/binstall/internal/platform"
	"github.com/ZebulonRouseFrantzich/binstall/internal/service"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries the state shared by every subcommand of one invocation.
type app struct {
	stdout   io.Writer
	stderr   io.Writer
	viper    *viper.Viper
	detector platform.Detector

	// Set by the root command's PersistentPreRunE.
	settings *config.Settings
	logger   *slog.Logger

	info *platform.Info
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:   stdout,
		stderr:   stderr,
		viper:    config.NewViper(),
		detector: platform.NewDetector(),
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "binstall",
		Short: "Install binaries from GitHub releases",
		Long: `binstall downloads the release asset that fits the current platform,
extracts the executable and puts it on PATH. It is built to run as a
step in GitHub Actions but works anywhere.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.BindFlags(a.viper, cmd.Flags()); err != nil {
				return err
			}
			settings, err := config.Load(a.viper)
			if err != nil {
				return err
			}
			a.settings = settings
			a.logger = logging.New(a.stderr, settings.Verbose)
			return nil
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetVersionTemplate("binstall {{.Version}}\n")

	flags := root.PersistentFlags()
	flags.String(config.FlagName(config.KeyToken), "", "GitHub token (default $GITHUB_TOKEN)")
	flags.String(config.FlagName(config.KeyAPIURL), "", "GitHub API root (default $GITHUB_API_URL or api.github.com)")
	flags.String(config.FlagName(config.KeyToolCache), "", "install root (default $RUNNER_TOOL_CACHE)")
	flags.String(config.FlagName(config.KeyCacheDir), "", "archive cache directory")
	flags.String(config.FlagName(config.KeyManifest), config.DefaultManifest, "Lua manifest listing tools")
	flags.String(config.FlagName(config.KeyTarget), "", "target platform as os-arch (default detected)")
	flags.Int(config.FlagName(config.KeyRetries), config.DefaultRetries, "retries for downloads and rate-limited API calls")
	flags.Duration(config.FlagName(config.KeyTimeout), config.DefaultTimeout, "download timeout")
	flags.Duration(config.FlagName(config.KeyMetadataTTL), config.DefaultMetadataTTL, "how long release metadata is cached (0 disables)")
	flags.Bool(config.FlagName(config.KeyNoProgress), false, "disable the download progress bar")
	flags.BoolP(config.FlagName(config.KeyVerbose), "v", false, "verbose output")

	root.AddCommand(
		a.installCommand(),
		a.matchCommand(),
		a.locateCommand(),
		a.listCommand(),
		a.envCommand(),
		a.addCommand(),
		a.versionCommand(),
	)
	return root
}

// addScannerFlags registers the flags that tune binary discovery.
func addScannerFlags(cmd *cobra.Command) {
	cmd.Flags().Int64(config.FlagName(config.KeyMinSize), 0, "minimum binary size in bytes (default 500KiB, negative disables)")
	cmd.Flags().Bool(config.FlagName(config.KeySniff), false, "require an executable header")
	cmd.Flags().Int(config.FlagName(config.KeySniffBytes), 0, "bytes inspected when sniffing")
}

// platformInfo detects the host once and applies the --target override.
func (a *app) platformInfo(ctx context.Context) (*platform.Info, error) {
	if a.info != nil {
		return a.info, nil
	}

	override := a.settings.Target
	info, err := a.detector.Detect(ctx)
	if err != nil {
		if override == (platform.Target{}) {
			return nil, err
		}
		// An explicit target does not need a supported host.
		info = &platform.Info{GOOS: runtime.GOOS, GOARCH: runtime.GOARCH}
	}

	if override != (platform.Target{}) && override != info.Target {
		o := *info
		if o.Target.OS != override.OS {
			o.Platform, o.Family, o.Version = "", "", ""
		}
		o.Target = override
		info = &o
	}

	a.info = info
	return info, nil
}

func (a *app) target(ctx context.Context) (platform.Target, error) {
	info, err := a.platformInfo(ctx)
	if err != nil {
		return platform.Target{}, err
	}
	return info.Target, nil
}

// manifests returns the manifest service. The manifest sees the target
// platform, not necessarily the host.
func (a *app) manifests(ctx context.Context) (*service.ManifestService, error) {
	info, err := a.platformInfo(ctx)
	if err != nil {
		return nil, err
	}
	parser := config.NewParser(platform.StaticDetector{Info: info})
	return service.NewManifestService(parser, config.NewGenerator(), a.settings.Manifest, a.logger), nil
}

// matcher builds the asset matcher from the manifest's synonyms. A missing
// manifest means the built-in table.
func (a *app) matcher(ctx context.Context) (*asset.Matcher, *config.Manifest, error) {
	manifests, err := a.manifests(ctx)
	if err != nil {
		return nil, nil, err
	}
	manifest, err := manifests.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	table, err := manifest.PatternTable()
	if err != nil {
		return nil, nil, err
	}
	return asset.NewMatcher(table), manifest, nil
}

func (a *app) scanner() *locate.Scanner {
	return locate.NewScanner(locate.Options{
		MinSize:    a.settings.MinSize,
		Sniff:      a.settings.Sniff,
		SniffBytes: a.settings.SniffBytes,
		Logger:     a.logger,
	})
}
