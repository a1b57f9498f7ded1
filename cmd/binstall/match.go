package main

import (
	"github.com/ZebulonRouseFrantzich/binstall/internal/asset"
	"github.com/ZebulonRouseFrantzich/binstall/internal/config"
	"github.com/spf13/cobra"
)

func (a *app) matchCommand() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "match asset...",
		Short: "Show which release asset would be installed",
		Long: `Run asset selection offline against a list of asset names. Synonyms
from the manifest apply.

Examples:
  binstall match --target linux-x64 --name gh gh_2.40.0_linux_amd64.tar.gz gh_2.40.0_macOS_arm64.zip`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			matcher, _, err := a.matcher(ctx)
			if err != nil {
				return err
			}
			target, err := a.target(ctx)
			if err != nil {
				return err
			}

			if all {
				matches, err := matcher.Match(args, target)
				if err != nil {
					return err
				}
				if len(matches) == 0 {
					return &asset.NoMatchError{Target: target, Assets: args}
				}
				for _, name := range matches {
					cmd.Println(name)
				}
				return nil
			}

			name, err := matcher.Select(args, a.settings.Name, target)
			if err != nil {
				return err
			}
			cmd.Println(name)
			return nil
		},
	}
	cmd.Flags().String(config.FlagName(config.KeyName), "", "binary name used to break ties")
	cmd.Flags().BoolVar(&all, "all", false, "print every asset that fits the target")
	return cmd
}
