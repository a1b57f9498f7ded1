package main

import (
	"github.com/ZebulonRouseFrantzich/binstall/internal/config"
	"github.com/spf13/cobra"
)

func (a *app) addCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add owner/repo[@tag]",
		Short: "Add a tool to the manifest",
		Long: `Add a tool to the manifest, replacing any entry for the same repository
and binary name. The manifest is rewritten from its evaluated form, so
platform conditionals are resolved for the current target.

Examples:
  binstall add sharkdp/fd@v10.2.0
  binstall add BurntSushi/ripgrep --name rg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tool, err := config.ParseToolSpec(args[0])
			if err != nil {
				return err
			}
			if tool.Tag == "" {
				tool.Tag = a.settings.Tag
			}
			tool.Name = a.settings.Name

			manifests, err := a.manifests(cmd.Context())
			if err != nil {
				return err
			}
			result, err := manifests.Add(cmd.Context(), tool)
			if err != nil {
				return err
			}

			switch {
			case result.Created:
				cmd.Printf("created %s with %s\n", manifests.Path(), result.Tool)
			case result.Replaced:
				cmd.Printf("updated %s: %s\n", manifests.Path(), result.Tool)
			default:
				cmd.Printf("added %s to %s\n", result.Tool, manifests.Path())
			}
			return nil
		},
	}
	cmd.Flags().String(config.FlagName(config.KeyTag), "", "release tag (default latest)")
	cmd.Flags().String(config.FlagName(config.KeyName), "", "binary name (default repo name)")
	return cmd
}
