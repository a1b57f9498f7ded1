package main

import (
	"fmt"

	"github.com/ZebulonRouseFrantzich/binstall/internal/config"
	"github.com/ZebulonRouseFrantzich/binstall/internal/locate"
	"github.com/spf13/cobra"
)

func (a *app) locateCommand() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "locate <dir>",
		Short: "Find the executable inside an extracted release",
		Long: `Scan a directory the way install scans an extracted archive and print
the file that would be installed.

Examples:
  binstall locate ./ripgrep-14.1.1-x86_64-unknown-linux-musl --name rg
  binstall locate ./dist --all --sniff`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			candidates, err := a.scanner().Scan(args[0])
			if err != nil {
				return err
			}

			if all {
				for _, c := range candidates {
					cmd.Printf("%d\t%s\n", c.Size, c.Path)
				}
				return nil
			}

			name := a.settings.Name
			if name != "" {
				target, err := a.target(cmd.Context())
				if err != nil {
					return err
				}
				name = target.ExecutableName(name)
			}

			path, err := locate.Locate(candidates, name)
			if err != nil {
				return fmt.Errorf("%w in %s", err, args[0])
			}
			cmd.Println(path)
			return nil
		},
	}
	cmd.Flags().String(config.FlagName(config.KeyName), "", "preferred binary name when several files qualify")
	cmd.Flags().BoolVar(&all, "all", false, "print every candidate with its size")
	addScannerFlags(cmd)
	return cmd
}
