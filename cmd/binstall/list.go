package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/ZebulonRouseFrantzich/binstall/internal/service"
	"github.com/spf13/cobra"
)

func (a *app) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List installed binaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.settings.ToolCache == "" {
				return errToolCacheUnset
			}
			tools, err := service.NewLister(a.settings.ToolCache).List(cmd.Context())
			if err != nil {
				return err
			}
			if len(tools) == 0 {
				cmd.Println("No binaries installed")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "REPO\tTAG\tNAME\tTARGET\tPATH")
			for _, tool := range tools {
				r := tool.Receipt
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Repo, r.Tag, r.Name, r.Target, tool.Dir)
			}
			return tw.Flush()
		},
	}
}
