package main

import (
	"errors"

	"github.com/ZebulonRouseFrantzich/binstall/internal/service"
	"github.com/ZebulonRouseFrantzich/binstall/internal/shell"
	"github.com/spf13/cobra"
)

var errToolCacheUnset = errors.New("tool cache is not set: use --tool-cache or RUNNER_TOOL_CACHE")

func (a *app) envCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "env [bash|zsh|fish]",
		Short: "Print shell commands that put installed binaries on PATH",
		Long: `Print a PATH line for the newest install of every tool built for the
target. The shell is detected when not given.

Examples:
  eval "$(binstall env)"
  binstall env fish | source`,
		Args:      cobra.RangeArgs(0, 1),
		ValidArgs: []string{"bash", "zsh", "fish"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var sh shell.ShellType
			if len(args) == 1 {
				parsed, err := shell.ParseShell(args[0])
				if err != nil {
					return err
				}
				sh = parsed
			} else {
				detected, err := shell.DetectShell()
				if err != nil {
					return err
				}
				a.logger.Debug("detected shell", "shell", detected.Shell, "source", detected.Source)
				sh = detected.Shell
			}

			if a.settings.ToolCache == "" {
				return errToolCacheUnset
			}
			target, err := a.target(cmd.Context())
			if err != nil {
				return err
			}
			tools, err := service.NewLister(a.settings.ToolCache).List(cmd.Context())
			if err != nil {
				return err
			}

			var dirs []string
			for _, tool := range service.Newest(tools, target.String()) {
				dirs = append(dirs, tool.Dir)
			}
			line, err := shell.PathCommand(sh, dirs)
			if err != nil {
				return err
			}
			if line != "" {
				cmd.Println(line)
			}
			return nil
		},
	}
}
