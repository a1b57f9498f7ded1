package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/ZebulonRouseFrantzich/binstall/internal/config"
)

// Version will be set at build time via -ldflags
var Version = "v0.0.1-alpha"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	app := newApp(stdout, stderr)
	root := app.rootCommand()
	root.SetArgs(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		verbose := app.settings != nil && app.settings.Verbose
		fmt.Fprintf(stderr, "Error: %s\n", config.FormatError(err, verbose))
		return 1
	}
	return 0
}
