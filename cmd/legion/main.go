package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/willabides/kongplete"

	"github.com/d2verb/legion/internal/ui"
)

var (
	version = "dev"
	commit  = "none"
)

// Globals are flags shared by every command.
type Globals struct {
	Config string `help:"Path to config.yaml (default: ~/.legion/config.yaml)" type:"path" predictor:"file"`
}

type CLI struct {
	Globals

	Serve   ServeCmd   `cmd:"" help:"Run the server in the foreground"`
	Start   StartCmd   `cmd:"" help:"Start the server in the background"`
	Stop    StopCmd    `cmd:"" help:"Stop the background server"`
	Status  StatusCmd  `cmd:"" help:"Show server status"`
	Connect ConnectCmd `cmd:"" help:"Open a command session against the server"`
	Logs    LogsCmd    `cmd:"" help:"Show server logs"`
	Edit    EditCmd    `cmd:"" help:"Edit config.yaml or a command script"`

	Version            VersionCmd                   `cmd:"" help:"Show version"`
	InstallCompletions kongplete.InstallCompletions `cmd:"" help:"Install shell completions"`
}

func main() {
	cli := CLI{}
	parser := kong.Must(&cli,
		kong.Name("legion"),
		kong.Description("Remote command shell for a Space Marine collection"),
		kong.UsageOnError(),
	)

	kongplete.Complete(parser,
		kongplete.WithPredictor("file", newFilePredictor()),
		kongplete.WithPredictor("script", newScriptPredictor()),
		kongplete.WithPredictor("address", newAddressPredictor()),
	)

	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	os.Exit(exitCode(ctx.Run(&cli.Globals)))
}

// exitCode reports err to the user and returns the process exit status.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Message != "" {
			ui.PrintError(exitErr.Message)
		}
		return exitErr.Code
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return exitError
}
