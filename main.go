package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"

	"github.com/mcncl/skjson/internal/bridge"
	"github.com/mcncl/skjson/internal/config"
	"github.com/mcncl/skjson/internal/errors"
)

// CLI defines the command-line interface
var CLI struct {
	Config  string           `help:"Path to config file. Defaults to the nearest skjson.yml." short:"c" type:"path"`
	Debug   bool             `help:"Enable debug logging." short:"d"`
	Version kong.VersionFlag `help:"Show version information." short:"v"`

	Get        GetCmd        `cmd:"" help:"Print the value at a path inside a JSON file."`
	Set        SetCmd        `cmd:"" help:"Set the value at a path and save the file."`
	Change     ChangeCmd     `cmd:"" help:"Rename keys or replace values at every depth and save the file."`
	Query      QueryCmd      `cmd:"" help:"Evaluate a JSONPath expression against a JSON file."`
	Request    RequestCmd    `cmd:"" help:"Send an HTTP request and print the response body."`
	Watch      WatchCmd      `cmd:"" help:"Cache JSON files and reload them when they change on disk."`
	InitConfig InitConfigCmd `cmd:"" name:"init-config" help:"Write a default config file."`
}

// Context holds the runtime context
type Context struct {
	Debug  bool
	Config *config.Config
	Bridge *bridge.Bridge
	Out    io.Writer
}

// Version information
const (
	Version = "2.0.0"
)

func main() {
	// Parse CLI arguments with Kong
	parser := kong.Must(&CLI,
		kong.Name("skjson"),
		kong.Description("Read, edit and send JSON documents"),
		kong.UsageOnError(),
		kong.Vars{"version": fmt.Sprintf("skjson version %s", Version)},
	)

	ctx, err := parser.Parse(os.Args[1:])
	if err != nil {
		// usage is already shown by kong.UsageOnError()
		os.Exit(1)
	}

	runCtx, err := newContext(CLI.Config, CLI.Debug, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		os.Exit(1)
	}

	if err := ctx.Run(runCtx); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		fmt.Fprintf(os.Stderr, "\nFor help, run: skjson --help\n")
		os.Exit(1)
	}
}

// newContext loads the configuration and builds the bridge shared by all
// commands
func newContext(configPath string, debug bool, out io.Writer) (*Context, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, errors.NewConfigError("failed to load configuration", err)
	}
	if debug {
		cfg.Debug = true
	}
	return &Context{
		Debug:  cfg.Debug,
		Config: cfg,
		Bridge: bridge.New(cfg),
		Out:    out,
	}, nil
}
