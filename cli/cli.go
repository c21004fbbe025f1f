package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/panc/cli/cmd"
	"github.com/ardnew/panc/lang"
	"github.com/ardnew/panc/log"
	"github.com/ardnew/panc/pkg"
)

// CLI is the top-level command line of panc.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Templates      []string `default:"."                     help:"Template directories, searched in order."              placeholder:"DIR" sep:"," short:"T" type:"path"`
	LoadPath       []string `help:"Template name prefixes tried before each bare name, after any set by LOADPATH." placeholder:"PREFIX" sep:","`
	CallLimit      int      `default:"${callLimit}"          help:"Maximum depth of nested function calls."`
	IterationLimit int      `default:"${iterationLimit}"     help:"Maximum iterations of a single loop."`

	Compile cmd.Compile `cmd:"" default:"withargs" help:"Compile object templates into profiles."`
	Watch   cmd.Watch   `cmd:""                    help:"Recompile object templates when their templates change."`
	Init    cmd.Init    `cmd:""                    help:"Write the current flags to the configuration file."`
	Version cmd.Version `cmd:""                    help:"Print the version."`
}

// settings returns the compiler settings selected by the flags.
func (c *CLI) settings() cmd.Settings {
	return cmd.Settings{
		Logger:         log.Default(),
		Templates:      c.Templates,
		LoadPath:       c.LoadPath,
		CallLimit:      c.CallLimit,
		IterationLimit: c.IterationLimit,
	}
}

// Run parses args and runs the selected command. Kong calls exit after
// printing help or a usage error.
func Run(ctx context.Context, exit func(code int), args ...string) error {
	if err := mkdirAll(); err != nil {
		return err
	}

	var cli CLI

	// Configure the logger before kong reports anything.
	cli.Log.scan(args)

	vars := kong.Vars{
		cmd.ConfigIdentifier:  configPath(),
		cmd.CacheIdentifier:   pkg.CacheDir(),
		cmd.FormatsIdentifier: strings.Join(lang.Formats(), ","),
		"callLimit":           strconv.Itoa(lang.DefaultCallLimit),
		"iterationLimit":      strconv.Itoa(lang.DefaultIterationLimit),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Pprof.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups([]kong.Group{cli.Log.group(), cli.Pprof.group()}),
		kong.DefaultEnvars(strings.ToUpper(pkg.Prefix())),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			Summary:             true,
			NoExpandSubcommands: true,
		}),
		kong.Configuration(resolve, configPath()),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	cli.Log.start(ctx)
	defer cli.Pprof.start(ctx)()

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithSettings(ctx, cli.settings())

	ktx.BindTo(ctx, (*context.Context)(nil))

	return ktx.Run()
}
