package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

// errFatal marks a failure that was already logged at fatal level.
var errFatal = errors.New("fatal")

func init() {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintf(c.App.Writer, "Tombstone (%s)\n", c.App.Version)
	}
}

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	if err := newApp(stdout, stderr).Run(args); err != nil {
		if !errors.Is(err, errFatal) {
			fmt.Fprintln(stderr, color.RedString("Error: %v", err))
		}
		return 1
	}
	return 0
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "tombstone",
		Usage:     "Find unused methods and members in C# solutions",
		UsageText: "tombstone [flags] <solution-path>",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Description: `Tombstone loads a .sln, a .csproj or a directory of C# sources and reports
every method and field, property or event that nothing in the solution calls.

Public declarations of library projects are part of their API and are never reported.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"TOMBSTONE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, toon, markdown (default: config output.format)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Disable the loading progress bar",
			},
			&cli.BoolFlag{
				Name:  "summary",
				Usage: "Print a per-project summary table",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log skipped documents and load statistics",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				fmt.Fprintf(c.App.Writer, "Tombstone (%s)\n", version)
				fmt.Fprintln(c.App.Writer, "Usage: tombstone [solution-path]")
				return nil
			}
			if c.NArg() > 1 {
				return fmt.Errorf("expected one solution path, got %d", c.NArg())
			}
			return runAnalyze(c, c.Args().First())
		},
	}
}
