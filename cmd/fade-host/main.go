// Command fade-host runs the breathing-LED controller on a Linux
// single-board computer, or simulated in a terminal.
package main

import (
	"os"
	"sort"

	"fadecode-go/cmd/fade-host/config"

	"github.com/urfave/cli/v2"
	"github.com/womat/debug"
)

// VERSION is the semantic version plus the build month.
const (
	VERSION = "1.0.0+20261001"
	MODULE  = "fade-host"
)

func main() {
	exitCode := 1
	defer func() {
		os.Exit(exitCode)
	}()

	// until the config is loaded, log errors to stderr
	debug.SetDebug(os.Stderr, debug.Standard)

	// cfg holds the application configuration
	cfg := config.NewConfig()

	cliApp := &cli.App{
		Name:    MODULE,
		Usage:   "breathing LED with a companion output, driven by a fixed 8 ms tick",
		Version: VERSION,
		Description: "Ramps a PWM output 0..125..0 one step per tick and drives a companion" +
			"\n output that is on while the ramp rises. State changes are published on the" +
			"\n internal bus and optionally forwarded to MQTT and served over HTTP.",
		UsageText: "fade-host [--config <file>] [--log standard|error|debug|trace] [--sim]" +
			"\n   fade-host trace [--events N] [--out FILE]" +
			"\n\nEXAMPLE:" +
			"\n\trun in the terminal without hardware" +
			"\n\t\tfade-host --sim",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Destination: &cfg.Flag.ConfigFile, Usage: "load configuration from `FILE`"},
			&cli.StringFlag{Name: "log", Aliases: []string{"l"}, Destination: &cfg.Flag.LogLevel, Usage: "`LEVEL` defines the log level (standard|error|debug|trace)"},
			&cli.BoolFlag{Name: "sim", Aliases: []string{"s"}, Destination: &cfg.Flag.Sim, Usage: "simulate the outputs instead of using GPIO"},
		},
		Action: func(_ *cli.Context) error {
			if err := cfg.LoadConfig(); err != nil {
				return err
			}

			debug.SetDebug(cfg.Debug.File, cfg.Debug.Flag)
			defer func() {
				if cfg.Debug.File != os.Stderr && cfg.Debug.File != os.Stdout {
					_ = cfg.Debug.File.Close()
				}
			}()

			return run(cfg)
		},
		Commands: []*cli.Command{traceCommand()},
	}

	// we expect to have more command line flags in the future - sort them
	sort.Sort(cli.FlagsByName(cliApp.Flags))
	sort.Sort(cli.CommandsByName(cliApp.Commands))

	if err := cliApp.Run(os.Args); err != nil {
		debug.FatalLog.Print(err)
		return
	}

	exitCode = 0
}
