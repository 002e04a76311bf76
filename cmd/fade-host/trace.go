package main

import (
	"fmt"
	"os"

	"fadecode-go/services/fade/trace"

	"github.com/urfave/cli/v2"
)

func traceCommand() *cli.Command {
	return &cli.Command{
		Name:  "trace",
		Usage: "run the controller offline and plot the outputs",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "events", Aliases: []string{"n"}, Value: 500, Usage: "number of periodic events to simulate"},
			&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "write a PNG plot to `FILE`"},
			&cli.IntFlag{Name: "width", Value: 800, Usage: "plot width in pixels"},
			&cli.IntFlag{Name: "height", Value: 240, Usage: "plot height in pixels"},
		},
		Action: func(c *cli.Context) error {
			samples, err := trace.Run(c.Int("events"))
			if err != nil {
				return err
			}
			fmt.Println(trace.Summarize(samples))

			out := c.String("out")
			if out == "" {
				return nil
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := trace.Plot(f, samples, c.Int("width"), c.Int("height")); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}
}
