package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/rxtech-lab/argo-signals/internal/strategy"
	"github.com/rxtech-lab/argo-signals/internal/version"
	"github.com/urfave/cli/v3"
)

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:    "signals",
		Usage:   "Generate crypto trading signals from candles and technical indicators",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "warn",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Also write logs to this file, rotated by size",
			},
		},
		Commands: []*cli.Command{
			replayCommand(),
			serveCommand(),
			watchCommand(),
			presetsCommand(),
			schemaCommand(),
			versionCommand(),
		},
	}
}

func presetsCommand() *cli.Command {
	return &cli.Command{
		Name:      "presets",
		Usage:     "Print the built-in strategy presets as YAML",
		ArgsUsage: "[name]",
		Action: func(_ context.Context, cmd *cli.Command) error {
			names := strategy.PresetNames()
			if cmd.Args().Present() {
				names = []string{cmd.Args().First()}
			}

			out := cmd.Root().Writer

			for i, name := range names {
				preset, err := strategy.Preset(name)
				if err != nil {
					return err
				}

				data, err := preset.Marshal()
				if err != nil {
					return err
				}

				if i > 0 {
					fmt.Fprintln(out, "---")
				}

				fmt.Fprintf(out, "# %s\n%s", name, data)
			}

			return nil
		},
	}
}

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:  "schema",
		Usage: "Print the JSON schema of strategy files",
		Action: func(_ context.Context, cmd *cli.Command) error {
			schema, err := strategy.GetConfigSchema()
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.Root().Writer, schema)

			return nil
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the engine version",
		Action: func(_ context.Context, cmd *cli.Command) error {
			fmt.Fprintln(cmd.Root().Writer, version.GetVersion())

			return nil
		},
	}
}

func main() {
	if err := newRootCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
