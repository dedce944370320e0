package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rxtech-lab/argo-signals/internal/datasource"
	"github.com/urfave/cli/v3"
)

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Watch live signals for a few symbols in a terminal dashboard",
		Action: func(ctx context.Context, _ *cli.Command) error {
			program := tea.NewProgram(NewModel(datasource.NewBinanceStream()), tea.WithAltScreen(), tea.WithContext(ctx))

			_, err := program.Run()

			return err
		},
	}
}
