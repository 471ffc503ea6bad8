package main

import (
	"os"

	"github.com/spf13/cobra"
)

func buildRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gitminer",
		Short: "REST API over mined git projects, commits, issues and comments",
		Long: `gitminer stores projects mined from git hosting providers together with
their commits, issues and issue comments, and serves them over a paged,
filterable REST API under /gitminer.

Configuration is read from GITMINER_* environment variables (and .env).`,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, args []string) error {
			return command.Help()
		},
	}

	cmd.AddCommand(newServeCommand(), newMigrateCommand())
	return cmd
}

func main() {
	if err := buildRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
