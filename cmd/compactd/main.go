package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/compactd/compactd/internal/cli"
)

func main() {
	command := NewCompactdCommand()
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}

func NewCompactdCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compactd",
		Short: "compactd coordinates transparent compression for a local game library.",
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
			os.Exit(1)
		},
	}
	cmd.AddCommand(runCmd)
	cmd.AddCommand(migrateCmd)
	cmd.AddCommand(versionCmd)
	cmd.AddCommand(cli.NewCmdStatus())
	cmd.AddCommand(cli.NewCmdGet())
	cmd.AddCommand(cli.NewCmdCompress())
	cmd.AddCommand(cli.NewCmdDecompress())
	cmd.AddCommand(cli.NewCmdCancel())

	return cmd
}
