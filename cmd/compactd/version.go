package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/compactd/compactd/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print compactd version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("compactd version: %s\n", version.Get().String())
		return nil
	},
}
