package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cyberic99/nestronic/internal/version"
)

// versionCmd prints build information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "show the nestronic version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Detailed())
	},
}
