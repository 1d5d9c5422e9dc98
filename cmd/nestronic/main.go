// Package main implements the nestronic NSF player executable.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the base for all commands.
var rootCmd = &cobra.Command{
	Use:   "nestronic [command]",
	Short: "nestronic is an NSF (NES Sound Format) player",
	Long:  "nestronic loads NSF tunes, emulates the 6502 driver and plays the APU register stream",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("Unknown command. Try `nestronic help` for more information")
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
