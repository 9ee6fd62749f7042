// Command assetctl inspects and converts the classical client's
// DAT/SPR/OBD assets from the shell.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

func main() {
	var rootCmd = &cobra.Command{
		Use:   "assetctl",
		Short: "Inspect and convert classical client asset files",
		Long:  "assetctl dumps, converts, and validates DAT/SPR/OBD client asset files",
	}

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("assetctl version 0.1.0")
		},
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newInspectCmd())
	rootCmd.AddCommand(newConvertCmd())
	rootCmd.AddCommand(newDumpCmd())

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
