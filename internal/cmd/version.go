package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var versionExtended bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s\n", binaryName, versionInfo.Version)
		if versionExtended {
			fmt.Printf("  Commit: %s\n", versionInfo.Commit)
			fmt.Printf("  Built:  %s\n", versionInfo.BuildDate)
			fmt.Printf("  Go:     %s\n", runtime.Version())
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().BoolVar(&versionExtended, "extended", false, "show extended version information")
}
