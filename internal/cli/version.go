package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build metadata, overridable with -ldflags at release time
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information for talentsift",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("talentsift version %s\nGit commit: %s\nBuild date: %s\n",
			Version, GitCommit, BuildDate)
	},
}
