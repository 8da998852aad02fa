package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/rohanku/release-please/pkg/buildinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "release-please %s\n", buildinfo.BinaryVersion)

		extended, _ := cmd.Flags().GetBool("extended")
		if extended {
			fmt.Fprintf(out, "module version: %s\n", buildinfo.ModuleVersion())
			fmt.Fprintf(out, "go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().Bool("extended", false, "Include build metadata")
}
