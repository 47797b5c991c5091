package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/spigell/interview-rehearsal/internal/catalog"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and the embedded question catalog version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", app, resolvedVersion())
		if cat, err := catalog.Default(); err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "question catalog: v%d (%d topics)\n", cat.Version(), len(cat.Tags()))
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// resolvedVersion prefers the linker-provided version and falls back to the
// module version recorded by go install.
func resolvedVersion() string {
	if version != "unknown" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return version
}
