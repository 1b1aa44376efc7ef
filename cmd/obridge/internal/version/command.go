package version

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/obridge/cmd/obridge/internal"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("obridge %s\n", internal.GetVersion())
			if commit := internal.GetGitCommit(); commit != "" {
				fmt.Printf("  commit: %s\n", commit)
			}
			if built := internal.GetBuildTime(); built != "" {
				fmt.Printf("  built:  %s\n", built)
			}
			fmt.Printf("  go:     %s\n", runtime.Version())
		},
	}
}
