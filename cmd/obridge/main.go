// obridge - bridges the NT client core to an OneBot 11 event stream.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/tinyland-inc/obridge/cmd/obridge/internal/serve"
	"github.com/tinyland-inc/obridge/cmd/obridge/internal/version"
)

func NewObridgeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "obridge",
		Short:   "obridge - OneBot 11 event bridge for the NT client core",
		Example: "obridge serve",
	}

	cmd.AddCommand(
		serve.NewServeCommand(),
		version.NewVersionCommand(),
	)

	return cmd
}

func main() {
	cmd := NewObridgeCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
