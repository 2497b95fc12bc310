package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vandanapadala-pg/hotcommands/version"
)

// VersionCmd prints build information.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Get().String())
	},
}
