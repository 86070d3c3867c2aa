package root

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RootCmd is the top-level command; subcommands register themselves in init.
var RootCmd = &cobra.Command{
	Use:   "aql",
	Short: "Maintenance window CLI",
	Long:  "Command line interface for the Active Query Listing maintenance window API",
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// GetRoot returns the RootCmd.
func GetRoot() *cobra.Command {
	return RootCmd
}
