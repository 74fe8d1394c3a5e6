package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// This variable is set during build time.
var version string

func NewCmdVersion() *cobra.Command {
	return &cobra.Command{
		Use:          "version",
		Short:        "print the analyzer version",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("analyzer version: %s\n", version)
			return nil
		},
	}
}
