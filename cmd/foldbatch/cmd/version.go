package cmd

import (
	"github.com/spf13/cobra"

	"github.com/armadaproject/foldbatch/internal/foldbatch"
)

func versionCmd(a *foldbatch.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, a)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Version()
		},
	}
	return cmd
}
