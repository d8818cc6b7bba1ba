package cmd

import (
	"github.com/spf13/cobra"

	"github.com/armadaproject/foldbatch/internal/foldbatch"
)

func statusCmd(a *foldbatch.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show how many jobs of the batch are in each status.",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, a)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Status()
		},
	}
	return cmd
}
