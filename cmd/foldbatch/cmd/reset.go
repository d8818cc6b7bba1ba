package cmd

import (
	"github.com/spf13/cobra"

	"github.com/armadaproject/foldbatch/internal/foldbatch"
)

func cleanupCmd(a *foldbatch.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove running markers left behind by runners that died.",
		Long: `Remove every running marker so that those jobs run again.

A running marker cannot tell a runner that died from one still working. Only use cleanup when no runner is working
on the batch, e.g. when squeue shows no job for it.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, a)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Cleanup()
		},
	}
	return cmd
}

func resetFailedCmd(a *foldbatch.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset-failed",
		Short: "Remove error and timeout markers so that failed jobs run again.",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initParams(cmd, a)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.ResetFailed()
		},
	}
	return cmd
}

func cleanAllCmd(a *foldbatch.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean-all",
		Short: "Remove every marker except done, after confirmation.",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initParams(cmd, a); err != nil {
				return err
			}
			var err error
			a.Params.Yes, err = cmd.Flags().GetBool("yes")
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.CleanAll()
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	return cmd
}
