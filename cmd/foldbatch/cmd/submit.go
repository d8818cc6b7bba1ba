package cmd

import (
	"github.com/spf13/cobra"

	"github.com/armadaproject/foldbatch/internal/common/armadacontext"
	"github.com/armadaproject/foldbatch/internal/foldbatch"
)

func submitCmd(a *foldbatch.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a SLURM job that runs the batch.",
		Long: `Render an sbatch script from the slurm section of the configuration and submit it.

The script runs foldbatch run with the same config files and a budget of slurm.time less slurm.safetyMargin, so
that the run stops cleanly before the allocation ends. Transient sbatch failures are retried.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initParams(cmd, a); err != nil {
				return err
			}
			var err error
			if a.Params.DryRun, err = cmd.Flags().GetBool("dry-run"); err != nil {
				return err
			}
			a.Params.Resubmit, err = cmd.Flags().GetBool("resubmit")
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.Submit(armadacontext.Background())
		},
	}
	cmd.Flags().Bool("dry-run", false, "Print the script instead of submitting it")
	cmd.Flags().Bool("resubmit", false, "Have the submitted job resubmit itself until no job is ready")
	return cmd
}
