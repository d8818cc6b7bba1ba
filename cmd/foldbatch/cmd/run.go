package cmd

import (
	"github.com/spf13/cobra"

	"github.com/armadaproject/foldbatch/internal/common"
	"github.com/armadaproject/foldbatch/internal/common/app"
	"github.com/armadaproject/foldbatch/internal/foldbatch"
)

func runCmd(a *foldbatch.App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the ready jobs of the batch until they are done or the budget runs out.",
		Long: `Run the ready jobs of the batch, one at a time, in name order.

Jobs that are done are skipped. Jobs that failed or timed out are skipped until reset-failed is run. Jobs with a
running marker are reported and skipped: a marker left by a runner that died must be cleared with cleanup, or with
--cleanup-stale when no other runner can be working on the batch.

The run stops starting new jobs when less than batch.minJobTime of the budget remains. SIGINT and SIGTERM stop the
job in progress, which is recorded as timed out.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initParams(cmd, a); err != nil {
				return err
			}
			var err error
			if a.Params.CleanupStale, err = cmd.Flags().GetBool("cleanup-stale"); err != nil {
				return err
			}
			a.Params.Resubmit, err = cmd.Flags().GetBool("resubmit")
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			common.ConfigureLogging()
			ctx, cancel := app.CreateContextWithShutdown()
			defer cancel()
			return a.Run(ctx)
		},
	}
	cmd.Flags().Var(newDurationValue(&a.Params.Budget), "budget",
		"Wall-clock budget for this run, e.g. 71h45m or 2-23:45:00; overrides batch.budget")
	cmd.Flags().Bool("cleanup-stale", false, "Clear running markers before starting; only safe when no other runner works on the batch")
	cmd.Flags().Bool("resubmit", false, "Submit a follow-up allocation if the budget runs out with jobs still ready")
	return cmd
}
