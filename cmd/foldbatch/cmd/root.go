package cmd

import (
	"github.com/spf13/cobra"

	"github.com/armadaproject/foldbatch/internal/foldbatch"
)

const configFlag = "config"

// RootCmd is the root Cobra command that gets called from the main func.
// All other sub-commands should be registered here.
func RootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "foldbatch",
		SilenceUsage: true,
		Short:        "foldbatch runs resumable batches of structure predictions in SLURM allocations.",
		Long: `foldbatch runs resumable batches of structure predictions in SLURM allocations.

Every input file in the batch's input directory is one job. Each job's status is kept as a marker file in its
output directory, so a batch cut short by the end of an allocation continues where it stopped the next time it
runs:

  <prefix>.running   the job has started (left behind if the runner died)
  <prefix>.done      the job finished successfully and never runs again
  <prefix>.error     the tool failed; run it again after reset-failed
  <prefix>.timeout   the tool ran out of time; run it again after reset-failed

Configuration is read from the built-in defaults, then each --config file in order, then FOLDBATCH_*
environment variables, e.g. FOLDBATCH_BATCH_INPUTDIR.`,
	}

	cmd.PersistentFlags().StringSlice(
		configFlag,
		[]string{},
		"Fully qualified path to application configuration file (for multiple config files repeat this arg or separate paths with commas)")

	cmd.AddCommand(
		runCmd(foldbatch.New()),
		statusCmd(foldbatch.New()),
		cleanupCmd(foldbatch.New()),
		resetFailedCmd(foldbatch.New()),
		cleanAllCmd(foldbatch.New()),
		submitCmd(foldbatch.New()),
		convertCmd(foldbatch.New()),
		pairCmd(foldbatch.New()),
		summarizeCmd(foldbatch.New()),
		versionCmd(foldbatch.New()),
	)

	return cmd
}

func initParams(cmd *cobra.Command, app *foldbatch.App) error {
	configFiles, err := cmd.Flags().GetStringSlice(configFlag)
	if err != nil {
		return err
	}
	app.Params.ConfigFiles = configFiles
	app.Out = cmd.OutOrStdout()
	app.In = cmd.InOrStdin()
	return nil
}
