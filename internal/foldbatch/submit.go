package foldbatch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/armadaproject/foldbatch/internal/batch"
	"github.com/armadaproject/foldbatch/internal/common/armadacontext"
	"github.com/armadaproject/foldbatch/internal/foldbatch/configuration"
	"github.com/armadaproject/foldbatch/internal/slurm"
)

// Submit renders the sbatch script that runs the batch in an allocation and submits it. With DryRun the script is
// printed instead.
func (a *App) Submit(ctx *armadacontext.Context) error {
	config, err := a.loadConfig()
	if err != nil {
		return err
	}
	script, err := a.renderScript(config)
	if err != nil {
		return err
	}
	if a.Params.DryRun {
		fmt.Fprint(a.Out, script)
		return nil
	}

	states, err := newBatch(config).State()
	if err != nil {
		return err
	}
	if ready := batch.CountByStatus(states)[batch.Ready]; ready == 0 {
		fmt.Fprintf(a.Out, "Nothing to submit: no job of the %d in %s is ready\n", len(states), config.Batch.InputDir)
		return nil
	}

	job, err := slurm.NewSubmitter(config.Slurm).Submit(ctx, script)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Submitted batch job %s\n", job)
	return nil
}

func (a *App) resubmit(ctx *armadacontext.Context, config configuration.FoldbatchConfig) error {
	script, err := a.renderScript(config)
	if err != nil {
		return err
	}
	job, err := slurm.NewSubmitter(config.Slurm).Submit(ctx, script)
	if err != nil {
		return errors.WithMessage(err, "error submitting follow-up job")
	}
	ctx.Log.Infof("Submitted follow-up job %s to continue with the remaining predictions", job)
	return nil
}

// renderScript renders the sbatch script for config. The script runs this executable with the same config files and a
// budget that ends the run a safety margin before the allocation does.
func (a *App) renderScript(config configuration.FoldbatchConfig) (string, error) {
	budget, err := config.Slurm.Budget()
	if err != nil {
		return "", err
	}
	command := []string{a.Executable, "run", "--budget", budget.String()}
	for _, file := range a.Params.ConfigFiles {
		abs, err := filepath.Abs(file)
		if err != nil {
			return "", errors.Wrapf(err, "error resolving %s", file)
		}
		command = append(command, "--config", abs)
	}
	if a.Params.Resubmit {
		command = append(command, "--resubmit")
	}
	workDir, err := os.Getwd()
	if err != nil {
		return "", errors.Wrap(err, "error reading working directory")
	}
	return slurm.RenderScript(slurm.ScriptParams{
		Config:     config.Slurm,
		RunCommand: command,
		WorkDir:    workDir,
	})
}
