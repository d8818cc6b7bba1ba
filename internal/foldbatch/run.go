package foldbatch

import (
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/armadaproject/foldbatch/internal/batch"
	"github.com/armadaproject/foldbatch/internal/common/armadacontext"
	"github.com/armadaproject/foldbatch/internal/common/logging"
	"github.com/armadaproject/foldbatch/internal/foldbatch/configuration"
	"github.com/armadaproject/foldbatch/internal/predictor"
)

// Run processes the Ready jobs of the configured batch until they are all terminal, the budget runs out or ctx is
// cancelled. Stopping early is not an error: the remaining jobs stay Ready for the next run.
func (a *App) Run(ctx *armadacontext.Context) error {
	config, err := a.loadConfig()
	if err != nil {
		return err
	}
	p, err := predictor.NewExecPredictor(config.Tool, a.Clock)
	if err != nil {
		return err
	}
	if err := p.CheckPrerequisites(); err != nil {
		return err
	}
	b := newBatch(config)
	states, err := a.checkInputs(config, b)
	if err != nil {
		return err
	}

	counts := batch.CountByStatus(states)
	ctx.Log.Infof("Found %d %s jobs in %s: %d done, %d ready, %d running, %d failed",
		len(states), config.Tool.Kind, config.Batch.InputDir,
		counts[batch.Done], counts[batch.Ready], counts[batch.Running], counts[batch.Error]+counts[batch.TimedOut])
	if a.Params.CleanupStale && counts[batch.Running] > 0 {
		removed, err := b.Reset(batch.StaleFilter)
		for _, r := range removed {
			ctx.Log.Infof("Removed stale running marker of %s", r.Job.Name)
		}
		if err != nil {
			return err
		}
	}

	metrics := batch.NewMetrics()
	runner := batch.NewRunner(b, p, batch.RunnerConfig{
		Budget:     config.Batch.Budget,
		JobTimeout: config.Batch.JobTimeout,
		MinJobTime: config.Batch.MinJobTime,
	}, a.Clock, metrics)
	if config.Batch.Budget > 0 {
		ctx.Log.Infof("Budget for this run is %s", config.Batch.Budget)
	}

	summary, err := runner.ProcessBatch(ctx)
	if err != nil {
		return err
	}
	states, err = b.State()
	if err != nil {
		return err
	}
	a.logSummary(ctx, summary, states)
	if err := writeMetrics(config, metrics, states, a.Clock.Now()); err != nil {
		logging.WithStacktrace(ctx.Log, err).Warn("Error writing metrics")
	}

	counts = batch.CountByStatus(states)
	if counts[batch.Ready] > 0 && summary.BudgetExhausted && a.Params.Resubmit {
		return a.resubmit(ctx, config)
	}
	return nil
}

// checkInputs returns the state of the batch, failing if there is nothing to run.
func (a *App) checkInputs(config configuration.FoldbatchConfig, b *batch.Batch) ([]batch.JobState, error) {
	states, err := b.State()
	if err != nil {
		return nil, err
	}
	if len(states) == 0 {
		return nil, &batch.MissingPrerequisiteError{
			Prerequisite: "job inputs",
			Path:         config.Batch.InputDir,
			Message:      fmt.Sprintf("no files match %s", config.Tool.InputPattern),
		}
	}
	return states, nil
}

func (a *App) logSummary(ctx *armadacontext.Context, summary *batch.Summary, states []batch.JobState) {
	counts := batch.CountByStatus(states)
	ctx.Log.Infof("This run: %d done, %d failed, %d timed out",
		summary.Recorded[batch.Done], summary.Recorded[batch.Error], summary.Recorded[batch.TimedOut])
	ctx.Log.Infof("Overall: %d/%d done, %d ready, %d failed, %d timed out, %d running",
		counts[batch.Done], len(states), counts[batch.Ready], counts[batch.Error], counts[batch.TimedOut], counts[batch.Running])

	switch {
	case counts[batch.Done] == len(states):
		ctx.Log.Info("All predictions are done")
	case summary.Interrupted:
		ctx.Log.Warn("Run was interrupted; run again to continue with the remaining predictions")
	case counts[batch.Ready] > 0:
		ctx.Log.Info("Run again, or submit another allocation, to continue with the remaining predictions")
	}
	if counts[batch.Error]+counts[batch.TimedOut] > 0 {
		ctx.Log.Info("Failed predictions run again after foldbatch reset-failed")
	}
	for _, job := range summary.Stale {
		ctx.Log.Warnf("%s has a running marker this run did not write; clear it with foldbatch cleanup if no other runner owns it", job.Name)
	}
}

func writeMetrics(config configuration.FoldbatchConfig, metrics *batch.Metrics, states []batch.JobState, now time.Time) error {
	if config.Metrics.TextfilePath == "" {
		return nil
	}
	metrics.RecordState(states, now)
	return errors.WithMessage(metrics.WriteTextfile(config.Metrics.TextfilePath), "error writing metrics textfile")
}
