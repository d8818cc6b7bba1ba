package foldbatch

import (
	"fmt"

	"github.com/armadaproject/foldbatch/internal/batch"
)

// Cleanup removes Running markers, returning their jobs to Ready. It must only be used when no runner is working on
// the batch.
func (a *App) Cleanup() error {
	return a.reset(batch.StaleFilter, false)
}

// ResetFailed removes Error and TimedOut markers so that those jobs run again.
func (a *App) ResetFailed() error {
	return a.reset(batch.FailedFilter, false)
}

// CleanAll removes every marker except Done, after asking for confirmation.
func (a *App) CleanAll() error {
	return a.reset(batch.NotDoneFilter, true)
}

func (a *App) reset(filter batch.StatusSet, confirm bool) error {
	config, err := a.loadConfig()
	if err != nil {
		return err
	}
	b := newBatch(config)
	if confirm {
		ok, err := a.confirm(fmt.Sprintf("Remove all %s markers under %s?", filter, config.Batch.OutputDir))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.Out, "Aborted")
			return nil
		}
	}

	removed, err := b.Reset(filter)
	for _, r := range removed {
		fmt.Fprintf(a.Out, "Removed %s marker of %s\n", r.Status, r.Job.Name)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Reset %d jobs to %s\n", len(removed), batch.Ready)
	return nil
}
