package foldbatch

import (
	"fmt"

	"github.com/armadaproject/foldbatch/internal/batch"
	"github.com/armadaproject/foldbatch/internal/common/util"
)

// Status prints the number of jobs in each status, followed by the jobs that need attention: stale Running markers and
// failures.
func (a *App) Status() error {
	config, err := a.loadConfig()
	if err != nil {
		return err
	}
	states, err := newBatch(config).State()
	if err != nil {
		return err
	}

	fmt.Fprintf(a.Out, "Batch %s -> %s (%s)\n\n", config.Batch.InputDir, config.Batch.OutputDir, config.Tool.Kind)
	counts := batch.CountByStatus(states)
	table := util.NewTableBuilder()
	table.WriteRow("STATUS", "JOBS")
	for _, status := range batch.AllStatuses() {
		table.WriteRow(status, counts[status])
	}
	table.WriteRow("total", len(states))
	fmt.Fprint(a.Out, table.String())

	var running, failed []batch.JobState
	for _, state := range states {
		switch {
		case state.Status == batch.Running:
			running = append(running, state)
		case state.Status.IsFailure():
			failed = append(failed, state)
		}
	}
	if len(running) > 0 {
		fmt.Fprintf(a.Out, "\nRunning (stale unless a runner is working on the batch; clear with cleanup):\n")
		for _, state := range running {
			fmt.Fprintf(a.Out, "  %s\n", state.Job.Name)
		}
	}
	if len(failed) > 0 {
		fmt.Fprintf(a.Out, "\nFailed (run again after reset-failed):\n")
		for _, state := range failed {
			fmt.Fprintf(a.Out, "  %s\t%s\n", state.Job.Name, state.Status)
		}
	}
	return nil
}
