package batch

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/armadaproject/foldbatch/internal/common/armadacontext"
	"github.com/armadaproject/foldbatch/internal/common/logging"
)

type RunnerConfig struct {
	// Budget is the wall-clock time this invocation may spend, usually the slot's wall time minus a safety margin.
	// Zero means unlimited.
	Budget time.Duration
	// JobTimeout bounds a single prediction. Zero means a job is bounded only by the remaining budget.
	JobTimeout time.Duration
	// MinJobTime is the least remaining budget worth starting a job with.
	MinJobTime time.Duration
}

// Runner processes the jobs of a batch one at a time within a wall-clock budget. The budget starts when the Runner is
// created; a Runner is meant to live for exactly one invocation.
type Runner struct {
	batch     *Batch
	predictor Predictor
	config    RunnerConfig
	clock     clock.PassiveClock
	metrics   *Metrics
	started   time.Time
	hostname  string
}

func NewRunner(batch *Batch, predictor Predictor, config RunnerConfig, clock clock.PassiveClock, metrics *Metrics) *Runner {
	hostname, _ := os.Hostname()
	return &Runner{
		batch:     batch,
		predictor: predictor,
		config:    config,
		clock:     clock,
		metrics:   metrics,
		started:   clock.Now(),
		hostname:  hostname,
	}
}

// Summary describes what one call to ProcessBatch did.
type Summary struct {
	// Recorded counts the terminal statuses written by this invocation.
	Recorded map[Status]int
	// Skipped counts jobs passed over because they were not Ready, by status.
	Skipped map[Status]int
	// Stale lists jobs with a Running marker that this invocation did not write.
	Stale []Job
	// BudgetExhausted is set when the batch stopped because the remaining budget ran out.
	BudgetExhausted bool
	// Interrupted is set when the batch stopped because its context was cancelled.
	Interrupted bool
}

func newSummary() *Summary {
	return &Summary{
		Recorded: make(map[Status]int),
		Skipped:  make(map[Status]int),
	}
}

// Attempted returns the number of jobs this invocation ran to a terminal status.
func (s *Summary) Attempted() int {
	n := 0
	for _, count := range s.Recorded {
		n += count
	}
	return n
}

// ProcessBatch runs every Ready job in discovery order. Done jobs are never run again. Jobs with Error or TimedOut
// markers wait for an explicit reset, and jobs with a Running marker are reported as stale and left alone.
//
// A failing job never stops the batch. The batch stops early, leaving the remaining jobs Ready for the next
// invocation, when the budget runs out or ctx is cancelled; neither is an error. Errors are returned only when the
// batch state itself cannot be read or written.
func (r *Runner) ProcessBatch(ctx *armadacontext.Context) (*Summary, error) {
	summary := newSummary()
	it := r.batch.discoverer.Discover()
	for job, ok := it.Next(); ok; job, ok = it.Next() {
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}
		log := ctx.Log.WithField("job", job.Name)

		status, err := r.batch.markers.StatusOf(job)
		if err != nil {
			return summary, err
		}
		if status != Ready {
			summary.Skipped[status]++
			switch status {
			case Running:
				summary.Stale = append(summary.Stale, job)
				log.Warn((&StaleRunningError{Job: job}).Error())
			case Error, TimedOut:
				log.Infof("Skipping %s: %s; reset it to run it again", job.Name, status)
			default:
				log.Debugf("Skipping %s: already done", job.Name)
			}
			continue
		}

		if r.budgetExhausted() {
			summary.BudgetExhausted = true
			log.Infof("Remaining budget %s is below the minimum of %s; leaving %s and later jobs for the next invocation",
				r.remaining().Round(time.Second), r.config.MinJobTime, job.Name)
			break
		}

		status, err = r.Run(ctx, job)
		if err != nil {
			var existsErr *MarkerExistsError
			if errors.As(err, &existsErr) {
				summary.Skipped[Running]++
				log.Warnf("Skipping %s: another runner started it first", job.Name)
				continue
			}
			return summary, err
		}
		summary.Recorded[status]++

		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}
	}
	if err := it.Err(); err != nil {
		return summary, err
	}
	return summary, nil
}

// Run executes one job: it writes the Running marker, invokes the predictor and replaces the Running marker with
// exactly one terminal marker. The returned error is non-nil only if a marker could not be written; the outcome of the
// prediction itself is the returned status.
func (r *Runner) Run(ctx *armadacontext.Context, job Job) (Status, error) {
	attempt := uuid.NewString()
	ctx = armadacontext.WithLogFields(ctx, logrus.Fields{"job": job.Name, "attempt": attempt})

	started := r.clock.Now()
	if err := r.batch.markers.MarkRunning(job, r.runningNote(attempt, started)); err != nil {
		return Running, err
	}

	timeout, limited := r.jobTimeout()
	var jobCtx *armadacontext.Context
	var cancel context.CancelFunc
	if limited {
		jobCtx, cancel = armadacontext.WithTimeout(ctx, timeout)
		ctx.Log.Infof("Starting prediction of %s with a timeout of %s", job.Input, timeout.Round(time.Second))
	} else {
		jobCtx, cancel = armadacontext.WithCancel(ctx)
		ctx.Log.Infof("Starting prediction of %s", job.Input)
	}
	result, predictErr := r.predictor.Predict(jobCtx, job)
	deadlineExceeded := errors.Is(jobCtx.Err(), context.DeadlineExceeded)
	cancel()
	duration := r.clock.Since(started)

	status, note := r.outcome(ctx, attempt, duration, timeout, result, predictErr, deadlineExceeded)
	if err := r.batch.markers.MarkTerminal(job, status, note); err != nil {
		return status, err
	}
	if r.metrics != nil {
		r.metrics.RecordJob(status, duration)
	}

	log := ctx.Log.WithField("duration", duration.Round(time.Second).String())
	switch status {
	case Done:
		log.Infof("Prediction of %s completed", job.Name)
	case TimedOut:
		log.WithError(predictErr).Warnf("Prediction of %s timed out", job.Name)
	default:
		logging.WithStacktrace(log, predictErr).Errorf("Prediction of %s failed", job.Name)
	}
	return status, nil
}

func (r *Runner) outcome(
	ctx *armadacontext.Context,
	attempt string,
	duration time.Duration,
	timeout time.Duration,
	result *Result,
	predictErr error,
	deadlineExceeded bool,
) (Status, string) {
	note := newNote()
	note.add("attempt", attempt)
	note.add("host", r.hostname)
	note.add("finished", r.clock.Now().Format(time.RFC3339))
	note.add("duration", duration.Round(time.Second).String())

	var timeoutErr *JobTimeoutError
	var execErr *JobExecutionError
	switch {
	case predictErr == nil:
		return Done, note.String()
	case ctx.Err() != nil:
		note.add("interrupted", ctx.Err().Error())
		return TimedOut, note.String()
	case errors.As(predictErr, &timeoutErr):
		note.add("timeout", timeoutErr.Timeout.String())
		note.output(timeoutErr.Output)
		return TimedOut, note.String()
	case deadlineExceeded:
		note.add("timeout", timeout.String())
		return TimedOut, note.String()
	case errors.As(predictErr, &execErr):
		note.add("exit code", fmt.Sprint(execErr.ExitCode))
		note.output(execErr.Output)
		return Error, note.String()
	default:
		note.add("error", predictErr.Error())
		if result != nil {
			note.output(result.Output)
		}
		return Error, note.String()
	}
}

func (r *Runner) runningNote(attempt string, started time.Time) string {
	note := newNote()
	note.add("attempt", attempt)
	note.add("host", r.hostname)
	note.add("pid", fmt.Sprint(os.Getpid()))
	note.add("started", started.Format(time.RFC3339))
	return note.String()
}

// jobTimeout returns the time the next job may take and whether it is limited at all.
func (r *Runner) jobTimeout() (time.Duration, bool) {
	timeout := r.config.JobTimeout
	if r.config.Budget > 0 {
		if remaining := r.remaining(); timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	return timeout, r.config.Budget > 0 || r.config.JobTimeout > 0
}

func (r *Runner) remaining() time.Duration {
	return r.config.Budget - r.clock.Since(r.started)
}

func (r *Runner) budgetExhausted() bool {
	return r.config.Budget > 0 && r.remaining() <= r.config.MinJobTime
}

// note builds the advisory content of a marker: "key: value" lines, optionally followed by the tool's output.
type note struct {
	sb strings.Builder
}

func newNote() *note {
	return &note{}
}

func (n *note) add(key, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(&n.sb, "%s: %s\n", key, value)
}

func (n *note) output(output string) {
	if output == "" {
		return
	}
	n.sb.WriteString("\noutput:\n")
	n.sb.WriteString(output)
	if !strings.HasSuffix(output, "\n") {
		n.sb.WriteString("\n")
	}
}

func (n *note) String() string {
	return n.sb.String()
}
