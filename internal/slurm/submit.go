package slurm

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/pkg/errors"

	"github.com/armadaproject/foldbatch/internal/common/armadacontext"
)

// SubmittedJob identifies a job accepted by sbatch.
type SubmittedJob struct {
	ID      string
	Cluster string
}

func (j SubmittedJob) String() string {
	if j.Cluster == "" {
		return j.ID
	}
	return j.ID + " on cluster " + j.Cluster
}

// Submitter hands scripts to sbatch, retrying errors that indicate the controller is temporarily unavailable.
type Submitter struct {
	command  string
	attempts uint
	delay    time.Duration
	timeout  time.Duration
}

func NewSubmitter(config Config) *Submitter {
	s := &Submitter{
		command:  config.Command,
		attempts: config.Attempts,
		delay:    config.RetryDelay,
		timeout:  config.SubmitTimeout,
	}
	if s.command == "" {
		s.command = "sbatch"
	}
	if s.attempts == 0 {
		s.attempts = 1
	}
	return s
}

// SubmitError is returned when sbatch rejects a script.
type SubmitError struct {
	ExitCode int
	Stderr   string
}

func (err *SubmitError) Error() string {
	if err.Stderr == "" {
		return fmt.Sprintf("sbatch exited with code %d", err.ExitCode)
	}
	return fmt.Sprintf("sbatch exited with code %d: %s", err.ExitCode, err.Stderr)
}

// Transient reports whether the failure is worth retrying.
func (err *SubmitError) Transient() bool {
	stderr := strings.ToLower(err.Stderr)
	for _, s := range transientErrors {
		if strings.Contains(stderr, s) {
			return true
		}
	}
	return false
}

var transientErrors = []string{
	"socket timed out",
	"unable to contact slurm controller",
	"slurm_persist_conn_open",
	"resource temporarily unavailable",
	"try again",
	"connection refused",
}

// Submit submits script and returns the id of the new job.
func (s *Submitter) Submit(ctx *armadacontext.Context, script string) (SubmittedJob, error) {
	var job SubmittedJob
	err := retry.Do(
		func() error {
			out, err := s.sbatch(ctx, script)
			if err != nil {
				return err
			}
			job, err = ParseSubmittedJob(out)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(s.attempts),
		retry.Delay(s.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var submitErr *SubmitError
			return errors.As(err, &submitErr) && submitErr.Transient()
		}),
		retry.OnRetry(func(n uint, err error) {
			ctx.Log.WithError(err).Warnf("sbatch attempt %d of %d failed; retrying", n+1, s.attempts)
		}),
	)
	return job, err
}

func (s *Submitter) sbatch(ctx *armadacontext.Context, script string) (string, error) {
	runCtx := ctx
	var cancel context.CancelFunc = func() {}
	if s.timeout > 0 {
		runCtx, cancel = armadacontext.WithTimeout(ctx, s.timeout)
	}
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, s.command, "--parsable")
	cmd.Stdin = strings.NewReader(script)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return stdout.String(), nil
	case runCtx.Err() != nil && ctx.Err() == nil:
		// A hung sbatch is retried like a controller timeout.
		return "", &SubmitError{ExitCode: -1, Stderr: "socket timed out waiting for sbatch"}
	case errors.As(err, &exitErr):
		return "", &SubmitError{ExitCode: exitErr.ExitCode(), Stderr: strings.TrimSpace(stderr.String())}
	default:
		return "", errors.Wrapf(err, "error running %s", s.command)
	}
}

// ParseSubmittedJob parses the output of sbatch --parsable: "<id>" or "<id>;<cluster>".
func ParseSubmittedJob(out string) (SubmittedJob, error) {
	line := strings.TrimSpace(out)
	if i := strings.LastIndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[i+1:])
	}
	id, cluster, _ := strings.Cut(line, ";")
	if id == "" || strings.Trim(id, "0123456789_") != "" {
		return SubmittedJob{}, errors.Errorf("unexpected sbatch output %q", out)
	}
	return SubmittedJob{ID: id, Cluster: cluster}, nil
}
