package batch

import (
	"fmt"
	"time"
)

// JobExecutionError is returned when the prediction tool exits with a non-zero code. The job is recorded as Error and
// the batch continues.
type JobExecutionError struct {
	ExitCode int
	// Output is a tail of the tool's output, kept for the error marker.
	Output string
}

func (err *JobExecutionError) Error() string {
	return fmt.Sprintf("prediction tool exited with code %d", err.ExitCode)
}

// JobTimeoutError is returned when the prediction tool outlives its allotted time and is killed. The job is recorded as
// TimedOut and the batch continues.
type JobTimeoutError struct {
	Timeout time.Duration
	Output  string
}

func (err *JobTimeoutError) Error() string {
	return fmt.Sprintf("prediction tool did not finish within %s", err.Timeout)
}

// StaleRunningError describes a Running marker found when no runner in this process is working on the job. The runner
// cannot tell a crashed run from one still in progress elsewhere, so this is only reported, never resolved.
type StaleRunningError struct {
	Job Job
}

func (err *StaleRunningError) Error() string {
	return fmt.Sprintf("job %s has a running marker but is not running in this invocation; "+
		"if no other runner owns it, clear it with cleanup", err.Job.Name)
}

// MissingPrerequisiteError is returned when something the batch needs before any job can run is absent. It aborts the
// invocation.
type MissingPrerequisiteError struct {
	// Prerequisite names what is missing, e.g. "model parameters".
	Prerequisite string
	Path         string
	Message      string
}

func (err *MissingPrerequisiteError) Error() string {
	s := fmt.Sprintf("missing prerequisite %s", err.Prerequisite)
	if err.Path != "" {
		s += fmt.Sprintf(" at %s", err.Path)
	}
	if err.Message != "" {
		s += fmt.Sprintf("; %s", err.Message)
	}
	return s
}

// DuplicateJobError is returned by discovery when two inputs map to the same job name.
type DuplicateJobError struct {
	Name   string
	Inputs []string
}

func (err *DuplicateJobError) Error() string {
	return fmt.Sprintf("inputs %v all map to job name %q", err.Inputs, err.Name)
}

// MarkerExistsError is returned when a Running marker cannot be created because one is already present.
type MarkerExistsError struct {
	Path string
}

func (err *MarkerExistsError) Error() string {
	return fmt.Sprintf("marker %s already exists", err.Path)
}
