package batch

import (
	"time"

	"github.com/armadaproject/foldbatch/internal/common/armadacontext"
)

// Job is one prediction task. Jobs are created by discovery and never modified.
type Job struct {
	// Name is the stem of the input file and is unique within a batch.
	Name string
	// Input is the path of the input artifact, e.g. an AlphaFold3 JSON or a ColabFold FASTA file.
	Input string
	// OutputDir is where the prediction tool writes its results and where the job's markers live.
	OutputDir string
}

// JobState pairs a job with the status read from its markers.
type JobState struct {
	Job    Job
	Status Status
}

// Result is what a Predictor reports about a finished invocation.
type Result struct {
	ExitCode int
	Duration time.Duration
	// Output is a bounded tail of the tool's combined stdout and stderr.
	Output string
}

// Predictor runs the external prediction tool for one job and blocks until it exits.
// A nil error means the tool exited 0. A *JobExecutionError reports a non-zero exit and a *JobTimeoutError reports
// that ctx expired and the tool was killed.
type Predictor interface {
	Predict(ctx *armadacontext.Context, job Job) (*Result, error)
}
