package batch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	clock "k8s.io/utils/clock/testing"

	"github.com/armadaproject/foldbatch/internal/common/armadacontext"
)

const testPrefix = "af3"

var testStart = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// predictFunc adapts a function to the Predictor interface.
type predictFunc func(ctx *armadacontext.Context, job Job) (*Result, error)

func (f predictFunc) Predict(ctx *armadacontext.Context, job Job) (*Result, error) {
	return f(ctx, job)
}

// recordingPredictor records the jobs it was invoked for and delegates to per-job behaviour, succeeding by default.
type recordingPredictor struct {
	mu       sync.Mutex
	calls    []string
	behavior map[string]predictFunc
}

func newRecordingPredictor() *recordingPredictor {
	return &recordingPredictor{behavior: map[string]predictFunc{}}
}

func (p *recordingPredictor) on(name string, f predictFunc) *recordingPredictor {
	p.behavior[name] = f
	return p
}

func (p *recordingPredictor) Predict(ctx *armadacontext.Context, job Job) (*Result, error) {
	p.mu.Lock()
	p.calls = append(p.calls, job.Name)
	f := p.behavior[job.Name]
	p.mu.Unlock()
	if f != nil {
		return f(ctx, job)
	}
	return &Result{}, nil
}

func (p *recordingPredictor) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func exitWith(code int) predictFunc {
	return func(*armadacontext.Context, Job) (*Result, error) {
		return &Result{ExitCode: code}, &JobExecutionError{ExitCode: code, Output: "boom"}
	}
}

// newTestBatch creates an input directory holding one JSON input per name and returns a batch over it.
func newTestBatch(t *testing.T, names ...string) *Batch {
	t.Helper()
	root := t.TempDir()
	inputDir := filepath.Join(root, "input")
	require.NoError(t, os.MkdirAll(inputDir, 0o755))
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(inputDir, name+".json"), []byte("{}"), 0o644))
	}
	return New(NewDiscoverer(inputDir, filepath.Join(root, "output"), "*.json"), NewMarkerStore(testPrefix))
}

func testJob(t *testing.T, b *Batch, name string) Job {
	t.Helper()
	jobs, err := b.Discoverer().Jobs()
	require.NoError(t, err)
	for _, job := range jobs {
		if job.Name == name {
			return job
		}
	}
	require.FailNowf(t, "missing job", "no job named %s", name)
	return Job{}
}

func statuses(t *testing.T, b *Batch) map[string]Status {
	t.Helper()
	states, err := b.State()
	require.NoError(t, err)
	result := make(map[string]Status, len(states))
	for _, state := range states {
		result[state.Job.Name] = state.Status
	}
	return result
}

func newTestRunner(b *Batch, predictor Predictor, config RunnerConfig, c *clock.FakeClock) *Runner {
	return NewRunner(b, predictor, config, c, NewMetrics())
}
