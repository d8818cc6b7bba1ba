package predictor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/utils/clock"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/armadaproject/foldbatch/internal/batch"
	"github.com/armadaproject/foldbatch/internal/common/armadacontext"
)

func shellConfig(script string) Config {
	return Config{
		Kind:         ColabFold,
		MarkerPrefix: "test",
		Command:      []string{"/bin/sh", "-c", script},
	}
}

func newTestJob(t *testing.T) batch.Job {
	t.Helper()
	root := t.TempDir()
	input := filepath.Join(root, "input", "complex_1.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(input), 0o755))
	require.NoError(t, os.WriteFile(input, []byte(`{"name":"complex_1"}`), 0o644))
	return batch.Job{Name: "complex_1", Input: input, OutputDir: filepath.Join(root, "output", "complex_1")}
}

func newTestPredictor(t *testing.T, config Config) *ExecPredictor {
	t.Helper()
	p, err := NewExecPredictor(config, clock.RealClock{})
	require.NoError(t, err)
	return p
}

func TestExecPredictor_Success(t *testing.T) {
	job := newTestJob(t)
	p := newTestPredictor(t, shellConfig(`echo "folding {{ .Name | upper }}"; echo written > "{{ .OutputDir }}/result.txt"`))

	result, err := p.Predict(armadacontext.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, "folding COMPLEX_1\n", result.Output)
	assert.FileExists(t, filepath.Join(job.OutputDir, "result.txt"))

	log, err := os.ReadFile(filepath.Join(job.OutputDir, "test.log"))
	require.NoError(t, err)
	assert.Contains(t, string(log), "folding COMPLEX_1")
}

func TestExecPredictor_NonZeroExit(t *testing.T) {
	job := newTestJob(t)
	p := newTestPredictor(t, shellConfig(`echo "out of memory" >&2; exit 3`))

	result, err := p.Predict(armadacontext.Background(), job)
	var execErr *batch.JobExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 3, execErr.ExitCode)
	assert.Equal(t, "out of memory\n", execErr.Output)
	assert.Equal(t, 3, result.ExitCode)
}

func TestExecPredictor_TimeoutKillsProcessGroup(t *testing.T) {
	job := newTestJob(t)
	p := newTestPredictor(t, shellConfig(`echo started; sleep 30; echo never`))
	ctx, cancel := armadacontext.WithTimeout(armadacontext.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := p.Predict(ctx, job)
	var timeoutErr *batch.JobTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Contains(t, timeoutErr.Output, "started")
	assert.NotContains(t, timeoutErr.Output, "never")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExecPredictor_Interrupted(t *testing.T) {
	job := newTestJob(t)
	p := newTestPredictor(t, shellConfig(`sleep 30`))
	ctx, cancel := armadacontext.WithCancel(armadacontext.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	_, err := p.Predict(ctx, job)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	var timeoutErr *batch.JobTimeoutError
	assert.False(t, errors.As(err, &timeoutErr))
}

func TestExecPredictor_ReportsProgress(t *testing.T) {
	job := newTestJob(t)
	release := filepath.Join(t.TempDir(), "release")
	config := shellConfig(`while [ ! -f "` + release + `" ]; do sleep 0.05; done`)
	config.ProgressInterval = time.Minute
	fakeClock := clocktesting.NewFakeClock(time.Now())
	p, err := NewExecPredictor(config, fakeClock)
	require.NoError(t, err)

	logger, hook := logtest.NewNullLogger()
	ctx := armadacontext.New(context.Background(), logrus.NewEntry(logger))
	done := make(chan error, 1)
	go func() {
		_, err := p.Predict(ctx, job)
		done <- err
	}()

	require.Eventually(t, fakeClock.HasWaiters, 5*time.Second, 10*time.Millisecond)
	fakeClock.Step(90 * time.Second)
	require.Eventually(t, func() bool {
		for _, entry := range hook.AllEntries() {
			if entry.Message == "Prediction still running after 1m30s" && entry.Data["tool"] == "sh" {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(release, nil, 0o644))
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("prediction did not finish")
	}
}

func TestExecPredictor_LaunchFailure(t *testing.T) {
	job := newTestJob(t)
	p := newTestPredictor(t, Config{Kind: ColabFold, Command: []string{filepath.Join(t.TempDir(), "missing")}})

	_, err := p.Predict(armadacontext.Background(), job)
	require.Error(t, err)
	var execErr *batch.JobExecutionError
	assert.False(t, errors.As(err, &execErr))
}

func TestExecPredictor_StagesInputAndCopiesResults(t *testing.T) {
	job := newTestJob(t)
	scratch := t.TempDir()
	config := shellConfig(`test "{{ .InputFile }}" = fold_input.json && cp "{{ .Input }}" "{{ .OutputDir }}/echo.json" && mkdir -p "{{ .OutputDir }}/seed-1" && echo ok > "{{ .OutputDir }}/seed-1/model.cif"`)
	config.StageInput = "fold_input.json"
	config.ScratchDir = scratch
	p := newTestPredictor(t, config)

	_, err := p.Predict(armadacontext.Background(), job)
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(job.OutputDir, "echo.json"))
	require.NoError(t, err)
	assert.Equal(t, `{"name":"complex_1"}`, string(content))
	assert.FileExists(t, filepath.Join(job.OutputDir, "seed-1", "model.cif"))

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch directory must be removed")
}

func TestExecPredictor_StagedResultsDiscardedOnFailure(t *testing.T) {
	job := newTestJob(t)
	scratch := t.TempDir()
	config := shellConfig(`echo partial > "{{ .OutputDir }}/partial.cif"; exit 1`)
	config.StageInput = "fold_input.json"
	config.ScratchDir = scratch
	p := newTestPredictor(t, config)

	_, err := p.Predict(armadacontext.Background(), job)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(job.OutputDir, "partial.cif"))

	entries, err := os.ReadDir(scratch)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExecPredictor_Env(t *testing.T) {
	job := newTestJob(t)
	config := shellConfig(`echo "$FOLD_SEED"`)
	config.Env = map[string]string{"fold_seed": "42"}
	p := newTestPredictor(t, config)

	result, err := p.Predict(armadacontext.Background(), job)
	require.NoError(t, err)
	assert.Equal(t, "42\n", result.Output)
}

func TestExecPredictor_InvalidTemplates(t *testing.T) {
	tests := map[string][]string{
		"unparseable":   {"tool", "{{ .Name "},
		"unknown field": {"tool", "{{ .Nope }}"},
		"empty command": {"{{ .Image }}"},
		"failing guard": {"/bin/sh", `{{ fail "tool.extra must be set" }}`},
	}
	for name, command := range tests {
		t.Run(name, func(t *testing.T) {
			p, err := NewExecPredictor(Config{Kind: ColabFold, Command: command}, clock.RealClock{})
			if err == nil {
				err = p.CheckPrerequisites()
			}
			assert.Error(t, err)
		})
	}
}

func TestExecPredictor_RenderFailsWithoutModelDir(t *testing.T) {
	p := newTestPredictor(t, Config{Kind: AlphaFold3, Image: "/images/af3.sif", DatabaseDir: "/db"})
	_, err := p.render(invocation{Name: "x", InputFile: "fold_input.json", Image: "/images/af3.sif", DatabaseDir: "/db"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool.modelDir must be set")
}

func TestExecPredictor_RendersProfileCommands(t *testing.T) {
	p := newTestPredictor(t, Config{Kind: AlphaFold3, Image: "/images/af3.sif", ModelDir: "/models", DatabaseDir: "/db"})
	args, err := p.render(invocation{Name: "x", Input: "/scratch/in/fold_input.json", InputFile: "fold_input.json", InputDir: "/scratch/in", OutputDir: "/scratch/out", ModelDir: "/models", DatabaseDir: "/db", Image: "/images/af3.sif"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"apptainer", "exec", "--nv",
		"--bind", "/scratch/in:/root/af_input",
		"--bind", "/scratch/out:/root/af_output",
		"--bind", "/models:/root/models",
		"--bind", "/db:/root/public_databases",
		"/images/af3.sif",
		"python", "/app/alphafold/run_alphafold.py",
		"--json_path=/root/af_input/fold_input.json",
		"--model_dir=/root/models",
		"--db_dir=/root/public_databases",
		"--output_dir=/root/af_output",
	}, args)

	p = newTestPredictor(t, Config{Kind: ColabFold})
	args, err = p.render(invocation{Name: "x", Input: "/in/x/x.fasta", OutputDir: "/out/x"})
	require.NoError(t, err)
	assert.Equal(t, []string{"colabfold_batch", "/in/x/x.fasta", "/out/x", "--model-type", "alphafold2_multimer_v3"}, args)
}
