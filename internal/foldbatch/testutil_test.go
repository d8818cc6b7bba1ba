package foldbatch

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	clock "k8s.io/utils/clock/testing"

	"github.com/armadaproject/foldbatch/internal/batch"
)

var testStart = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

// testEnv is a batch laid out in a temporary directory with a config file pointing at it.
type testEnv struct {
	root    string
	inputs  string
	outputs string
	config  string
}

// newTestEnv creates a batch with one AlphaFold3 input per name whose tool is the given shell script.
func newTestEnv(t *testing.T, script string, names ...string) testEnv {
	t.Helper()
	root := t.TempDir()
	env := testEnv{
		root:    root,
		inputs:  filepath.Join(root, "inputs"),
		outputs: filepath.Join(root, "outputs"),
		config:  filepath.Join(root, "foldbatch.yaml"),
	}
	require.NoError(t, os.MkdirAll(env.inputs, 0o755))
	for _, name := range names {
		input := fmt.Sprintf(`{"name": %q, "sequences": [{"protein": {"id": ["A"], "sequence": "MKT"}}, `+
			`{"protein": {"id": ["B"], "sequence": "GA"}}], "modelSeeds": [1], "dialect": "alphafold3", "version": 1}`, name)
		require.NoError(t, os.WriteFile(filepath.Join(env.inputs, name+".json"), []byte(input), 0o644))
	}

	config := fmt.Sprintf(`tool:
  kind: alphafold3
  image: ""
  modelDir: %q
  databaseDir: %q
  command: ["/bin/sh", "-c", %q]
batch:
  inputDir: %q
  outputDir: %q
`, root, root, script, env.inputs, env.outputs)
	require.NoError(t, os.WriteFile(env.config, []byte(config), 0o644))
	return env
}

// override writes a config file to be merged over the environment's own and returns its path.
func (env testEnv) override(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp(env.root, "override-*.yaml")
	require.NoError(t, err)
	defer f.Close()
	_, err = f.WriteString(content)
	require.NoError(t, err)
	return f.Name()
}

func (env testEnv) batch() *batch.Batch {
	return batch.New(batch.NewDiscoverer(env.inputs, env.outputs, "*.json"), batch.NewMarkerStore("af3"))
}

func (env testEnv) statuses(t *testing.T) map[string]batch.Status {
	t.Helper()
	states, err := env.batch().State()
	require.NoError(t, err)
	result := make(map[string]batch.Status, len(states))
	for _, state := range states {
		result[state.Job.Name] = state.Status
	}
	return result
}

func (env testEnv) mark(t *testing.T, name string, status batch.Status) {
	t.Helper()
	b := env.batch()
	jobs, err := b.Discoverer().Jobs()
	require.NoError(t, err)
	for _, job := range jobs {
		if job.Name != name {
			continue
		}
		if status == batch.Running {
			require.NoError(t, b.Markers().MarkRunning(job, ""))
		} else {
			require.NoError(t, b.Markers().MarkTerminal(job, status, "exit code: 1\n"))
		}
		return
	}
	require.FailNowf(t, "missing job", "no job named %s", name)
}

func newTestApp(env testEnv, input string) (*App, *bytes.Buffer) {
	out := new(bytes.Buffer)
	return &App{
		Params:     &Params{ConfigFiles: []string{env.config}},
		Out:        out,
		In:         strings.NewReader(input),
		Clock:      clock.NewFakeClock(testStart),
		Executable: "/opt/foldbatch/bin/foldbatch",
	}, out
}
