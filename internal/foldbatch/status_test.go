package foldbatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/foldbatch/internal/batch"
)

// seed leaves a batch with one job in each status.
func seed(t *testing.T) testEnv {
	t.Helper()
	env := newTestEnv(t, "true", "a", "b", "c", "d", "e")
	env.mark(t, "a", batch.Done)
	env.mark(t, "b", batch.Error)
	env.mark(t, "c", batch.TimedOut)
	env.mark(t, "d", batch.Running)
	return env
}

func TestApp_Status(t *testing.T) {
	env := seed(t)
	app, out := newTestApp(env, "")

	require.NoError(t, app.Status())
	assert.Contains(t, out.String(), env.inputs+" -> "+env.outputs+" (alphafold3)")
	assert.Regexp(t, `(?m)^Ready\s+1$`, out.String())
	assert.Regexp(t, `(?m)^Running\s+1$`, out.String())
	assert.Regexp(t, `(?m)^TimedOut\s+1$`, out.String())
	assert.Regexp(t, `(?m)^total\s+5$`, out.String())
	assert.Contains(t, out.String(), "Running (stale unless a runner is working on the batch; clear with cleanup):\n  d\n")
	assert.Contains(t, out.String(), "  b\tError\n")
	assert.Contains(t, out.String(), "  c\tTimedOut\n")
}

func TestApp_Reset(t *testing.T) {
	tests := map[string]struct {
		reset    func(*App) error
		input    string
		yes      bool
		expected map[string]batch.Status
	}{
		"cleanup": {
			reset: (*App).Cleanup,
			expected: map[string]batch.Status{
				"a": batch.Done, "b": batch.Error, "c": batch.TimedOut, "d": batch.Ready, "e": batch.Ready,
			},
		},
		"reset-failed": {
			reset: (*App).ResetFailed,
			expected: map[string]batch.Status{
				"a": batch.Done, "b": batch.Ready, "c": batch.Ready, "d": batch.Running, "e": batch.Ready,
			},
		},
		"clean-all confirmed": {
			reset: (*App).CleanAll,
			input: "y\n",
			expected: map[string]batch.Status{
				"a": batch.Done, "b": batch.Ready, "c": batch.Ready, "d": batch.Ready, "e": batch.Ready,
			},
		},
		"clean-all with yes": {
			reset: (*App).CleanAll,
			yes:   true,
			expected: map[string]batch.Status{
				"a": batch.Done, "b": batch.Ready, "c": batch.Ready, "d": batch.Ready, "e": batch.Ready,
			},
		},
		"clean-all declined": {
			reset: (*App).CleanAll,
			input: "n\n",
			expected: map[string]batch.Status{
				"a": batch.Done, "b": batch.Error, "c": batch.TimedOut, "d": batch.Running, "e": batch.Ready,
			},
		},
		"clean-all without answer": {
			reset: (*App).CleanAll,
			expected: map[string]batch.Status{
				"a": batch.Done, "b": batch.Error, "c": batch.TimedOut, "d": batch.Running, "e": batch.Ready,
			},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			env := seed(t)
			app, _ := newTestApp(env, tc.input)
			app.Params.Yes = tc.yes

			require.NoError(t, tc.reset(app))
			assert.Equal(t, tc.expected, env.statuses(t))
		})
	}
}

func TestApp_ResetFailed_Output(t *testing.T) {
	env := seed(t)
	app, out := newTestApp(env, "")

	require.NoError(t, app.ResetFailed())
	assert.Equal(t, "Removed Error marker of b\nRemoved TimedOut marker of c\nReset 2 jobs to Ready\n", out.String())
}

func TestApp_CleanAll_Prompt(t *testing.T) {
	env := seed(t)
	app, out := newTestApp(env, "no\n")

	require.NoError(t, app.CleanAll())
	assert.Equal(t, "Remove all {Running, Error, TimedOut} markers under "+env.outputs+"? [y/N]: Aborted\n", out.String())
}
