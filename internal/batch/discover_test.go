package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInputs(t *testing.T, dir string, paths ...string) {
	t.Helper()
	for _, path := range paths {
		full := filepath.Join(dir, path)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(">a\nMK\n"), 0o644))
	}
}

func jobNames(jobs []Job) []string {
	names := make([]string, len(jobs))
	for i, job := range jobs {
		names[i] = job.Name
	}
	return names
}

func TestDiscoverer_Jobs(t *testing.T) {
	tests := map[string]struct {
		files    []string
		pattern  string
		expected []string
	}{
		"sorted by name": {
			files:    []string{"c.json", "a.json", "b.json"},
			pattern:  "*.json",
			expected: []string{"a", "b", "c"},
		},
		"other extensions ignored": {
			files:    []string{"a.json", "notes.txt", "b.json"},
			pattern:  "*.json",
			expected: []string{"a", "b"},
		},
		"nested fasta": {
			files:    []string{"p2/p2.fasta", "p1/p1.fasta", "top.fasta"},
			pattern:  "**/*.fasta",
			expected: []string{"p1", "p2", "top"},
		},
		"empty": {
			pattern:  "*.json",
			expected: []string{},
		},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			root := t.TempDir()
			writeInputs(t, filepath.Join(root, "in"), tc.files...)
			require.NoError(t, os.MkdirAll(filepath.Join(root, "in"), 0o755))

			jobs, err := NewDiscoverer(filepath.Join(root, "in"), filepath.Join(root, "out"), tc.pattern).Jobs()
			require.NoError(t, err)
			assert.Equal(t, tc.expected, append([]string{}, jobNames(jobs)...))
			for _, job := range jobs {
				assert.Equal(t, filepath.Join(root, "out", job.Name), job.OutputDir)
				assert.FileExists(t, job.Input)
			}
		})
	}
}

func TestDiscoverer_MissingInputDir(t *testing.T) {
	jobs, err := NewDiscoverer(filepath.Join(t.TempDir(), "missing"), t.TempDir(), "*.json").Jobs()
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestDiscoverer_DuplicateNames(t *testing.T) {
	root := t.TempDir()
	writeInputs(t, root, "x/a.fasta", "y/a.fasta")

	_, err := NewDiscoverer(root, t.TempDir(), "**/*.fasta").Jobs()
	var dupErr *DuplicateJobError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "a", dupErr.Name)
	assert.Len(t, dupErr.Inputs, 2)
}

func TestDiscoverer_DirectoriesIgnored(t *testing.T) {
	root := t.TempDir()
	writeInputs(t, root, "a.json")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "b.json"), 0o755))

	jobs, err := NewDiscoverer(root, t.TempDir(), "*.json").Jobs()
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, jobNames(jobs))
}

func TestDiscoverer_IteratorIsLazy(t *testing.T) {
	root := t.TempDir()
	d := NewDiscoverer(root, t.TempDir(), "*.json")
	it := d.Discover()
	writeInputs(t, root, "late.json")

	job, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, "late", job.Name)
	_, ok = it.Next()
	assert.False(t, ok)
	assert.NoError(t, it.Err())
}

func TestJobName(t *testing.T) {
	assert.Equal(t, "protein_1", JobName("/in/protein_1.json"))
	assert.Equal(t, "complex.v2", JobName("complex.v2.fasta"))
	assert.Equal(t, "noext", JobName("dir/noext"))
}

func TestBatch_MarkersNextToInputs(t *testing.T) {
	dir := t.TempDir()
	writeInputs(t, dir, "P1_Q1/P1_Q1.fasta", "P2_Q2/P2_Q2.fasta", "P3_Q3/P3_Q3.fasta")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "P1_Q1", "colab.done"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "P1_Q1", "P1_Q1_scores_rank_001.json"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "P2_Q2", "colab.running"), nil, 0o644))

	b := New(NewDiscoverer(dir, dir, "**/*.fasta"), NewMarkerStore("colab"))
	states, err := b.State()
	require.NoError(t, err)
	require.Len(t, states, 3)
	assert.Equal(t, filepath.Join(dir, "P1_Q1"), states[0].Job.OutputDir)
	assert.Equal(t, Done, states[0].Status)
	assert.Equal(t, Running, states[1].Status)
	assert.Equal(t, Ready, states[2].Status)

	require.NoError(t, b.Markers().MarkTerminal(states[2].Job, Error, "exit code: 1\n"))
	assert.FileExists(t, filepath.Join(dir, "P3_Q3", "colab.error"))
	assert.FileExists(t, filepath.Join(dir, "P3_Q3", "P3_Q3.fasta"))
}
