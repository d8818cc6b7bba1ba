package foldbatch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armadaproject/foldbatch/internal/af3"
)

func writeFasta(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestApp_Convert(t *testing.T) {
	env := newTestEnv(t, "true")
	fasta := filepath.Join(env.root, "fasta")
	writeFasta(t, filepath.Join(fasta, "P1_Q1", "P1_Q1.fasta"), ">P1_Q1\nMKTAY:GAV\n")
	writeFasta(t, filepath.Join(fasta, "P2_Q2.fasta"), ">P2_Q2\nMK\nTA:GG\n")
	writeFasta(t, filepath.Join(fasta, "bad", "bad.fasta"), ">bad\nMKTAYGAV\n")

	app, out := newTestApp(env, "")
	app.Params.FastaDir = fasta
	app.Params.Seeds = []int{1, 2}

	err := app.Convert()
	assert.EqualError(t, err, "1 FASTA files could not be converted")
	assert.Contains(t, out.String(), "Converted 2, skipped 0, failed 1 of 3 FASTA files from "+fasta)
	assert.Regexp(t, `(?m)^P1_Q1\s+5\+3\s+`, out.String())

	in, err := af3.ReadInputFile(filepath.Join(env.inputs, "P2_Q2.json"))
	require.NoError(t, err)
	assert.Equal(t, []int{4, 2}, in.ProteinLengths())
	assert.NoFileExists(t, filepath.Join(env.inputs, "bad.json"))

	// A second conversion leaves existing inputs alone.
	out.Reset()
	err = app.Convert()
	assert.Error(t, err)
	assert.Contains(t, out.String(), "Converted 0, skipped 2, failed 1")
}

func TestApp_Convert_Errors(t *testing.T) {
	env := newTestEnv(t, "true")

	app, _ := newTestApp(env, "")
	assert.EqualError(t, app.Convert(), "no FASTA directory given")

	app.Params.FastaDir = filepath.Join(env.root, "missing")
	assert.Error(t, app.Convert())

	app.Params.FastaDir = env.root
	app.Params.ConfigFiles = append(app.Params.ConfigFiles, env.override(t, "tool:\n  kind: colabfold\n"))
	assert.EqualError(t, app.Convert(), "convert writes alphafold3 inputs but tool.kind is colabfold")
}
