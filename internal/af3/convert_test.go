package af3

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestChainID(t *testing.T) {
	for i, expected := range map[int]string{0: "A", 1: "B", 25: "Z", 26: "AA", 27: "BA", 51: "ZA", 52: "AB"} {
		assert.Equal(t, expected, ChainID(i), i)
	}
}

func TestNewInput_MatchesAlphaFold3Format(t *testing.T) {
	in := NewInput(&Complex{Name: "A_B", Chains: []string{"MK", "GAV"}}, []int{1})
	content, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"name": "A_B",
		"sequences": [
			{"protein": {"id": ["A"], "sequence": "MK"}},
			{"protein": {"id": ["B"], "sequence": "GAV"}}
		],
		"modelSeeds": [1],
		"dialect": "alphafold3",
		"version": 1
	}`, string(content))
	assert.Equal(t, []int{2, 3}, in.ProteinLengths())
}

func TestInput_WriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.json")
	in := NewInput(&Complex{Name: "x", Chains: []string{"MK", "GA"}}, []int{1, 2})
	require.NoError(t, in.WriteFile(path))

	read, err := ReadInputFile(path)
	require.NoError(t, err)
	assert.Equal(t, in, read)

	writeFile(t, path, "{not json")
	_, err = ReadInputFile(path)
	assert.Error(t, err)
}

func TestConvertAll(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "fastas")
	dst := filepath.Join(root, "inputs")
	writeFile(t, filepath.Join(src, "P1_Q1", "P1_Q1.fasta"), ">P1_Q1\nMKT:GA\n")
	writeFile(t, filepath.Join(src, "P2_Q2", "P2_Q2.fasta"), ">P2_Q2\nMKTGA\n")
	writeFile(t, filepath.Join(src, "P3_Q3.fasta"), ">P3_Q3\nM:G\n")

	conversions, err := ConvertAll(src, dst, ConvertOptions{})
	require.NoError(t, err)
	require.Len(t, conversions, 3)

	assert.Equal(t, "P1_Q1", conversions[0].Name)
	assert.NoError(t, conversions[0].Err)
	assert.Equal(t, []int{3, 2}, conversions[0].Lengths)
	assert.Error(t, conversions[1].Err, "a bad file is reported, not fatal")
	assert.NoError(t, conversions[2].Err)

	in, err := ReadInputFile(filepath.Join(dst, "P1_Q1.json"))
	require.NoError(t, err)
	assert.Equal(t, []int{1}, in.ModelSeeds)
	assert.NoFileExists(t, filepath.Join(dst, "P2_Q2.json"))
	assert.FileExists(t, filepath.Join(dst, "P3_Q3.json"))
}

func TestConvertAll_SkipsExistingUnlessOverwrite(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "fastas")
	dst := filepath.Join(root, "inputs")
	writeFile(t, filepath.Join(src, "x.fasta"), ">x\nMK:GA\n")
	writeFile(t, filepath.Join(dst, "x.json"), "edited by hand")

	conversions, err := ConvertAll(src, dst, ConvertOptions{})
	require.NoError(t, err)
	require.Len(t, conversions, 1)
	assert.True(t, conversions[0].Skipped)
	content, err := os.ReadFile(filepath.Join(dst, "x.json"))
	require.NoError(t, err)
	assert.Equal(t, "edited by hand", string(content))

	conversions, err = ConvertAll(src, dst, ConvertOptions{Overwrite: true, Seeds: []int{7}})
	require.NoError(t, err)
	assert.False(t, conversions[0].Skipped)
	in, err := ReadInputFile(filepath.Join(dst, "x.json"))
	require.NoError(t, err)
	assert.Equal(t, []int{7}, in.ModelSeeds)
}

func TestConvertAll_MissingSource(t *testing.T) {
	_, err := ConvertAll(filepath.Join(t.TempDir(), "missing"), t.TempDir(), ConvertOptions{})
	assert.Error(t, err)
}
