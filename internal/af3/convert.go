package af3

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/armadaproject/foldbatch/internal/batch"
)

// FastaPattern matches ColabFold inputs both flat and in the one-directory-per-complex layout.
const FastaPattern = "**/*.fasta"

// Conversion is the outcome of converting one FASTA file.
type Conversion struct {
	Name    string
	Source  string
	Target  string
	Lengths []int
	// Skipped is set when the target already existed and overwriting was not requested.
	Skipped bool
	Err     error
}

// ConvertOptions controls ConvertAll.
type ConvertOptions struct {
	Seeds     []int
	Overwrite bool
}

// ConvertAll converts every ColabFold FASTA file under sourceDir into an AlphaFold3 input in destDir named after the
// file's stem. A file that fails to convert is reported in its Conversion and does not stop the others; the returned
// error is only for failures that prevent any conversion.
func ConvertAll(sourceDir, destDir string, opts ConvertOptions) ([]Conversion, error) {
	if _, err := os.Stat(sourceDir); err != nil {
		return nil, errors.Wrapf(err, "error reading FASTA directory %s", sourceDir)
	}
	jobs, err := batch.NewDiscoverer(sourceDir, destDir, FastaPattern).Jobs()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "error creating %s", destDir)
	}

	seeds := opts.Seeds
	if len(seeds) == 0 {
		seeds = []int{1}
	}
	conversions := make([]Conversion, 0, len(jobs))
	for _, job := range jobs {
		conversion := Conversion{
			Name:   job.Name,
			Source: job.Input,
			Target: filepath.Join(destDir, job.Name+".json"),
		}
		conversion.Lengths, conversion.Skipped, conversion.Err = convert(conversion.Source, conversion.Target, seeds, opts.Overwrite)
		conversions = append(conversions, conversion)
	}
	return conversions, nil
}

func convert(source, target string, seeds []int, overwrite bool) ([]int, bool, error) {
	if !overwrite {
		if _, err := os.Stat(target); err == nil {
			return nil, true, nil
		}
	}
	c, err := ReadComplexFile(source)
	if err != nil {
		return nil, false, err
	}
	in := NewInput(c, seeds)
	if err := in.WriteFile(target); err != nil {
		return nil, false, err
	}
	return in.ProteinLengths(), false, nil
}
