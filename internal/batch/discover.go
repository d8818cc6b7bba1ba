package batch

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mattn/go-zglob"
	"github.com/pkg/errors"
)

// Discoverer enumerates the jobs of a batch from the input directory. Each input file matching the pattern is one job,
// named by the file's stem, with its output directory at <outputDir>/<name>.
type Discoverer struct {
	inputDir  string
	outputDir string
	pattern   string
}

// NewDiscoverer returns a Discoverer for inputs matching pattern, relative to inputDir. The pattern may use "**" to
// match nested directories, e.g. "**/*.fasta" for one directory per job.
func NewDiscoverer(inputDir, outputDir, pattern string) *Discoverer {
	return &Discoverer{
		inputDir:  inputDir,
		outputDir: outputDir,
		pattern:   pattern,
	}
}

func (d *Discoverer) InputDir() string {
	return d.inputDir
}

func (d *Discoverer) OutputDir() string {
	return d.outputDir
}

// Discover returns an iterator over the batch. Nothing is read until the first call to Next, and every call to Discover
// starts a fresh pass over whatever is on disk at that time.
func (d *Discoverer) Discover() *JobIterator {
	return &JobIterator{discoverer: d}
}

// Jobs returns every job of the batch in discovery order.
func (d *Discoverer) Jobs() ([]Job, error) {
	it := d.Discover()
	var jobs []Job
	for job, ok := it.Next(); ok; job, ok = it.Next() {
		jobs = append(jobs, job)
	}
	return jobs, it.Err()
}

func (d *Discoverer) load() ([]Job, error) {
	matches, err := zglob.Glob(filepath.Join(d.inputDir, d.pattern))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrapf(err, "error listing inputs matching %s in %s", d.pattern, d.inputDir)
	}

	inputsByName := make(map[string][]string, len(matches))
	for _, match := range matches {
		info, err := os.Stat(match)
		if err != nil {
			return nil, errors.Wrapf(err, "error reading input %s", match)
		}
		if !info.Mode().IsRegular() {
			continue
		}
		inputsByName[JobName(match)] = append(inputsByName[JobName(match)], match)
	}

	jobs := make([]Job, 0, len(inputsByName))
	for name, inputs := range inputsByName {
		if len(inputs) > 1 {
			sort.Strings(inputs)
			return nil, &DuplicateJobError{Name: name, Inputs: inputs}
		}
		jobs = append(jobs, Job{
			Name:      name,
			Input:     inputs[0],
			OutputDir: filepath.Join(d.outputDir, name),
		})
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].Name < jobs[j].Name
	})
	return jobs, nil
}

// JobName returns the job name for an input path: its base name without the final extension.
func JobName(input string) string {
	base := filepath.Base(input)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// JobIterator is a single pass over a batch in lexicographic order of job name.
type JobIterator struct {
	discoverer *Discoverer
	jobs       []Job
	pos        int
	loaded     bool
	err        error
}

// Next returns the next job, or false once the batch is exhausted or discovery failed. Check Err after the loop.
func (it *JobIterator) Next() (Job, bool) {
	if !it.loaded {
		it.jobs, it.err = it.discoverer.load()
		it.loaded = true
	}
	if it.err != nil || it.pos >= len(it.jobs) {
		return Job{}, false
	}
	job := it.jobs[it.pos]
	it.pos++
	return job, true
}

// Err returns the error, if any, that stopped discovery.
func (it *JobIterator) Err() error {
	return it.err
}
