package batch

import (
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"
)

// MarkerStore reads and writes the marker files that persist job status. Existence of a marker is authoritative;
// content is advisory (timestamps, exit codes, output tails).
//
// Every write is a single atomic filesystem operation so that a runner killed at any point leaves either the previous
// marker set or the new one, never a half-written marker:
//   - Running is created by hard-linking a fully written temporary file, which fails if the marker already exists.
//   - Terminal markers are written to a temporary file and renamed into place, and only then is Running removed.
type MarkerStore struct {
	prefix string
}

func NewMarkerStore(prefix string) *MarkerStore {
	return &MarkerStore{prefix: prefix}
}

// Prefix returns the marker name prefix, e.g. "af3".
func (m *MarkerStore) Prefix() string {
	return m.prefix
}

// Path returns the marker path for the given job and status. Ready has no marker and returns "".
func (m *MarkerStore) Path(job Job, status Status) string {
	suffix, ok := markerSuffixes[status]
	if !ok {
		return ""
	}
	return filepath.Join(job.OutputDir, m.prefix+"."+suffix)
}

// StatusOf returns the job's current status. A job that has never started, including one whose output directory does
// not exist yet, is Ready. Only genuine I/O failures are returned as errors.
func (m *MarkerStore) StatusOf(job Job) (Status, error) {
	for _, status := range markerPrecedence {
		exists, err := m.Exists(job, status)
		if err != nil {
			return Ready, err
		}
		if exists {
			return status, nil
		}
	}
	return Ready, nil
}

// Exists reports whether the job has a marker for the given status.
func (m *MarkerStore) Exists(job Job, status Status) (bool, error) {
	path := m.Path(job, status)
	if path == "" {
		return false, nil
	}
	_, err := os.Lstat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist), isNotDir(err):
		return false, nil
	default:
		return false, errors.Wrapf(err, "error checking marker %s", path)
	}
}

// Read returns the advisory content of a marker, or "" if the marker does not exist.
func (m *MarkerStore) Read(job Job, status Status) (string, error) {
	path := m.Path(job, status)
	if path == "" {
		return "", nil
	}
	content, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrapf(err, "error reading marker %s", path)
	}
	return string(content), nil
}

// MarkRunning creates the job's Running marker with the given content. It returns a *MarkerExistsError if the
// marker is already present, so two runners can never both believe they own a job.
func (m *MarkerStore) MarkRunning(job Job, note string) error {
	if err := os.MkdirAll(job.OutputDir, 0o755); err != nil {
		return errors.Wrapf(err, "error creating output directory %s", job.OutputDir)
	}
	path := m.Path(job, Running)
	tmp, err := m.writeTemp(job, Running, note)
	if err != nil {
		return err
	}
	defer os.Remove(tmp)

	err = os.Link(tmp, path)
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrExist) {
		return &MarkerExistsError{Path: path}
	}
	// Some filesystems refuse hard links. Fall back to an exclusive create, which is still atomic with respect to
	// existence, the only property of the marker that matters.
	return m.createExclusive(path, note)
}

// MarkTerminal records a terminal status for the job and then removes its Running marker.
func (m *MarkerStore) MarkTerminal(job Job, status Status, note string) error {
	if !status.IsTerminal() {
		return errors.Errorf("%s is not a terminal status", status)
	}
	if err := os.MkdirAll(job.OutputDir, 0o755); err != nil {
		return errors.Wrapf(err, "error creating output directory %s", job.OutputDir)
	}
	tmp, err := m.writeTemp(job, status, note)
	if err != nil {
		return err
	}
	path := m.Path(job, status)
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "error writing marker %s", path)
	}
	return m.Clear(job, Running)
}

// Clear removes the job's marker for the given status. A missing marker is not an error.
func (m *MarkerStore) Clear(job Job, status Status) error {
	path := m.Path(job, status)
	if path == "" {
		return nil
	}
	err := os.Remove(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) || isNotDir(err) {
		return nil
	}
	return errors.Wrapf(err, "error removing marker %s", path)
}

func (m *MarkerStore) writeTemp(job Job, status Status, note string) (string, error) {
	f, err := os.CreateTemp(job.OutputDir, "."+m.prefix+"."+markerSuffixes[status]+".*")
	if err != nil {
		return "", errors.Wrapf(err, "error creating temporary marker in %s", job.OutputDir)
	}
	_, writeErr := f.WriteString(note)
	if writeErr == nil {
		writeErr = f.Sync()
	}
	closeErr := f.Close()
	if writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		_ = os.Remove(f.Name())
		return "", errors.Wrapf(writeErr, "error writing temporary marker %s", f.Name())
	}
	return f.Name(), nil
}

func (m *MarkerStore) createExclusive(path string, note string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return &MarkerExistsError{Path: path}
	}
	if err != nil {
		return errors.Wrapf(err, "error creating marker %s", path)
	}
	_, err = f.WriteString(note)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	return errors.Wrapf(err, "error writing marker %s", path)
}

// isNotDir reports whether a path lookup failed because a parent is not a directory, which for a marker means the
// job's output location has never been created as a directory.
func isNotDir(err error) bool {
	return errors.Is(err, syscall.ENOTDIR)
}
