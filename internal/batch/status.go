package batch

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Status is the state of one job, derived from the marker files in its output directory.
type Status int

const (
	// Ready means no marker exists: the job has never started, or was explicitly reset.
	Ready Status = iota
	// Running is written immediately before the prediction tool starts. If it is still present when no runner is
	// working on the job, the runner that wrote it died without recording an outcome.
	Running
	Done
	Error
	TimedOut
)

var statusNames = map[Status]string{
	Ready:    "Ready",
	Running:  "Running",
	Done:     "Done",
	Error:    "Error",
	TimedOut: "TimedOut",
}

// markerSuffixes is the single mapping between statuses and marker file names. A job's marker for status s is
// "<prefix>.<markerSuffixes[s]>" inside its output directory. Ready has no marker.
var markerSuffixes = map[Status]string{
	Running:  "running",
	Done:     "done",
	Error:    "error",
	TimedOut: "timeout",
}

// markerPrecedence resolves the status of a job with more than one marker, which can only happen if a runner died
// between writing a terminal marker and removing its Running marker. Terminal markers win.
var markerPrecedence = []Status{Done, Error, TimedOut, Running}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// IsTerminal reports whether s ends an attempt.
func (s Status) IsTerminal() bool {
	return s == Done || s == Error || s == TimedOut
}

// IsFailure reports whether s is a terminal status that can be reset.
func (s Status) IsFailure() bool {
	return s == Error || s == TimedOut
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus parses a status name case-insensitively. Marker suffixes ("timeout", "done") are accepted too.
func ParseStatus(s string) (Status, error) {
	for status, name := range statusNames {
		if strings.EqualFold(s, name) {
			return status, nil
		}
	}
	for status, suffix := range markerSuffixes {
		if strings.EqualFold(s, suffix) {
			return status, nil
		}
	}
	return Ready, errors.Errorf("unknown status %q", s)
}

// AllStatuses returns every status in lifecycle order.
func AllStatuses() []Status {
	return []Status{Ready, Running, Done, Error, TimedOut}
}

// StatusSet is a set of statuses, used to select which markers a reset removes.
type StatusSet map[Status]bool

func NewStatusSet(statuses ...Status) StatusSet {
	set := make(StatusSet, len(statuses))
	for _, s := range statuses {
		set[s] = true
	}
	return set
}

func (s StatusSet) Contains(status Status) bool {
	return s[status]
}

func (s StatusSet) String() string {
	names := make([]string, 0, len(s))
	for _, status := range AllStatuses() {
		if s[status] {
			names = append(names, status.String())
		}
	}
	return "{" + strings.Join(names, ", ") + "}"
}

var (
	// StaleFilter selects Running markers left behind by a runner that no longer exists.
	StaleFilter = NewStatusSet(Running)
	// FailedFilter selects jobs that failed or timed out.
	FailedFilter = NewStatusSet(Error, TimedOut)
	// NotDoneFilter selects every marker except Done.
	NotDoneFilter = NewStatusSet(Running, Error, TimedOut)
)
