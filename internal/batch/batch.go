package batch

import (
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Batch is the set of jobs found in the input directory together with the markers recording their progress. Nothing
// about the batch is held in memory between calls: every query re-reads the disk, since the process may be killed by
// the scheduler at any moment.
type Batch struct {
	discoverer *Discoverer
	markers    *MarkerStore
}

func New(discoverer *Discoverer, markers *MarkerStore) *Batch {
	return &Batch{
		discoverer: discoverer,
		markers:    markers,
	}
}

func (b *Batch) Discoverer() *Discoverer {
	return b.discoverer
}

func (b *Batch) Markers() *MarkerStore {
	return b.markers
}

// StatusOf returns the current status of a job.
func (b *Batch) StatusOf(job Job) (Status, error) {
	return b.markers.StatusOf(job)
}

// State returns every job of the batch with its current status, in discovery order.
func (b *Batch) State() ([]JobState, error) {
	jobs, err := b.discoverer.Jobs()
	if err != nil {
		return nil, err
	}
	states := make([]JobState, len(jobs))
	for i, job := range jobs {
		status, err := b.markers.StatusOf(job)
		if err != nil {
			return nil, err
		}
		states[i] = JobState{Job: job, Status: status}
	}
	return states, nil
}

// CountByStatus returns how many jobs are in each status. Every status is present in the result.
func CountByStatus(states []JobState) map[Status]int {
	counts := make(map[Status]int, len(statusNames))
	for _, status := range AllStatuses() {
		counts[status] = 0
	}
	for _, state := range states {
		counts[state.Status]++
	}
	return counts
}

// RemovedMarker identifies one marker removed by Reset.
type RemovedMarker struct {
	Job    Job
	Status Status
}

// Reset removes every marker whose kind is in filter, so that the affected jobs are Ready on the next ProcessBatch.
// Done markers can never be removed this way. Failures to remove individual markers do not stop the reset; they are
// returned together once every job has been visited.
func (b *Batch) Reset(filter StatusSet) ([]RemovedMarker, error) {
	if len(filter) == 0 {
		return nil, errors.New("no statuses selected to reset")
	}
	if filter.Contains(Done) || filter.Contains(Ready) {
		return nil, errors.Errorf("cannot reset %s: only Running, Error and TimedOut markers can be removed", filter)
	}

	jobs, err := b.discoverer.Jobs()
	if err != nil {
		return nil, err
	}

	var result *multierror.Error
	var removed []RemovedMarker
	for _, job := range jobs {
		for _, status := range markerPrecedence {
			if !filter.Contains(status) {
				continue
			}
			exists, err := b.markers.Exists(job, status)
			if err != nil {
				result = multierror.Append(result, err)
				continue
			}
			if !exists {
				continue
			}
			if err := b.markers.Clear(job, status); err != nil {
				result = multierror.Append(result, err)
				continue
			}
			removed = append(removed, RemovedMarker{Job: job, Status: status})
		}
	}
	return removed, result.ErrorOrNil()
}
