package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/wishup-shore/booking-system-backend/internal/domain/batch"
	"github.com/wishup-shore/booking-system-backend/internal/domain/shared"
)

// errCancelledByRequest is the cancellation cause of jobs stopped via JobRegistry.Cancel
var errCancelledByRequest = errors.New("batch job cancelled by request")

// JobRegistry tracks the batch jobs this process is executing so they can be cancelled
type JobRegistry struct {
	mu   sync.Mutex
	jobs map[string]context.CancelCauseFunc
}

// NewJobRegistry creates an empty JobRegistry
func NewJobRegistry() *JobRegistry {
	return &JobRegistry{jobs: make(map[string]context.CancelCauseFunc)}
}

// register derives a context for jobID that only Cancel stops; the
// caller's cancellation is not inherited. The returned release func must
// be called when the job finishes.
func (r *JobRegistry) register(ctx context.Context, jobID string) (context.Context, func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, running := r.jobs[jobID]; running {
		return nil, nil, shared.NewDomainError("JOB_ALREADY_RUNNING", fmt.Sprintf("Batch job %s is already running", jobID))
	}

	jobCtx, cancel := context.WithCancelCause(context.WithoutCancel(ctx))
	r.jobs[jobID] = cancel

	release := func() {
		r.mu.Lock()
		delete(r.jobs, jobID)
		r.mu.Unlock()
		cancel(nil)
	}
	return jobCtx, release, nil
}

// Cancel stops the job: operations not yet started are skipped
func (r *JobRegistry) Cancel(jobID string) error {
	r.mu.Lock()
	cancel, ok := r.jobs[jobID]
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", batch.ErrJobNotRunning, jobID)
	}
	cancel(errCancelledByRequest)
	return nil
}

// IsRunning reports whether jobID is executing in this process
func (r *JobRegistry) IsRunning(jobID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.jobs[jobID]
	return ok
}

// Running returns the ids of the executing jobs, sorted
func (r *JobRegistry) Running() []string {
	r.mu.Lock()
	ids := make([]string, 0, len(r.jobs))
	for id := range r.jobs {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	sort.Strings(ids)
	return ids
}
