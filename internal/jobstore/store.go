// Package jobstore is the in-memory job registry: the single source of
// truth for job state while a process is alive. It never persists across
// restarts — the on-disk manifest under each job's directory is the durable
// record (see internal/fsys).
package jobstore

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/media-orchestrator/internal/domain"
)

// ErrNotFound is returned when a job id has no matching record.
type ErrNotFound struct{ ID string }

func (e *ErrNotFound) Error() string { return fmt.Sprintf("job %q not found", e.ID) }

// Store is a concurrency-safe registry of domain.Job records.
type Store struct {
	mu   sync.Mutex
	jobs map[string]*domain.Job
	// order preserves insertion order for List and for FIFO queue-position
	// accounting in the scheduler.
	order []string
}

func New() *Store {
	return &Store{jobs: make(map[string]*domain.Job)}
}

// Create registers a brand-new job with the status it already carries.
func (s *Store) Create(j *domain.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if j.Assets == nil {
		j.Assets = make(map[string]any)
	}
	s.jobs[j.ID] = j
	s.order = append(s.order, j.ID)
}

// Get returns a shallow clone of the job, safe for the caller to read
// without holding the store's lock.
func (s *Store) Get(id string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, &ErrNotFound{ID: id}
	}
	return j.Clone(), nil
}

// List returns clones of every job, oldest first.
func (s *Store) List() []*domain.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Job, 0, len(s.order))
	for _, id := range s.order {
		if j, ok := s.jobs[id]; ok {
			out = append(out, j.Clone())
		}
	}
	return out
}

// Patch is the set of fields an Update call may change. Nil/zero-value
// fields are left untouched, except where noted.
type Patch struct {
	Status       *domain.JobStatus
	Stage        *string
	Progress     *float64
	Message      *string
	ManifestURL  *string
	QueuePosition *int
	QueueSize    *int
	AppendErrors []domain.AdapterError
}

// Update atomically applies patch to job id. Transitioning into any
// non-QUEUED status stamps StartedAt if unset; transitioning
// into a terminal status stamps EndedAt. Progress is always clamped to
// [0, 1].
func (s *Store) Update(id string, patch Patch) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, &ErrNotFound{ID: id}
	}

	if patch.Status != nil {
		j.Status = *patch.Status
		now := time.Now().UTC()
		if j.StartedAt == nil && j.Status != domain.StatusQueued {
			j.StartedAt = &now
		}
		if j.Status.Terminal() && j.EndedAt == nil {
			j.EndedAt = &now
		}
	}
	if patch.Stage != nil {
		j.Stage = *patch.Stage
	}
	if patch.Progress != nil {
		j.Progress = domain.ClampProgress(*patch.Progress)
	}
	if patch.Message != nil {
		j.Message = *patch.Message
	}
	if patch.ManifestURL != nil {
		j.ManifestURL = *patch.ManifestURL
	}
	if patch.QueuePosition != nil {
		j.QueuePosition = *patch.QueuePosition
	}
	if patch.QueueSize != nil {
		j.QueueSize = *patch.QueueSize
	}
	if len(patch.AppendErrors) > 0 {
		j.Errors = append(j.Errors, patch.AppendErrors...)
	}

	return j.Clone(), nil
}

// AppendLog pushes a log line onto job id's ring.
func (s *Store) AppendLog(id string, line domain.LogLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return &ErrNotFound{ID: id}
	}
	j.AppendLog(line)
	return nil
}

// SetAsset records an artifact against job id's asset tree at dotPath (e.g.
// "scene.panorama"). A dot path merges into nested maps, creating
// intermediate levels as needed; a bare key overwrites flatly. This mirrors
// the merge-vs-overwrite split the manifest skeleton relies on: structured
// per-module output slots merge, ad hoc top-level keys overwrite.
func (s *Store) SetAsset(id, dotPath string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return &ErrNotFound{ID: id}
	}
	if j.Assets == nil {
		j.Assets = make(map[string]any)
	}
	parts := strings.Split(dotPath, ".")
	if len(parts) == 1 {
		j.Assets[dotPath] = value
		return nil
	}

	cur := j.Assets
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[p] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
	return nil
}

// Cancel marks a non-terminal job CANCELED. It is a no-op (returning the
// current job unchanged) if the job is already in a terminal state.
func (s *Store) Cancel(id string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, &ErrNotFound{ID: id}
	}
	if j.Status.Terminal() {
		return j.Clone(), nil
	}
	now := time.Now().UTC()
	j.Status = domain.StatusCanceled
	j.EndedAt = &now
	return j.Clone(), nil
}
