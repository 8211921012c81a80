// Package scheduler runs queued jobs stage-by-stage: one FIFO queue feeding
// a fixed worker pool, a single GPU semaphore shared by every GPU-bound
// adapter, and a per-provider semaphore capping how many jobs may use the
// same external provider at once. Each job runs its fixed linear stage
// list front to back rather than a general DAG.
package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/yungbote/media-orchestrator/internal/adapter"
	"github.com/yungbote/media-orchestrator/internal/clients/gcp"
	"github.com/yungbote/media-orchestrator/internal/domain"
	"github.com/yungbote/media-orchestrator/internal/eventbus"
	"github.com/yungbote/media-orchestrator/internal/fsys"
	"github.com/yungbote/media-orchestrator/internal/jobstore"
	"github.com/yungbote/media-orchestrator/internal/platform/logger"
	"github.com/yungbote/media-orchestrator/internal/reporter"
)

// Scheduler owns the FIFO job queue and the resource gates every running
// job's adapters contend for.
type Scheduler struct {
	store    *jobstore.Store
	bus      *eventbus.Bus
	registry *adapter.Registry
	log      *logger.Logger
	rootDir  string

	queue       chan string
	concurrency int

	gpuSem *semaphore.Weighted

	providerMu  sync.Mutex
	providerSem map[string]*semaphore.Weighted

	cancelMu sync.Mutex
	cancels  map[string]context.CancelFunc

	queueMu sync.Mutex
	pending []string

	bucket gcp.BucketService
}

// New builds a Scheduler. concurrency is the worker pool size (how many
// jobs may run simultaneously, independent of adapter-level gates);
// gpuCapacity bounds concurrent GPU-bound adapter runs across the whole
// pool (values below 1 are raised to 1).
func New(store *jobstore.Store, bus *eventbus.Bus, registry *adapter.Registry, log *logger.Logger, rootDir string, concurrency, gpuCapacity int) *Scheduler {
	if concurrency < 1 {
		concurrency = 1
	}
	if gpuCapacity < 1 {
		gpuCapacity = 1
	}
	return &Scheduler{
		store:       store,
		bus:         bus,
		registry:    registry,
		log:         log.With("component", "scheduler"),
		rootDir:     rootDir,
		queue:       make(chan string, 4096),
		concurrency: concurrency,
		gpuSem:      semaphore.NewWeighted(int64(gpuCapacity)),
		providerSem: make(map[string]*semaphore.Weighted),
		cancels:     make(map[string]context.CancelFunc),
	}
}

// SetBucket attaches a BucketService used to mirror a job's directory to
// GCS once its terminal manifest is written. Nil (the default) disables
// mirroring entirely.
func (s *Scheduler) SetBucket(b gcp.BucketService) {
	s.bucket = b
}

// Enqueue appends jobID to the FIFO queue and broadcasts the new queue
// positions to every queued job's subscribers.
func (s *Scheduler) Enqueue(jobID string) {
	s.queueMu.Lock()
	s.pending = append(s.pending, jobID)
	s.queueMu.Unlock()

	s.broadcastQueuePositions()
	s.queue <- jobID
}

// Start launches the worker pool and blocks until ctx is canceled and
// every in-flight job has returned.
func (s *Scheduler) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < s.concurrency; i++ {
		g.Go(func() error {
			return s.workerLoop(gctx)
		})
	}
	return g.Wait()
}

func (s *Scheduler) workerLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case jobID, ok := <-s.queue:
			if !ok {
				return nil
			}
			s.dequeue(jobID)
			s.runJob(ctx, jobID)
		}
	}
}

func (s *Scheduler) dequeue(jobID string) {
	s.queueMu.Lock()
	for i, id := range s.pending {
		if id == jobID {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			break
		}
	}
	s.queueMu.Unlock()
	s.broadcastQueuePositions()
}

func (s *Scheduler) broadcastQueuePositions() {
	s.queueMu.Lock()
	ids := append([]string(nil), s.pending...)
	s.queueMu.Unlock()

	size := len(ids)
	for i, id := range ids {
		pos := i + 1
		patch := jobstore.Patch{QueuePosition: &pos, QueueSize: &size}
		if _, err := s.store.Update(id, patch); err != nil {
			continue
		}
		s.bus.Publish(eventbus.Event{
			JobID: id,
			Name:  eventbus.EventStatus,
			Data:  map[string]any{"status": domain.StatusQueued, "queue_position": pos, "queue_size": size},
		})
	}
}

// Cancel requests cancellation of jobID. If it's still queued it's removed
// and marked CANCELED directly; if it's running, its context is canceled
// and the worker marks it CANCELED when the current stage returns or at
// the next stage boundary, whichever comes first.
func (s *Scheduler) Cancel(jobID string) error {
	s.cancelMu.Lock()
	cancel, running := s.cancels[jobID]
	s.cancelMu.Unlock()

	if running {
		cancel()
		return nil
	}

	s.dequeue(jobID)
	_, err := s.store.Cancel(jobID)
	return err
}

func (s *Scheduler) runJob(parent context.Context, jobID string) {
	job, err := s.store.Get(jobID)
	if err != nil {
		s.log.Warn("runJob: job vanished", "job_id", jobID, "error", err)
		return
	}
	if job.Status.Terminal() {
		return
	}

	ctx, cancel := context.WithCancel(parent)
	s.cancelMu.Lock()
	s.cancels[jobID] = cancel
	s.cancelMu.Unlock()
	defer func() {
		cancel()
		s.cancelMu.Lock()
		delete(s.cancels, jobID)
		s.cancelMu.Unlock()
	}()

	rep := reporter.New(jobID, s.store, s.bus, s.log)
	jobDir := fsys.JobDir(s.rootDir, jobID)

	for _, stage := range job.StagePlan {
		if ctx.Err() != nil {
			s.finishCanceled(jobID, jobDir, rep)
			return
		}
		if cur, err := s.store.Get(jobID); err == nil && cur.Status == domain.StatusCanceled {
			return
		}

		status, ok := statusForStage[stage]
		if !ok {
			continue
		}
		b := bands[status]
		rep.SetBand(b.lo, b.hi)
		rep.Stage(status, stage, 0, fmt.Sprintf("starting %s", stage))

		if stage == "PLANNING" {
			rep.Progress(1.0, "plan computed")
			continue
		}

		if err := s.runStage(ctx, stage, job, jobDir, rep); err != nil {
			if ctx.Err() != nil {
				s.finishCanceled(jobID, jobDir, rep)
				return
			}
			s.finishFailed(jobID, jobDir, rep, err)
			return
		}
	}

	s.finishDone(jobID, jobDir, rep)
}

func (s *Scheduler) runStage(ctx context.Context, stage string, job *domain.Job, jobDir string, rep *reporter.Reporter) error {
	modality := modalityForStage(stage)
	providerID := providerFor(job.UIR, modality)

	a, err := s.registry.Resolve(providerID)
	if err != nil {
		adapterErr := domain.NewAdapterError(domain.ErrDependencyMissing, err.Error(), map[string]any{"provider_id": providerID})
		rep.Error(adapterErr)
		return err
	}
	if a.Modality() != modality {
		adapterErr := domain.NewAdapterError(domain.ErrUnsupported, fmt.Sprintf("provider %q serves %q, not %q", providerID, a.Modality(), modality), map[string]any{"provider_id": providerID})
		rep.Error(adapterErr)
		return fmt.Errorf("%s: %s", adapterErr.Code, adapterErr.Message)
	}

	if adapterErr := a.Validate(job.UIR); adapterErr != nil {
		rep.Error(*adapterErr)
		return fmt.Errorf("%s: %s", adapterErr.Code, adapterErr.Message)
	}

	if err := s.acquireGates(ctx, a); err != nil {
		return err
	}
	defer s.releaseGates(a)

	runCtx := ctx
	var runCancel context.CancelFunc
	if job.UIR.Constraints.MaxRuntimeS > 0 {
		runCtx, runCancel = context.WithTimeout(ctx, time.Duration(job.UIR.Constraints.MaxRuntimeS*float64(time.Second)))
		defer runCancel()
	}

	result := a.Run(runCtx, job.UIR, jobDir, rep)
	if !result.OK || result.Error != nil {
		if result.Error != nil {
			rep.Error(*result.Error)
			return fmt.Errorf("%s: %s", result.Error.Code, result.Error.Message)
		}
		adapterErr := domain.NewAdapterError(domain.ErrModelRuntime, "adapter reported failure with no error detail", nil)
		rep.Error(adapterErr)
		return fmt.Errorf("adapter %s failed", a.ProviderID())
	}

	for _, artifact := range result.Artifacts {
		slot, ok := fsys.SlotForRole(artifact.Role)
		if !ok {
			s.log.Warn("artifact with unrecognized role", "job_id", job.ID, "role", artifact.Role)
			continue
		}
		rep.Asset(slot, artifact)
	}
	for _, w := range result.Warnings {
		rep.Log(stage, "warn", w)
	}

	if cur, err := s.store.Get(job.ID); err == nil {
		if err := fsys.WriteManifest(jobDir, cur); err != nil {
			s.log.Warn("failed to checkpoint manifest", "job_id", job.ID, "stage", stage, "error", err)
		}
	}

	return nil
}

// gpuBound lists the modalities whose adapter runs hold the GPU semaphore.
var gpuBound = map[string]bool{"scene": true, "motion": true, "music": true, "preview": true, "export": true}

func (s *Scheduler) acquireGates(ctx context.Context, a adapter.Adapter) error {
	gpu := gpuBound[a.Modality()]
	if gpu {
		if err := s.gpuSem.Acquire(ctx, 1); err != nil {
			return err
		}
	}
	if a.MaxConcurrency() > 0 {
		sem := s.providerSemaphore(a.ProviderID(), a.MaxConcurrency())
		if err := sem.Acquire(ctx, 1); err != nil {
			if gpu {
				s.gpuSem.Release(1)
			}
			return err
		}
	}
	return nil
}

func (s *Scheduler) releaseGates(a adapter.Adapter) {
	if gpuBound[a.Modality()] {
		s.gpuSem.Release(1)
	}
	if a.MaxConcurrency() > 0 {
		s.providerSemaphore(a.ProviderID(), a.MaxConcurrency()).Release(1)
	}
}

func (s *Scheduler) providerSemaphore(providerID string, capacity int) *semaphore.Weighted {
	s.providerMu.Lock()
	defer s.providerMu.Unlock()
	sem, ok := s.providerSem[providerID]
	if !ok {
		sem = semaphore.NewWeighted(int64(capacity))
		s.providerSem[providerID] = sem
	}
	return sem
}

func (s *Scheduler) finishDone(jobID, jobDir string, rep *reporter.Reporter) {
	rep.SetBand(1, 1)
	rep.Stage(domain.StatusDone, "", 1.0, "done")
	s.writeTerminalManifest(jobID, jobDir)
}

func (s *Scheduler) finishFailed(jobID, jobDir string, rep *reporter.Reporter, cause error) {
	rep.Stage(domain.StatusFailed, "", 0, cause.Error())
	s.writeTerminalManifest(jobID, jobDir)
}

func (s *Scheduler) finishCanceled(jobID, jobDir string, rep *reporter.Reporter) {
	if _, err := s.store.Cancel(jobID); err != nil {
		return
	}
	s.bus.Publish(eventbus.Event{JobID: jobID, Name: eventbus.EventFailed, Data: map[string]any{"status": domain.StatusCanceled}})
	s.writeTerminalManifest(jobID, jobDir)
}

// writeTerminalManifest re-reads the job's current state and rewrites its
// manifest. Called after every terminal transition so manifest.json on
// disk always reflects the job's final status and errors, not just its
// last in-flight stage. When a BucketService is attached, it also kicks
// off a best-effort background mirror of the whole job directory to GCS;
// upload failures are logged, never fed back into the job's own status.
func (s *Scheduler) writeTerminalManifest(jobID, jobDir string) {
	job, err := s.store.Get(jobID)
	if err != nil {
		return
	}
	if err := fsys.WriteManifest(jobDir, job); err != nil {
		s.log.Error("failed to write terminal manifest", "job_id", jobID, "error", err)
	}
	if s.bucket != nil {
		go s.mirrorToGCS(jobID, jobDir)
	}
}

// mirrorToGCS uploads every regular file under jobDir to the attached
// bucket, keyed by "<jobID>/<path relative to jobDir>".
func (s *Scheduler) mirrorToGCS(jobID, jobDir string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	err := filepath.WalkDir(jobDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(jobDir, path)
		if err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		key := jobID + "/" + filepath.ToSlash(rel)
		return s.bucket.UploadFile(ctx, key, f)
	})
	if err != nil {
		s.log.Warn("gcs mirror failed", "job_id", jobID, "error", err)
	}
}

func modalityForStage(stage string) string {
	switch stage {
	case "RUNNING_SCENE":
		return "scene"
	case "RUNNING_MOTION":
		return "motion"
	case "RUNNING_MUSIC":
		return "music"
	case "RUNNING_CHARACTER":
		return "character"
	case "COMPOSING_PREVIEW":
		return "preview"
	case "EXPORTING_VIDEO":
		return "export"
	default:
		return ""
	}
}

// providerFor resolves the routing provider for a modality, defaulting to
// "<modality>.default" when the UIR doesn't name one explicitly.
func providerFor(u *domain.UIR, modality string) string {
	if u.Routing != nil {
		if r, ok := u.Routing[modality]; ok && r.Provider != "" {
			return r.Provider
		}
	}
	return modality + ".default"
}
