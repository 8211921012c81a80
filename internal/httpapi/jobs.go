// Package httpapi exposes the orchestrator over HTTP: job submission and
// lookup, SSE/WebSocket event streams, static asset serving, and a health
// endpoint.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/media-orchestrator/internal/domain"
	"github.com/yungbote/media-orchestrator/internal/eventbus"
	"github.com/yungbote/media-orchestrator/internal/fsys"
	"github.com/yungbote/media-orchestrator/internal/jobstore"
	"github.com/yungbote/media-orchestrator/internal/planner"
	"github.com/yungbote/media-orchestrator/internal/platform/logger"
	"github.com/yungbote/media-orchestrator/internal/scheduler"
	"github.com/yungbote/media-orchestrator/internal/uir"
)

// JobsHandler wires job submission and lookup against the store,
// scheduler, and filesystem layout.
type JobsHandler struct {
	store     *jobstore.Store
	bus       *eventbus.Bus
	scheduler *scheduler.Scheduler
	rootDir   string
	log       *logger.Logger
}

func NewJobsHandler(store *jobstore.Store, bus *eventbus.Bus, sched *scheduler.Scheduler, rootDir string, log *logger.Logger) *JobsHandler {
	return &JobsHandler{store: store, bus: bus, scheduler: sched, rootDir: rootDir, log: log.With("component", "jobs_handler")}
}

// POST /jobs accepts a raw UIR payload, stamps job.id/job.created_at if
// absent, validates it, lays out the job directory, and enqueues it.
func (h *JobsHandler) CreateJob(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_json", err)
		return
	}

	jobRaw, _ := raw["job"].(map[string]any)
	if jobRaw == nil {
		jobRaw = map[string]any{}
	}
	jobID, _ := jobRaw["id"].(string)
	if jobID == "" {
		jobID = uuid.NewString()
		jobRaw["id"] = jobID
	}
	createdAt, _ := jobRaw["created_at"].(string)
	if createdAt == "" {
		createdAt = time.Now().UTC().Format(time.RFC3339)
		jobRaw["created_at"] = createdAt
	}
	raw["job"] = jobRaw

	u, err := uir.Validate(raw)
	if err != nil {
		respondError(c, http.StatusUnprocessableEntity, "uir_invalid", err)
		return
	}

	hash, err := uir.StableHash(u)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "hash_failed", err)
		return
	}

	jobDir := fsys.JobDir(h.rootDir, jobID)
	if err := fsys.CreateLayout(jobDir); err != nil {
		respondError(c, http.StatusInternalServerError, "layout_failed", err)
		return
	}
	if err := fsys.WriteUIRSnapshot(jobDir, raw); err != nil {
		respondError(c, http.StatusInternalServerError, "snapshot_failed", err)
		return
	}

	job := &domain.Job{
		ID:          jobID,
		Status:      domain.StatusQueued,
		CreatedAt:   time.Now().UTC(),
		UIR:         u,
		UIRHash:     hash,
		StagePlan:   planner.PlanStages(u),
		ManifestURL: fsys.MakeAssetURL(jobID, "manifest.json"),
		EventStream: u.Hooks.EventStream,
		Dir:         jobDir,
		Assets:      map[string]any{},
	}
	h.store.Create(job)
	if err := fsys.WriteManifest(jobDir, job); err != nil {
		h.log.Warn("failed to write initial manifest", "job_id", jobID, "error", err)
	}
	h.scheduler.Enqueue(jobID)

	c.JSON(http.StatusAccepted, gin.H{"job": job})
}

// GET /jobs/:job_id
func (h *JobsHandler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")
	job, err := h.store.Get(jobID)
	if err != nil {
		respondError(c, http.StatusNotFound, "job_not_found", err)
		return
	}
	respondOK(c, gin.H{"job": job})
}

// POST /jobs/:job_id/cancel
func (h *JobsHandler) CancelJob(c *gin.Context) {
	jobID := c.Param("job_id")
	if err := h.scheduler.Cancel(jobID); err != nil {
		respondError(c, http.StatusNotFound, "job_not_found", err)
		return
	}
	job, err := h.store.Get(jobID)
	if err != nil {
		respondError(c, http.StatusNotFound, "job_not_found", err)
		return
	}
	respondOK(c, gin.H{"job": job})
}

// GET /jobs
func (h *JobsHandler) ListJobs(c *gin.Context) {
	respondOK(c, gin.H{"jobs": h.store.List()})
}
