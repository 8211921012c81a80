// Package reporter is the single write path stages and adapters use to
// mutate job state: every status change, log line, and discovered asset
// flows through here, which updates the job store and publishes the
// matching event in the same call.
package reporter

import (
	"time"

	"github.com/yungbote/media-orchestrator/internal/domain"
	"github.com/yungbote/media-orchestrator/internal/eventbus"
	"github.com/yungbote/media-orchestrator/internal/jobstore"
	"github.com/yungbote/media-orchestrator/internal/platform/logger"
)

// Reporter is scoped to a single job; the scheduler constructs one per
// running job and hands it to the stage/adapter it's currently executing.
type Reporter struct {
	jobID  string
	store  *jobstore.Store
	bus    *eventbus.Bus
	log    *logger.Logger
	bandLo float64
	bandHi float64
}

func New(jobID string, store *jobstore.Store, bus *eventbus.Bus, log *logger.Logger) *Reporter {
	return &Reporter{jobID: jobID, store: store, bus: bus, log: log.With("job_id", jobID), bandLo: 0, bandHi: 1}
}

// SetBand rescales every subsequent Progress call's 0..1 intra-stage value
// into [lo, hi] of the job's overall progress. The scheduler calls this
// once per stage, using the stage's fixed band, before handing the
// Reporter to an adapter — the adapter itself only ever thinks in terms of
// its own 0..1 progress.
func (r *Reporter) SetBand(lo, hi float64) {
	r.bandLo, r.bandHi = lo, hi
}

// Stage records a status/stage/progress/message transition and publishes
// the matching "status" (or "done"/"failed") event.
func (r *Reporter) Stage(status domain.JobStatus, stage string, progress float64, message string) {
	clamped := domain.ClampProgress(progress)
	patch := jobstore.Patch{Status: &status, Stage: &stage, Progress: &clamped, Message: &message}
	if _, err := r.store.Update(r.jobID, patch); err != nil {
		r.log.Warn("stage update on missing job", "error", err)
		return
	}

	name := eventbus.EventStatus
	switch status {
	case domain.StatusDone:
		name = eventbus.EventDone
	case domain.StatusFailed:
		name = eventbus.EventFailed
	}

	r.bus.Publish(eventbus.Event{
		JobID: r.jobID,
		Name:  name,
		Data: map[string]any{
			"status":   status,
			"stage":    stage,
			"progress": clamped,
			"message":  message,
		},
	})
}

// Progress publishes an intra-stage progress update without changing
// status or stage name. progress is the adapter's own 0..1 view of how far
// through its stage it is; it's rescaled into the current band (see
// SetBand) before being stored as the job's overall progress.
func (r *Reporter) Progress(progress float64, message string) {
	intra := domain.ClampProgress(progress)
	overall := domain.ClampProgress(r.bandLo + intra*(r.bandHi-r.bandLo))
	clamped := overall
	patch := jobstore.Patch{Progress: &clamped}
	if message != "" {
		patch.Message = &message
	}
	if _, err := r.store.Update(r.jobID, patch); err != nil {
		r.log.Warn("progress update on missing job", "error", err)
		return
	}
	r.bus.Publish(eventbus.Event{
		JobID: r.jobID,
		Name:  eventbus.EventStatus,
		Data:  map[string]any{"progress": clamped, "message": message},
	})
}

// Log appends a line to the job's rolling log and publishes a "log" event.
func (r *Reporter) Log(stage, level, msg string) {
	line := domain.LogLine{Time: time.Now().UTC(), Stage: stage, Level: level, Msg: msg}
	if err := r.store.AppendLog(r.jobID, line); err != nil {
		r.log.Warn("log append on missing job", "error", err)
		return
	}
	r.bus.Publish(eventbus.Event{JobID: r.jobID, Name: eventbus.EventLog, Data: line})
}

// Asset records a produced artifact under dotPath in the job's asset tree
// and publishes an "asset" event.
func (r *Reporter) Asset(dotPath string, ref domain.AssetRef) {
	if err := r.store.SetAsset(r.jobID, dotPath, ref); err != nil {
		r.log.Warn("asset set on missing job", "error", err)
		return
	}
	r.bus.Publish(eventbus.Event{
		JobID: r.jobID,
		Name:  eventbus.EventAsset,
		Data:  map[string]any{"path": dotPath, "asset": ref},
	})
}

// Error appends an AdapterError to the job's error list without changing
// status (the scheduler decides whether an error is terminal).
func (r *Reporter) Error(adapterErr domain.AdapterError) {
	patch := jobstore.Patch{AppendErrors: []domain.AdapterError{adapterErr}}
	if _, err := r.store.Update(r.jobID, patch); err != nil {
		r.log.Warn("error append on missing job", "error", err)
		return
	}
	r.Log("", "error", adapterErr.Message)
}
