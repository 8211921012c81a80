package scheduler

import "github.com/yungbote/media-orchestrator/internal/domain"

// band is one stage's share of the job's overall [0, 1] progress.
type band struct {
	lo, hi float64
}

// bands maps each status onto its slice of overall progress. An adapter's
// own 0..1 intra-stage progress is rescaled into the matching band before
// being stored on the job. The bands are laid out in this table's order,
// not the planner's stage order: RUNNING_SCENE runs before RUNNING_MOTION
// but its band lies above motion's, so overall progress drops back when a
// job runs both.
var bands = map[domain.JobStatus]band{
	domain.StatusPlanning:         {0.00, 0.10},
	domain.StatusRunningMotion:    {0.10, 0.35},
	domain.StatusRunningScene:     {0.35, 0.55},
	domain.StatusRunningMusic:     {0.55, 0.70},
	domain.StatusRunningCharacter: {0.70, 0.78},
	domain.StatusComposingPreview: {0.78, 0.90},
	domain.StatusExportingVideo:   {0.90, 0.99},
	domain.StatusDone:             {1.00, 1.00},
}

// statusForStage maps a planner stage name to the job status it puts the
// job into while running.
var statusForStage = map[string]domain.JobStatus{
	"PLANNING":          domain.StatusPlanning,
	"RUNNING_SCENE":     domain.StatusRunningScene,
	"RUNNING_MOTION":    domain.StatusRunningMotion,
	"RUNNING_MUSIC":     domain.StatusRunningMusic,
	"RUNNING_CHARACTER": domain.StatusRunningCharacter,
	"COMPOSING_PREVIEW": domain.StatusComposingPreview,
	"EXPORTING_VIDEO":   domain.StatusExportingVideo,
}

// overallProgress rescales an adapter-reported intra-stage progress
// (0..1) into status's overall-progress band.
func overallProgress(status domain.JobStatus, intraStage float64) float64 {
	b, ok := bands[status]
	if !ok {
		return domain.ClampProgress(intraStage)
	}
	intraStage = domain.ClampProgress(intraStage)
	return b.lo + intraStage*(b.hi-b.lo)
}
