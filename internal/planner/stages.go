// Package planner turns a validated UIR into the ordered list of stages a
// job will run through. It is a pure function: same UIR in, same stage list
// out, no I/O, no clock.
package planner

import "github.com/yungbote/media-orchestrator/internal/domain"

// PlanStages returns the fixed-order stage list for u. PLANNING always
// leads. scene, motion, music, and character follow in that order whenever
// each is enabled and targeted; COMPOSING_PREVIEW follows if preview is
// enabled and targeted; EXPORTING_VIDEO trails if export is enabled and
// targeted. The order itself is never data-driven — only membership is.
func PlanStages(u *domain.UIR) []string {
	stages := []string{"PLANNING"}

	if u.Enabled("scene") {
		stages = append(stages, "RUNNING_SCENE")
	}
	if u.Enabled("motion") {
		stages = append(stages, "RUNNING_MOTION")
	}
	if u.Enabled("music") {
		stages = append(stages, "RUNNING_MUSIC")
	}
	if u.Enabled("character") {
		stages = append(stages, "RUNNING_CHARACTER")
	}
	if u.Enabled("preview") {
		stages = append(stages, "COMPOSING_PREVIEW")
	}
	if u.Enabled("export") {
		stages = append(stages, "EXPORTING_VIDEO")
	}

	return stages
}
