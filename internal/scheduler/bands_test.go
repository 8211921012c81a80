package scheduler

import (
	"testing"

	"github.com/yungbote/media-orchestrator/internal/domain"
)

func TestBandsCoverFullRangeInOrder(t *testing.T) {
	order := []domain.JobStatus{
		domain.StatusPlanning,
		domain.StatusRunningMotion,
		domain.StatusRunningScene,
		domain.StatusRunningMusic,
		domain.StatusRunningCharacter,
		domain.StatusComposingPreview,
		domain.StatusExportingVideo,
	}
	prevHi := 0.0
	for _, status := range order {
		b, ok := bands[status]
		if !ok {
			t.Fatalf("missing band for %s", status)
		}
		if b.lo != prevHi {
			t.Fatalf("%s: band.lo=%v does not continue from previous hi=%v", status, b.lo, prevHi)
		}
		if b.hi <= b.lo {
			t.Fatalf("%s: band.hi=%v must exceed band.lo=%v", status, b.hi, b.lo)
		}
		prevHi = b.hi
	}
	if prevHi >= 1.0 {
		t.Fatalf("expected room reserved for DONE, last band.hi=%v", prevHi)
	}
}

func TestOverallProgressRescalesIntoBand(t *testing.T) {
	got := overallProgress(domain.StatusRunningMotion, 0.5)
	want := 0.10 + 0.5*(0.35-0.10)
	if got != want {
		t.Fatalf("overallProgress: want=%v got=%v", want, got)
	}
}

func TestOverallProgressClampsIntraStage(t *testing.T) {
	got := overallProgress(domain.StatusRunningScene, 2.0)
	b := bands[domain.StatusRunningScene]
	if got != b.hi {
		t.Fatalf("overallProgress with out-of-range intra progress: want=%v got=%v", b.hi, got)
	}
}

func TestStatusForStageCoversEveryPlannerStage(t *testing.T) {
	stages := []string{
		"PLANNING", "RUNNING_SCENE", "RUNNING_MOTION", "RUNNING_MUSIC",
		"RUNNING_CHARACTER", "COMPOSING_PREVIEW", "EXPORTING_VIDEO",
	}
	for _, s := range stages {
		if _, ok := statusForStage[s]; !ok {
			t.Fatalf("statusForStage missing entry for stage %q", s)
		}
	}
}

func TestModalityForStage(t *testing.T) {
	cases := map[string]string{
		"RUNNING_SCENE":     "scene",
		"RUNNING_MOTION":    "motion",
		"RUNNING_MUSIC":     "music",
		"RUNNING_CHARACTER": "character",
		"COMPOSING_PREVIEW": "preview",
		"EXPORTING_VIDEO":   "export",
		"PLANNING":          "",
	}
	for stage, want := range cases {
		if got := modalityForStage(stage); got != want {
			t.Fatalf("modalityForStage(%s): want=%q got=%q", stage, want, got)
		}
	}
}

func TestProviderForDefaultsToModalityDefault(t *testing.T) {
	u := &domain.UIR{}
	if got := providerFor(u, "scene"); got != "scene.default" {
		t.Fatalf("providerFor default: want=scene.default got=%s", got)
	}
}

func TestProviderForHonorsExplicitRouting(t *testing.T) {
	u := &domain.UIR{Routing: map[string]domain.Routing{"scene": {Provider: "scene.custom"}}}
	if got := providerFor(u, "scene"); got != "scene.custom" {
		t.Fatalf("providerFor explicit: want=scene.custom got=%s", got)
	}
}
