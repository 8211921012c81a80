package jobstore

import (
	"testing"

	"github.com/yungbote/media-orchestrator/internal/domain"
)

func newJob(id string) *domain.Job {
	return &domain.Job{ID: id, Status: domain.StatusQueued, StagePlan: []string{"PLANNING"}}
}

func TestCreateAndGet(t *testing.T) {
	s := New()
	s.Create(newJob("j1"))

	got, err := s.Get("j1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != "j1" {
		t.Fatalf("Get: want id=j1 got=%s", got.ID)
	}
}

func TestGetMissingReturnsErrNotFound(t *testing.T) {
	s := New()
	if _, err := s.Get("missing"); err == nil {
		t.Fatalf("expected ErrNotFound")
	}
}

func TestUpdateStampsStartedAtOnFirstTransition(t *testing.T) {
	s := New()
	s.Create(newJob("j1"))

	status := domain.StatusPlanning
	if _, err := s.Update("j1", Patch{Status: &status}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := s.Get("j1")
	if got.StartedAt == nil {
		t.Fatalf("expected StartedAt to be stamped")
	}
}

func TestUpdateStampsEndedAtOnTerminalTransition(t *testing.T) {
	s := New()
	s.Create(newJob("j1"))

	status := domain.StatusDone
	if _, err := s.Update("j1", Patch{Status: &status}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := s.Get("j1")
	if got.EndedAt == nil {
		t.Fatalf("expected EndedAt to be stamped on terminal transition")
	}
}

func TestUpdateClampsProgress(t *testing.T) {
	s := New()
	s.Create(newJob("j1"))

	p := 1.5
	if _, err := s.Update("j1", Patch{Progress: &p}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ := s.Get("j1")
	if got.Progress != 1 {
		t.Fatalf("expected progress clamped to 1, got %v", got.Progress)
	}
}

func TestAppendLogRingBuffer(t *testing.T) {
	s := New()
	s.Create(newJob("j1"))
	for i := 0; i < domain.MaxLogLines+10; i++ {
		if err := s.AppendLog("j1", domain.LogLine{Msg: "x"}); err != nil {
			t.Fatalf("AppendLog: %v", err)
		}
	}
	got, _ := s.Get("j1")
	if len(got.Logs) != domain.MaxLogLines {
		t.Fatalf("expected log ring capped at %d, got %d", domain.MaxLogLines, len(got.Logs))
	}
}

func TestSetAssetMergesDotPath(t *testing.T) {
	s := New()
	s.Create(newJob("j1"))

	ref := domain.AssetRef{ID: "a1", Role: "scene_panorama"}
	if err := s.SetAsset("j1", "scene.panorama", ref); err != nil {
		t.Fatalf("SetAsset: %v", err)
	}

	got, _ := s.Get("j1")
	scene, ok := got.Assets["scene"].(map[string]any)
	if !ok {
		t.Fatalf("expected Assets[\"scene\"] to be a nested map, got %T", got.Assets["scene"])
	}
	stored, ok := scene["panorama"].(domain.AssetRef)
	if !ok || stored.ID != "a1" {
		t.Fatalf("expected stored AssetRef with ID=a1, got %+v", scene["panorama"])
	}
}

func TestSetAssetFlatKeyOverwrites(t *testing.T) {
	s := New()
	s.Create(newJob("j1"))

	if err := s.SetAsset("j1", "thumbnail", "first"); err != nil {
		t.Fatalf("SetAsset: %v", err)
	}
	if err := s.SetAsset("j1", "thumbnail", "second"); err != nil {
		t.Fatalf("SetAsset: %v", err)
	}
	got, _ := s.Get("j1")
	if got.Assets["thumbnail"] != "second" {
		t.Fatalf("expected flat key overwrite, got %v", got.Assets["thumbnail"])
	}
}

func TestCancelIsNoOpOnTerminalJob(t *testing.T) {
	s := New()
	s.Create(newJob("j1"))
	status := domain.StatusDone
	s.Update("j1", Patch{Status: &status})

	got, err := s.Cancel("j1")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got.Status != domain.StatusDone {
		t.Fatalf("expected status to remain DONE, got %s", got.Status)
	}
}

func TestCancelMarksNonTerminalJobCanceled(t *testing.T) {
	s := New()
	s.Create(newJob("j1"))

	got, err := s.Cancel("j1")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if got.Status != domain.StatusCanceled {
		t.Fatalf("expected status CANCELED, got %s", got.Status)
	}
}

func TestListReturnsAllJobs(t *testing.T) {
	s := New()
	s.Create(newJob("j1"))
	s.Create(newJob("j2"))

	if got := len(s.List()); got != 2 {
		t.Fatalf("List: want=2 got=%d", got)
	}
}
