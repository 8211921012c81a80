package fsys

import (
	"testing"

	"github.com/yungbote/media-orchestrator/internal/domain"
)

func TestSlotForRoleStaticTable(t *testing.T) {
	slot, ok := SlotForRole("scene_panorama")
	if !ok || slot != "scene.panorama" {
		t.Fatalf("SlotForRole(scene_panorama): want=(scene.panorama,true) got=(%s,%v)", slot, ok)
	}
}

func TestSlotForRoleDynamicMeta(t *testing.T) {
	slot, ok := SlotForRole("motion_meta")
	if !ok || slot != "motion.meta" {
		t.Fatalf("SlotForRole(motion_meta): want=(motion.meta,true) got=(%s,%v)", slot, ok)
	}
}

func TestSlotForRoleUnknown(t *testing.T) {
	if _, ok := SlotForRole("motion_raw"); ok {
		t.Fatalf("expected motion_raw to have no manifest slot")
	}
}

func TestBuildManifestPopulatesScenePanorama(t *testing.T) {
	ref := domain.AssetRef{ID: "a1", Role: "scene_panorama", URI: "scene/panorama.png"}
	j := &domain.Job{
		ID:     "job-1",
		Status: domain.StatusDone,
		UIR:    &domain.UIR{UIRVersion: "1.0"},
		Assets: map[string]any{
			"scene": map[string]any{"panorama": ref},
		},
	}
	m := BuildManifest(j)
	if m.Outputs.Scene.Panorama == nil || m.Outputs.Scene.Panorama.ID != "a1" {
		t.Fatalf("expected scene panorama populated, got %+v", m.Outputs.Scene.Panorama)
	}
}

func TestBuildManifestLeavesUnproducedSlotsNil(t *testing.T) {
	j := &domain.Job{ID: "job-1", Status: domain.StatusRunningScene, UIR: &domain.UIR{UIRVersion: "1.0"}, Assets: map[string]any{}}
	m := BuildManifest(j)
	if m.Outputs.Export.MP4 != nil {
		t.Fatalf("expected export.mp4 to remain nil before export runs")
	}
}

func TestMakeAssetURL(t *testing.T) {
	got := MakeAssetURL("job-1", "scene/panorama.png")
	want := "/assets/job-1/scene/panorama.png"
	if got != want {
		t.Fatalf("MakeAssetURL: want=%q got=%q", want, got)
	}
}
