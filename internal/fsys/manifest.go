package fsys

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/yungbote/media-orchestrator/internal/domain"
)

// SlotForRole resolves an artifact role to its manifest.outputs dot path.
// Fixed roles (scene_panorama, motion_bvh, ...) come straight out of
// domain.RoleSlot. Any other role ending in "_meta" is routed dynamically
// to "<modality>.meta" where modality is the role's prefix, so an adapter
// can attach auxiliary metadata without the fixed skeleton needing a named
// slot for it. Unknown roles return "", false.
func SlotForRole(role string) (string, bool) {
	if slot, ok := domain.RoleSlot[role]; ok {
		return slot, true
	}
	if strings.HasSuffix(role, "_meta") {
		modality := strings.TrimSuffix(role, "_meta")
		if modality == "" {
			return "", false
		}
		return modality + ".meta", true
	}
	return "", false
}

// BuildManifest assembles the fixed-skeleton manifest for a job from its
// current asset tree and status. job.Assets is keyed the same way
// jobstore.SetAsset writes it: dot paths matching RoleSlot's values.
func BuildManifest(j *domain.Job) *domain.Manifest {
	m := &domain.Manifest{
		JobID:      j.ID,
		UIRVersion: "",
		CreatedAt:  j.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Status:     j.Status,
		Inputs:     map[string]any{},
		Errors:     j.Errors,
	}
	if j.UIR != nil {
		m.UIRVersion = j.UIR.UIRVersion
		m.Inputs = map[string]any{
			"raw_prompt": j.UIR.Input.RawPrompt,
			"targets":    j.UIR.Intent.Targets,
		}
	}

	assets := j.Assets

	if ref, ok := assetAt(assets, "scene.panorama"); ok {
		m.Outputs.Scene.Panorama = ref
	}
	if meta, ok := mapAt(assets, "scene.meta"); ok {
		m.Outputs.Scene.Meta = meta
	}

	if ref, ok := assetAt(assets, "motion.bvh"); ok {
		m.Outputs.Motion.BVH = ref
	}
	if meta, ok := mapAt(assets, "motion.meta"); ok {
		m.Outputs.Motion.Meta = meta
		if fps, ok := meta["fps"].(float64); ok {
			m.Outputs.Motion.FPS = &fps
		}
		if d, ok := meta["duration_s"].(float64); ok {
			m.Outputs.Motion.DurationS = &d
		}
	}

	if ref, ok := assetAt(assets, "music.wav"); ok {
		m.Outputs.Music.WAV = ref
	}
	if meta, ok := mapAt(assets, "music.meta"); ok {
		m.Outputs.Music.Meta = meta
		if d, ok := meta["duration_s"].(float64); ok {
			m.Outputs.Music.DurationS = &d
		}
	}

	if ref, ok := assetAt(assets, "character.manifest"); ok {
		m.Outputs.Character.Manifest = ref
	}
	if meta, ok := mapAt(assets, "character.meta"); ok {
		m.Outputs.Character.Meta = meta
	}

	if ref, ok := assetAt(assets, "preview.config"); ok {
		m.Outputs.Preview.Config = ref
	}
	if meta, ok := mapAt(assets, "preview.meta"); ok {
		m.Outputs.Preview.Meta = meta
	}

	if ref, ok := assetAt(assets, "export.mp4"); ok {
		m.Outputs.Export.MP4 = ref
	}
	if ref, ok := assetAt(assets, "export.zip"); ok {
		m.Outputs.Export.Zip = ref
	}
	if meta, ok := mapAt(assets, "export.meta"); ok {
		m.Outputs.Export.Meta = meta
	}

	return m
}

// WriteManifest writes job's manifest to <jobDir>/manifest.json in
// canonical form: sorted keys (the manifest is round-tripped through a
// map[string]any, whose keys encoding/json emits in sorted order), 2-space
// indent, and HTML-safe escaping.
func WriteManifest(jobDir string, j *domain.Job) error {
	b, err := json.Marshal(BuildManifest(j))
	if err != nil {
		return err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	return writeCanonicalJSON(filepath.Join(jobDir, "manifest.json"), m)
}

func assetAt(assets map[string]any, dotPath string) (*domain.AssetRef, bool) {
	v, ok := navigate(assets, dotPath)
	if !ok {
		return nil, false
	}
	switch ref := v.(type) {
	case domain.AssetRef:
		return &ref, true
	case *domain.AssetRef:
		return ref, true
	default:
		return nil, false
	}
}

func mapAt(assets map[string]any, dotPath string) (map[string]any, bool) {
	v, ok := navigate(assets, dotPath)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

func navigate(assets map[string]any, dotPath string) (any, bool) {
	parts := strings.Split(dotPath, ".")
	var cur any = assets
	for _, p := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
