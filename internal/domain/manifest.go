package domain

// Manifest is the on-disk canonical record written to <job_dir>/manifest.json.
// Field order here doesn't matter for the wire format — the writer always
// marshals through a map so keys come out sorted — but it documents the
// shape from spec §6.3.
type Manifest struct {
	JobID      string            `json:"job_id"`
	UIRVersion string            `json:"uir_version"`
	CreatedAt  string            `json:"created_at"`
	Status     JobStatus         `json:"status"`
	Inputs     map[string]any    `json:"inputs"`
	Outputs    ManifestOutputs   `json:"outputs"`
	Errors     []AdapterError    `json:"errors"`
}

// ManifestOutputs is the fixed per-module skeleton; every leaf defaults to
// nil and is filled in only as matching artifacts arrive.
type ManifestOutputs struct {
	Scene     SceneOutputs     `json:"scene"`
	Motion    MotionOutputs    `json:"motion"`
	Music     MusicOutputs     `json:"music"`
	Character CharacterOutputs `json:"character"`
	Preview   PreviewOutputs   `json:"preview"`
	Export    ExportOutputs    `json:"export"`
}

type SceneOutputs struct {
	Panorama *AssetRef      `json:"panorama"`
	Meta     map[string]any `json:"meta,omitempty"`
}

type MotionOutputs struct {
	BVH       *AssetRef      `json:"bvh"`
	FPS       *float64       `json:"fps,omitempty"`
	DurationS *float64       `json:"duration_s,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
}

type MusicOutputs struct {
	WAV       *AssetRef      `json:"wav"`
	DurationS *float64       `json:"duration_s,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
}

type CharacterOutputs struct {
	Manifest *AssetRef      `json:"manifest"`
	Meta     map[string]any `json:"meta,omitempty"`
}

type PreviewOutputs struct {
	Config *AssetRef      `json:"config"`
	Meta   map[string]any `json:"meta,omitempty"`
}

type ExportOutputs struct {
	MP4  *AssetRef      `json:"mp4"`
	Zip  *AssetRef      `json:"zip"`
	Meta map[string]any `json:"meta,omitempty"`
}

// RoleSlot maps an artifact's symbolic role to its manifest.outputs slot
// path. "*_meta" roles are matched dynamically (see fsys.SlotForRole), so
// they aren't listed here.
var RoleSlot = map[string]string{
	"scene_panorama":     "scene.panorama",
	"motion_bvh":         "motion.bvh",
	"music_wav":          "music.wav",
	"preview_config":     "preview.config",
	"export_mp4":         "export.mp4",
	"export_zip":         "export.zip",
	"character_manifest": "character.manifest",
}
