// Package preview implements "preview.preview_config_builder": it builds
// preview_config.json referencing the scene/motion/music artifacts already
// produced, plus renders a placeholder preview_thumb.png burned with the
// camera preset name and duration, using fogleman/gg and golang/freetype.
package preview

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/yungbote/media-orchestrator/internal/adapter"
	"github.com/yungbote/media-orchestrator/internal/domain"
	"github.com/yungbote/media-orchestrator/internal/platform/logger"
	"github.com/yungbote/media-orchestrator/internal/reporter"
)

const ProviderID = "preview.default"

type Adapter struct {
	log *logger.Logger
}

func New(log *logger.Logger) *Adapter {
	return &Adapter{log: log.With("adapter", ProviderID)}
}

func (a *Adapter) ProviderID() string  { return ProviderID }
func (a *Adapter) Modality() string    { return "preview" }
func (a *Adapter) MaxConcurrency() int { return 0 }

func (a *Adapter) Validate(u *domain.UIR) *domain.AdapterError {
	mod, ok := u.Modules["preview"]
	if !ok || !mod.Enabled {
		e := domain.NewAdapterError(domain.ErrValidationInput, "preview module not enabled", nil)
		return &e
	}
	return nil
}

func (a *Adapter) Run(ctx context.Context, u *domain.UIR, outDir string, rep *reporter.Reporter) domain.AdapterResult {
	previewDir := filepath.Join(outDir, "preview")
	if err := os.MkdirAll(previewDir, 0o755); err != nil {
		e := domain.NewAdapterError(domain.ErrIOWrite, err.Error(), nil)
		return domain.AdapterResult{OK: false, Provider: ProviderID, Error: &e}
	}

	fields := u.Modules["preview"].Fields
	cameraPreset, _ := fields["camera_preset"].(string)
	if cameraPreset == "" {
		cameraPreset = "orbit"
	}
	autoplay := true
	if v, ok := fields["autoplay"].(bool); ok {
		autoplay = v
	}

	cfg := map[string]any{
		"camera_preset": cameraPreset,
		"autoplay":      autoplay,
		"duration_s":    u.Intent.DurationS,
		"timeline":      fields["timeline"],
		"sources": map[string]any{
			"scene":     "scene.panorama",
			"motion":    "motion.bvh",
			"music":     "music.wav",
			"character": "character.manifest",
		},
	}

	rep.Progress(0.3, "building preview config")

	cfgPath := filepath.Join(previewDir, "preview_config.json")
	if err := writeJSON(cfgPath, cfg); err != nil {
		e := domain.NewAdapterError(domain.ErrIOWrite, err.Error(), nil)
		return domain.AdapterResult{OK: false, Provider: ProviderID, Error: &e}
	}

	thumbPath := filepath.Join(previewDir, "preview_thumb.png")
	if err := renderThumb(thumbPath, cameraPreset, u.Intent.DurationS); err != nil {
		e := domain.NewAdapterError(domain.ErrIOWrite, err.Error(), nil)
		return domain.AdapterResult{OK: false, Provider: ProviderID, Error: &e}
	}

	rep.Progress(0.9, "rendered placeholder thumbnail")

	cfgRef, err := adapter.BuildAssetRef(outDir, cfgPath, "preview_config", "application/json")
	if err != nil {
		e := domain.NewAdapterError(domain.ErrIOWrite, err.Error(), nil)
		return domain.AdapterResult{OK: false, Provider: ProviderID, Error: &e}
	}

	artifacts := []domain.AssetRef{cfgRef}
	if thumbRef, err := adapter.BuildAssetRef(outDir, thumbPath, "preview_meta", "image/png"); err == nil {
		artifacts = append(artifacts, thumbRef)
	}

	return domain.AdapterResult{
		OK:        true,
		Provider:  ProviderID,
		Artifacts: artifacts,
		Meta:      map[string]any{"camera_preset": cameraPreset, "autoplay": autoplay},
	}
}

// renderThumb draws a flat-shaded 960x540 placeholder frame with the
// camera preset and duration burned in as text.
func renderThumb(path, cameraPreset string, durationS float64) error {
	const w, h = 960, 540
	dc := gg.NewContext(w, h)
	dc.SetRGB(0.09, 0.11, 0.16)
	dc.Clear()
	dc.SetRGB(0.85, 0.85, 0.9)
	dc.DrawRoundedRectangle(40, 40, w-80, h-80, 16)
	dc.SetLineWidth(2)
	dc.Stroke()

	font, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return err
	}
	face := truetype.NewFace(font, &truetype.Options{Size: 36})
	dc.SetFontFace(face)
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored("Preview: "+cameraPreset, w/2, h/2-20, 0.5, 0.5)

	smallFace := truetype.NewFace(font, &truetype.Options{Size: 20})
	dc.SetFontFace(smallFace)
	dc.SetRGB(0.7, 0.75, 0.85)
	dc.DrawStringAnchored(formatDuration(durationS), float64(w)/2, float64(h)/2+24, 0.5, 0.5)

	return dc.SavePNG(path)
}

func formatDuration(durationS float64) string {
	return fmt.Sprintf("duration %gs", durationS)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
