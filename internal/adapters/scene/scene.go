// Package scene implements the scene modality's default adapter,
// "scene.diffusion360_local": a subprocess wrapper around a local
// 360-degree panorama diffusion tool.
package scene

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/yungbote/media-orchestrator/internal/adapter"
	"github.com/yungbote/media-orchestrator/internal/adapters/subprocx"
	"github.com/yungbote/media-orchestrator/internal/domain"
	"github.com/yungbote/media-orchestrator/internal/platform/logger"
	"github.com/yungbote/media-orchestrator/internal/reporter"
)

const ProviderID = "scene.default"

// qualityPreset is the steps/upscale pair a quality level maps to.
type qualityPreset struct {
	steps   int
	upscale int
}

var qualityPresets = map[string]qualityPreset{
	"fast":     {steps: 20, upscale: 1},
	"standard": {steps: 35, upscale: 2},
	"high":     {steps: 50, upscale: 4},
}

// Adapter is the diffusion360_local scene adapter.
type Adapter struct {
	log     *logger.Logger
	binPath string
}

func New(log *logger.Logger, binPath string) *Adapter {
	if binPath == "" {
		binPath = "diffusion360"
	}
	return &Adapter{log: log.With("adapter", ProviderID), binPath: binPath}
}

func (a *Adapter) ProviderID() string { return ProviderID }
func (a *Adapter) Modality() string   { return "scene" }
func (a *Adapter) MaxConcurrency() int { return 1 }

func (a *Adapter) Validate(u *domain.UIR) *domain.AdapterError {
	mod, ok := u.Modules["scene"]
	if !ok || !mod.Enabled {
		e := domain.NewAdapterError(domain.ErrValidationInput, "scene module not enabled", nil)
		return &e
	}
	if res, ok := mod.Fields["resolution"].([]any); ok {
		if len(res) != 2 {
			e := domain.NewAdapterError(domain.ErrValidationInput, "scene.resolution must be [W, H]", nil)
			return &e
		}
	}
	if _, err := exec.LookPath(a.binPath); err != nil {
		e := domain.NewAdapterError(domain.ErrDependencyMissing, fmt.Sprintf("missing required binary %q", a.binPath), nil)
		return &e
	}
	return nil
}

func (a *Adapter) Run(ctx context.Context, u *domain.UIR, outDir string, rep *reporter.Reporter) domain.AdapterResult {
	sceneDir := filepath.Join(outDir, "scene")
	if err := os.MkdirAll(sceneDir, 0o755); err != nil {
		e := domain.NewAdapterError(domain.ErrIOWrite, err.Error(), nil)
		return domain.AdapterResult{OK: false, Provider: a.ProviderID(), Error: &e}
	}
	if adapterErr := subprocx.ProbeWritable(sceneDir); adapterErr != nil {
		return domain.AdapterResult{OK: false, Provider: a.ProviderID(), Error: adapterErr}
	}

	fields := u.Modules["scene"].Fields
	quality, _ := fields["quality"].(string)
	if quality == "" {
		quality = "standard"
	}
	preset, ok := qualityPresets[quality]
	if !ok {
		e := domain.NewAdapterError(domain.ErrValidationInput, fmt.Sprintf("unknown scene quality %q", quality), nil)
		return domain.AdapterResult{OK: false, Provider: a.ProviderID(), Error: &e}
	}

	width, height := 2048, 1024
	if res, ok := fields["resolution"].([]any); ok && len(res) == 2 {
		if w, ok := res[0].(float64); ok {
			width = int(w)
		}
		if h, ok := res[1].(float64); ok {
			height = int(h)
		}
	}

	outPath := filepath.Join(sceneDir, "panorama.png")
	logPath := filepath.Join(outDir, "logs", "scene.log")

	args := []string{
		"--prompt", u.Input.RawPrompt,
		"--width", fmt.Sprint(width),
		"--height", fmt.Sprint(height),
		"--steps", fmt.Sprint(preset.steps),
		"--upscale", fmt.Sprint(preset.upscale),
		"--out", outPath,
		"--log", logPath,
	}

	timeout := time.Duration(u.Constraints.MaxRuntimeS) * time.Second
	result, adapterErr := subprocx.Run(ctx, subprocx.RunOpts{
		Name:    a.binPath,
		Args:    args,
		Dir:     sceneDir,
		Timeout: timeout,
		OnTick: func(elapsed, timeout time.Duration) {
			rep.Progress(subprocx.FractionOf(elapsed, timeout), "rendering panorama")
		},
	})
	_ = result
	if adapterErr != nil {
		return domain.AdapterResult{OK: false, Provider: a.ProviderID(), Error: adapterErr}
	}

	ref, err := adapter.BuildAssetRef(outDir, outPath, "scene_panorama", "image/png")
	if err != nil {
		e := domain.NewAdapterError(domain.ErrIOWrite, err.Error(), nil)
		return domain.AdapterResult{OK: false, Provider: a.ProviderID(), Error: &e}
	}
	ref.Meta = map[string]any{"width": width, "height": height, "quality": quality}

	return domain.AdapterResult{
		OK:        true,
		Provider:  a.ProviderID(),
		Artifacts: []domain.AssetRef{ref},
		Meta:      map[string]any{"quality": quality, "width": width, "height": height},
	}
}
