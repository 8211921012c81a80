// Package motion implements "motion.animationgpt_local": a subprocess
// wrapper around a local motion-generation tool producing a BVH skeleton
// animation.
package motion

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

const ProviderID = "motion.default"

type Adapter struct {
	log     *logger.Logger
	binPath string
}

func New(log *logger.Logger, binPath string) *Adapter {
	if binPath == "" {
		binPath = "animationgpt"
	}
	return &Adapter{log: log.With("adapter", ProviderID), binPath: binPath}
}

func (a *Adapter) ProviderID() string  { return ProviderID }
func (a *Adapter) Modality() string    { return "motion" }
func (a *Adapter) MaxConcurrency() int { return 1 }

func (a *Adapter) Validate(u *domain.UIR) *domain.AdapterError {
	mod, ok := u.Modules["motion"]
	if !ok || !mod.Enabled {
		e := domain.NewAdapterError(domain.ErrValidationInput, "motion module not enabled", nil)
		return &e
	}
	if fps, ok := mod.Fields["fps"].(float64); ok && (fps < 15 || fps > 60) {
		e := domain.NewAdapterError(domain.ErrValidationInput, "motion.fps out of range [15, 60]", nil)
		return &e
	}
	if _, err := exec.LookPath(a.binPath); err != nil {
		e := domain.NewAdapterError(domain.ErrDependencyMissing, fmt.Sprintf("missing required binary %q", a.binPath), nil)
		return &e
	}
	return nil
}

func (a *Adapter) Run(ctx context.Context, u *domain.UIR, outDir string, rep *reporter.Reporter) domain.AdapterResult {
	motionDir := filepath.Join(outDir, "motion")
	if err := os.MkdirAll(motionDir, 0o755); err != nil {
		e := domain.NewAdapterError(domain.ErrIOWrite, err.Error(), nil)
		return domain.AdapterResult{OK: false, Provider: a.ProviderID(), Error: &e}
	}
	if adapterErr := subprocx.ProbeWritable(motionDir); adapterErr != nil {
		return domain.AdapterResult{OK: false, Provider: a.ProviderID(), Error: adapterErr}
	}

	fields := u.Modules["motion"].Fields
	fps := 30.0
	if f, ok := fields["fps"].(float64); ok {
		fps = f
	}
	durationS := u.Intent.DurationS
	if d, ok := fields["duration_s"].(float64); ok {
		durationS = d
	}
	style, _ := fields["style"].(string)
	if style == "" {
		style = u.Intent.Style
	}

	bvhPath := filepath.Join(motionDir, "motion.bvh")
	npyPath := filepath.Join(motionDir, "motion_out.npy")
	metaPath := filepath.Join(motionDir, "motion_meta.json")
	logPath := filepath.Join(outDir, "logs", "motion.log")

	args := []string{
		"--prompt", u.Input.RawPrompt,
		"--style", style,
		"--fps", fmt.Sprint(fps),
		"--duration", fmt.Sprint(durationS),
		"--out-bvh", bvhPath,
		"--out-npy", npyPath,
		"--out-meta", metaPath,
		"--log", logPath,
	}

	timeout := time.Duration(u.Constraints.MaxRuntimeS) * time.Second
	_, adapterErr := subprocx.Run(ctx, subprocx.RunOpts{
		Name:    a.binPath,
		Args:    args,
		Dir:     motionDir,
		Timeout: timeout,
		OnTick: func(elapsed, timeout time.Duration) {
			rep.Progress(subprocx.FractionOf(elapsed, timeout), "generating motion")
		},
	})
	if adapterErr != nil {
		return domain.AdapterResult{OK: false, Provider: a.ProviderID(), Error: adapterErr}
	}

	bvhRef, err := adapter.BuildAssetRef(outDir, bvhPath, "motion_bvh", "application/octet-stream")
	if err != nil {
		e := domain.NewAdapterError(domain.ErrIOWrite, err.Error(), nil)
		return domain.AdapterResult{OK: false, Provider: a.ProviderID(), Error: &e}
	}
	bvhRef.Meta = map[string]any{"fps": fps, "duration_s": durationS, "style": style}

	artifacts := []domain.AssetRef{bvhRef}
	if npyRef, err := adapter.BuildAssetRef(outDir, npyPath, "motion_raw", "application/octet-stream"); err == nil {
		artifacts = append(artifacts, npyRef)
	}
	if metaRef, err := adapter.BuildAssetRef(outDir, metaPath, "motion_meta", "application/json"); err == nil {
		artifacts = append(artifacts, metaRef)
	}

	return domain.AdapterResult{
		OK:        true,
		Provider:  a.ProviderID(),
		Artifacts: artifacts,
		Meta:      map[string]any{"fps": fps, "duration_s": durationS},
	}
}
