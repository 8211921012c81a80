// Package music implements "music.musicgpt_cli": a subprocess wrapper
// around a local music-generation CLI producing a WAV track.
package music

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

const ProviderID = "music.default"

type Adapter struct {
	log     *logger.Logger
	binPath string
}

func New(log *logger.Logger, binPath string) *Adapter {
	if binPath == "" {
		binPath = "musicgpt"
	}
	return &Adapter{log: log.With("adapter", ProviderID), binPath: binPath}
}

func (a *Adapter) ProviderID() string  { return ProviderID }
func (a *Adapter) Modality() string    { return "music" }
func (a *Adapter) MaxConcurrency() int { return 2 }

// Validate checks duration_s∈[3,60] at the adapter boundary. The UIR
// validator bounds only an explicit modules.music.duration_s; a duration
// taken from intent.duration_s is bounded here alone.
func (a *Adapter) Validate(u *domain.UIR) *domain.AdapterError {
	mod, ok := u.Modules["music"]
	if !ok || !mod.Enabled {
		e := domain.NewAdapterError(domain.ErrValidationInput, "music module not enabled", nil)
		return &e
	}
	d, ok := mod.Fields["duration_s"].(float64)
	if !ok {
		d = u.Intent.DurationS
	}
	if d < 3 || d > 60 {
		e := domain.NewAdapterError(domain.ErrValidationInput, "music.duration_s out of range [3, 60]", nil)
		return &e
	}
	if _, err := exec.LookPath(a.binPath); err != nil {
		e := domain.NewAdapterError(domain.ErrDependencyMissing, fmt.Sprintf("missing required binary %q", a.binPath), nil)
		return &e
	}
	return nil
}

func (a *Adapter) Run(ctx context.Context, u *domain.UIR, outDir string, rep *reporter.Reporter) domain.AdapterResult {
	musicDir := filepath.Join(outDir, "music")
	if err := os.MkdirAll(musicDir, 0o755); err != nil {
		e := domain.NewAdapterError(domain.ErrIOWrite, err.Error(), nil)
		return domain.AdapterResult{OK: false, Provider: a.ProviderID(), Error: &e}
	}
	if adapterErr := subprocx.ProbeWritable(musicDir); adapterErr != nil {
		return domain.AdapterResult{OK: false, Provider: a.ProviderID(), Error: adapterErr}
	}

	fields := u.Modules["music"].Fields
	durationS := u.Intent.DurationS
	if d, ok := fields["duration_s"].(float64); ok {
		durationS = d
	}
	mood := u.Intent.Mood

	wavPath := filepath.Join(musicDir, "music.wav")
	logPath := filepath.Join(outDir, "logs", "music.log")

	args := []string{
		"--prompt", u.Input.RawPrompt,
		"--mood", mood,
		"--duration", fmt.Sprint(durationS),
		"--out", wavPath,
		"--log", logPath,
	}

	timeout := time.Duration(u.Constraints.MaxRuntimeS) * time.Second
	_, adapterErr := subprocx.Run(ctx, subprocx.RunOpts{
		Name:    a.binPath,
		Args:    args,
		Dir:     musicDir,
		Timeout: timeout,
		OnTick: func(elapsed, timeout time.Duration) {
			rep.Progress(subprocx.FractionOf(elapsed, timeout), "composing music")
		},
	})
	if adapterErr != nil {
		return domain.AdapterResult{OK: false, Provider: a.ProviderID(), Error: adapterErr}
	}

	ref, err := adapter.BuildAssetRef(outDir, wavPath, "music_wav", "audio/wav")
	if err != nil {
		e := domain.NewAdapterError(domain.ErrIOWrite, err.Error(), nil)
		return domain.AdapterResult{OK: false, Provider: a.ProviderID(), Error: &e}
	}
	ref.Meta = map[string]any{"duration_s": durationS, "mood": mood}

	return domain.AdapterResult{
		OK:        true,
		Provider:  a.ProviderID(),
		Artifacts: []domain.AssetRef{ref},
		Meta:      map[string]any{"duration_s": durationS},
	}
}
