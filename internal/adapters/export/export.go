// Package export implements "export.ffmpeg_cli": the final stage, which
// either zips every artifact the job produced or composites them into an
// MP4 via a fixed ffmpeg filter graph.
package export

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
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

const ProviderID = "export.default"

// margin is the pixel offset from each edge the foreground overlay sits at.
const margin = 40

type Adapter struct {
	log     *logger.Logger
	binPath string
}

func New(log *logger.Logger, binPath string) *Adapter {
	if binPath == "" {
		binPath = "ffmpeg"
	}
	return &Adapter{log: log.With("adapter", ProviderID), binPath: binPath}
}

func (a *Adapter) ProviderID() string  { return ProviderID }
func (a *Adapter) Modality() string    { return "export" }
func (a *Adapter) MaxConcurrency() int { return 1 }

func (a *Adapter) Validate(u *domain.UIR) *domain.AdapterError {
	mod, ok := u.Modules["export"]
	if !ok || !mod.Enabled {
		e := domain.NewAdapterError(domain.ErrValidationInput, "export module not enabled", nil)
		return &e
	}
	format, _ := mod.Fields["format"].(string)
	if format == "" {
		format = "zip"
	}
	if format != "zip" && format != "mp4" {
		e := domain.NewAdapterError(domain.ErrValidationInput, fmt.Sprintf("unknown export format %q", format), nil)
		return &e
	}
	if format == "mp4" {
		if _, err := exec.LookPath(a.binPath); err != nil {
			e := domain.NewAdapterError(domain.ErrDependencyMissing, fmt.Sprintf("missing required binary %q", a.binPath), nil)
			return &e
		}
	}
	return nil
}

func (a *Adapter) Run(ctx context.Context, u *domain.UIR, outDir string, rep *reporter.Reporter) domain.AdapterResult {
	exportDir := filepath.Join(outDir, "export")
	if err := os.MkdirAll(exportDir, 0o755); err != nil {
		e := domain.NewAdapterError(domain.ErrIOWrite, err.Error(), nil)
		return domain.AdapterResult{OK: false, Provider: ProviderID, Error: &e}
	}
	if adapterErr := subprocx.ProbeWritable(exportDir); adapterErr != nil {
		return domain.AdapterResult{OK: false, Provider: ProviderID, Error: adapterErr}
	}

	fields := u.Modules["export"].Fields
	format, _ := fields["format"].(string)
	if format == "" {
		format = "zip"
	}

	if format == "zip" {
		return a.runZip(outDir, exportDir, rep)
	}
	return a.runMP4(ctx, u, outDir, exportDir, rep)
}

// runZip archives every file under outDir (excluding only the bundle.zip
// being written) with DEFLATE compression, matching the
// semantics of Python's zipfile.ZIP_DEFLATED.
func (a *Adapter) runZip(outDir, exportDir string, rep *reporter.Reporter) domain.AdapterResult {
	zipPath := filepath.Join(exportDir, "bundle.zip")
	f, err := os.Create(zipPath)
	if err != nil {
		e := domain.NewAdapterError(domain.ErrIOWrite, err.Error(), nil)
		return domain.AdapterResult{OK: false, Provider: ProviderID, Error: &e}
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	walkErr := filepath.WalkDir(outDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(outDir, path)
		if err != nil {
			return err
		}
		if rel == filepath.Join("export", "bundle.zip") {
			return nil
		}
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:   filepath.ToSlash(rel),
			Method: zip.Deflate,
		})
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(w, src)
		return err
	})
	if walkErr != nil {
		zw.Close()
		e := domain.NewAdapterError(domain.ErrIOWrite, walkErr.Error(), nil)
		return domain.AdapterResult{OK: false, Provider: ProviderID, Error: &e}
	}
	if err := zw.Close(); err != nil {
		e := domain.NewAdapterError(domain.ErrIOWrite, err.Error(), nil)
		return domain.AdapterResult{OK: false, Provider: ProviderID, Error: &e}
	}

	rep.Progress(0.9, "bundled artifacts into zip")

	ref, err := adapter.BuildAssetRef(outDir, zipPath, "export_zip", "application/zip")
	if err != nil {
		e := domain.NewAdapterError(domain.ErrIOWrite, err.Error(), nil)
		return domain.AdapterResult{OK: false, Provider: ProviderID, Error: &e}
	}

	return domain.AdapterResult{
		OK:        true,
		Provider:  ProviderID,
		Artifacts: []domain.AssetRef{ref},
		Meta:      map[string]any{"format": "zip"},
	}
}

// runMP4 composites the scene panorama (scaled and cropped as the
// background) with the preview thumbnail (scaled to 45% of the background
// height, anchored bottom-right with a fixed margin) and the generated
// music track, via a single ffmpeg filter graph.
func (a *Adapter) runMP4(ctx context.Context, u *domain.UIR, outDir, exportDir string, rep *reporter.Reporter) domain.AdapterResult {
	background := filepath.Join(outDir, "scene", "panorama.png")
	foreground := filepath.Join(outDir, "preview", "preview_thumb.png")
	audio := filepath.Join(outDir, "music", "music.wav")

	if !fileExists(background) {
		e := domain.NewAdapterError(domain.ErrDependencyMissing, "scene panorama not found for export", nil)
		return domain.AdapterResult{OK: false, Provider: ProviderID, Error: &e}
	}

	width, height := 1920, 1080
	durationS := u.Intent.DurationS
	if durationS <= 0 {
		durationS = 10
	}

	mp4Path := filepath.Join(exportDir, "final.mp4")
	logPath := filepath.Join(outDir, "logs", "export.log")

	filter := fmt.Sprintf(
		"[0:v]scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d[bg]",
		width, height, width, height,
	)

	args := []string{"-y", "-loop", "1", "-i", background}
	inputIdx := 1
	fgIdx := -1
	if fileExists(foreground) {
		args = append(args, "-loop", "1", "-i", foreground)
		fgIdx = inputIdx
		inputIdx++
		filter += fmt.Sprintf(";[%d:v]scale=-2:round(0.45*%d)[fg];[bg][fg]overlay=W-w-%d:H-h-%d:shortest=1[outv]",
			fgIdx, height, margin, margin)
	} else {
		filter += ";[bg]null[outv]"
	}

	mapArgs := []string{"-map", "[outv]"}
	if fileExists(audio) {
		args = append(args, "-i", audio)
		mapArgs = append(mapArgs, "-map", fmt.Sprint(inputIdx, ":a"))
		inputIdx++
	}

	args = append(args, "-filter_complex", filter)
	args = append(args, mapArgs...)
	args = append(args, "-t", fmt.Sprint(durationS), "-pix_fmt", "yuv420p", "-shortest", mp4Path)

	timeout := time.Duration(u.Constraints.MaxRuntimeS) * time.Second
	_, adapterErr := subprocx.Run(ctx, subprocx.RunOpts{
		Name:    a.binPath,
		Args:    args,
		Dir:     exportDir,
		Timeout: timeout,
		OnTick: func(elapsed, timeout time.Duration) {
			rep.Progress(subprocx.FractionOf(elapsed, timeout), "compositing export video")
		},
	})
	_ = logPath
	if adapterErr != nil {
		return domain.AdapterResult{OK: false, Provider: ProviderID, Error: adapterErr}
	}

	ref, err := adapter.BuildAssetRef(outDir, mp4Path, "export_mp4", "video/mp4")
	if err != nil {
		e := domain.NewAdapterError(domain.ErrIOWrite, err.Error(), nil)
		return domain.AdapterResult{OK: false, Provider: ProviderID, Error: &e}
	}
	ref.Meta = map[string]any{"width": width, "height": height, "duration_s": durationS}

	return domain.AdapterResult{
		OK:        true,
		Provider:  ProviderID,
		Artifacts: []domain.AssetRef{ref},
		Meta:      map[string]any{"format": "mp4", "duration_s": durationS},
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
