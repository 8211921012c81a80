package export

import (
	"testing"

	"github.com/yungbote/media-orchestrator/internal/domain"
	"github.com/yungbote/media-orchestrator/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(func() { log.Sync() })
	return log
}

func TestValidateRejectsDisabledModule(t *testing.T) {
	a := New(testLogger(t), "ffmpeg")
	u := &domain.UIR{Modules: map[string]domain.Module{"export": {Enabled: false}}}

	err := a.Validate(u)
	if err == nil || err.Code != domain.ErrValidationInput {
		t.Fatalf("expected E_VALIDATION_INPUT, got %+v", err)
	}
}

func TestValidateRejectsUnknownFormat(t *testing.T) {
	a := New(testLogger(t), "ffmpeg")
	u := &domain.UIR{Modules: map[string]domain.Module{
		"export": {Enabled: true, Fields: map[string]any{"format": "avi"}},
	}}

	err := a.Validate(u)
	if err == nil || err.Code != domain.ErrValidationInput {
		t.Fatalf("expected E_VALIDATION_INPUT for unknown format, got %+v", err)
	}
}

func TestValidateDefaultsToZipWithoutRequiringFFmpeg(t *testing.T) {
	a := New(testLogger(t), "/nonexistent/ffmpeg-binary-that-does-not-exist")
	u := &domain.UIR{Modules: map[string]domain.Module{
		"export": {Enabled: true, Fields: map[string]any{}},
	}}

	if err := a.Validate(u); err != nil {
		t.Fatalf("zip format must not require ffmpeg, got error: %+v", err)
	}
}

func TestValidateMP4RequiresFFmpegBinary(t *testing.T) {
	a := New(testLogger(t), "/nonexistent/ffmpeg-binary-that-does-not-exist")
	u := &domain.UIR{Modules: map[string]domain.Module{
		"export": {Enabled: true, Fields: map[string]any{"format": "mp4"}},
	}}

	err := a.Validate(u)
	if err == nil || err.Code != domain.ErrDependencyMissing {
		t.Fatalf("expected E_DEPENDENCY_MISSING for missing ffmpeg binary, got %+v", err)
	}
}
