package scene

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
	a := New(testLogger(t), "diffusion360")
	u := &domain.UIR{Modules: map[string]domain.Module{"scene": {Enabled: false}}}

	err := a.Validate(u)
	if err == nil || err.Code != domain.ErrValidationInput {
		t.Fatalf("expected E_VALIDATION_INPUT, got %+v", err)
	}
}

func TestValidateRejectsMalformedResolution(t *testing.T) {
	a := New(testLogger(t), "diffusion360")
	u := &domain.UIR{Modules: map[string]domain.Module{
		"scene": {Enabled: true, Fields: map[string]any{"resolution": []any{2048.0}}},
	}}

	err := a.Validate(u)
	if err == nil || err.Code != domain.ErrValidationInput {
		t.Fatalf("expected E_VALIDATION_INPUT for malformed resolution, got %+v", err)
	}
}

func TestProviderIDAndModality(t *testing.T) {
	a := New(testLogger(t), "diffusion360")
	if a.ProviderID() != "scene.default" {
		t.Fatalf("ProviderID: want=scene.default got=%s", a.ProviderID())
	}
	if a.Modality() != "scene" {
		t.Fatalf("Modality: want=scene got=%s", a.Modality())
	}
}
