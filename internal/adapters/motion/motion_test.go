package motion

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
	a := New(testLogger(t), "animationgpt")
	u := &domain.UIR{Modules: map[string]domain.Module{"motion": {Enabled: false}}}

	err := a.Validate(u)
	if err == nil || err.Code != domain.ErrValidationInput {
		t.Fatalf("expected E_VALIDATION_INPUT, got %+v", err)
	}
}

func TestValidateRejectsOutOfRangeFPS(t *testing.T) {
	a := New(testLogger(t), "animationgpt")
	u := &domain.UIR{Modules: map[string]domain.Module{
		"motion": {Enabled: true, Fields: map[string]any{"fps": 120.0}},
	}}

	err := a.Validate(u)
	if err == nil || err.Code != domain.ErrValidationInput {
		t.Fatalf("expected E_VALIDATION_INPUT for out-of-range fps, got %+v", err)
	}
}
