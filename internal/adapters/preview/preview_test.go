package preview

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
	a := New(testLogger(t))
	u := &domain.UIR{Modules: map[string]domain.Module{"preview": {Enabled: false}}}

	err := a.Validate(u)
	if err == nil || err.Code != domain.ErrValidationInput {
		t.Fatalf("expected E_VALIDATION_INPUT, got %+v", err)
	}
}

func TestValidateAcceptsEnabledModule(t *testing.T) {
	a := New(testLogger(t))
	u := &domain.UIR{Modules: map[string]domain.Module{"preview": {Enabled: true, Fields: map[string]any{}}}}

	if err := a.Validate(u); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
}

func TestFormatDuration(t *testing.T) {
	got := formatDuration(12.5)
	want := "duration 12.5s"
	if got != want {
		t.Fatalf("formatDuration: want=%q got=%q", want, got)
	}
}
