package uir

import "testing"

func validPayload() map[string]any {
	return map[string]any{
		"uir_version": "1.0",
		"job":         map[string]any{"id": "job-1", "created_at": "2026-01-01T00:00:00Z"},
		"input":       map[string]any{"raw_prompt": "a lone samurai in a bamboo forest"},
		"intent": map[string]any{
			"targets":    []any{"scene", "motion"},
			"duration_s": float64(12),
		},
		"modules": map[string]any{
			"scene":     map[string]any{"enabled": true},
			"motion":    map[string]any{"enabled": true},
			"music":     map[string]any{"enabled": false},
			"character": map[string]any{"enabled": false},
			"preview":   map[string]any{"enabled": false},
			"export":    map[string]any{"enabled": false},
		},
	}
}

func TestValidateAcceptsWellFormedPayload(t *testing.T) {
	u, err := Validate(validPayload())
	if err != nil {
		t.Fatalf("Validate: unexpected error: %v", err)
	}
	if u.Input.RawPrompt == "" {
		t.Fatalf("expected raw_prompt to be carried through")
	}
	if !u.Enabled("scene") || !u.Enabled("motion") {
		t.Fatalf("expected scene and motion enabled")
	}
}

func TestValidateRejectsWrongVersion(t *testing.T) {
	p := validPayload()
	p["uir_version"] = "0.9"
	if _, err := Validate(p); err == nil {
		t.Fatalf("expected error for wrong uir_version")
	}
}

func TestValidateRejectsEmptyPrompt(t *testing.T) {
	p := validPayload()
	p["input"].(map[string]any)["raw_prompt"] = ""
	if _, err := Validate(p); err == nil {
		t.Fatalf("expected error for empty raw_prompt")
	}
}

func TestValidateRejectsEnabledModuleNotTargeted(t *testing.T) {
	p := validPayload()
	p["modules"].(map[string]any)["music"] = map[string]any{"enabled": true, "duration_s": float64(10)}
	if _, err := Validate(p); err == nil {
		t.Fatalf("expected error: music enabled but not in intent.targets")
	}
}

func TestValidateRejectsDuplicateTargets(t *testing.T) {
	p := validPayload()
	p["intent"].(map[string]any)["targets"] = []any{"scene", "scene"}
	if _, err := Validate(p); err == nil {
		t.Fatalf("expected error for duplicate targets")
	}
}

func TestValidateEnforcesSceneResolutionBounds(t *testing.T) {
	p := validPayload()
	p["modules"].(map[string]any)["scene"] = map[string]any{
		"enabled":    true,
		"resolution": []any{float64(1024), float64(256)},
	}
	if _, err := Validate(p); err == nil {
		t.Fatalf("expected error: height 256 below minimum 512")
	}
}

func TestValidateEnforcesSceneWidthIsDoubleHeight(t *testing.T) {
	p := validPayload()
	p["modules"].(map[string]any)["scene"] = map[string]any{
		"enabled":    true,
		"resolution": []any{float64(1024), float64(1024)},
	}
	if _, err := Validate(p); err == nil {
		t.Fatalf("expected error: width must equal 2*height")
	}
}

func TestValidateEnforcesMusicDurationBounds(t *testing.T) {
	p := validPayload()
	p["intent"].(map[string]any)["targets"] = []any{"scene", "motion", "music"}
	p["modules"].(map[string]any)["music"] = map[string]any{"enabled": true, "duration_s": float64(120)}
	if _, err := Validate(p); err == nil {
		t.Fatalf("expected error: music duration_s 120 exceeds max 60")
	}
}

func TestApplyDefaultsCopiesIntentDurationIntoMotion(t *testing.T) {
	p := validPayload()
	p["intent"].(map[string]any)["duration_s"] = float64(20)
	u, err := Validate(p)
	if err != nil {
		t.Fatalf("Validate: unexpected error: %v", err)
	}
	d, ok := u.Modules["motion"].Fields["duration_s"].(float64)
	if !ok || d != 20 {
		t.Fatalf("expected motion.duration_s defaulted to 20, got %v", u.Modules["motion"].Fields["duration_s"])
	}
}
