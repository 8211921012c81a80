package uir

import (
	"strings"
	"testing"

	"github.com/yungbote/media-orchestrator/internal/domain"
)

func validUIR(t *testing.T, raw map[string]any) *domain.UIR {
	t.Helper()
	u, err := Validate(raw)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	return u
}

func baseRaw() map[string]any {
	return map[string]any{
		"uir_version": "1.0",
		"job":         map[string]any{"id": "job-1", "created_at": "2026-01-01T00:00:00Z"},
		"input":       map[string]any{"raw_prompt": "a lone samurai"},
		"intent":      map[string]any{"targets": []any{"scene"}, "duration_s": 10.0},
		"modules": map[string]any{
			"scene":     map[string]any{"enabled": true},
			"motion":    map[string]any{"enabled": false},
			"music":     map[string]any{"enabled": false},
			"character": map[string]any{"enabled": false},
			"preview":   map[string]any{"enabled": false},
			"export":    map[string]any{"enabled": false},
		},
	}
}

func TestStableHashStable(t *testing.T) {
	u := validUIR(t, baseRaw())
	h1, err := StableHash(u)
	if err != nil {
		t.Fatalf("StableHash: %v", err)
	}
	h2, err := StableHash(u)
	if err != nil {
		t.Fatalf("StableHash: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("expected deterministic hash: %q != %q", h1, h2)
	}
	if !strings.HasPrefix(h1, "sha256:") {
		t.Fatalf("expected sha256: prefix, got %q", h1)
	}
}

func TestStableHashIgnoresCreatedAt(t *testing.T) {
	raw1 := baseRaw()
	raw2 := baseRaw()
	raw2["job"].(map[string]any)["created_at"] = "2099-12-31T23:59:59Z"

	h1, _ := StableHash(validUIR(t, raw1))
	h2, _ := StableHash(validUIR(t, raw2))
	if h1 != h2 {
		t.Fatalf("expected hash to ignore job.created_at: %q != %q", h1, h2)
	}
}

func TestStableHashChangesWithContent(t *testing.T) {
	raw1 := baseRaw()
	raw2 := baseRaw()
	raw2["input"].(map[string]any)["raw_prompt"] = "a lone ronin"

	h1, _ := StableHash(validUIR(t, raw1))
	h2, _ := StableHash(validUIR(t, raw2))
	if h1 == h2 {
		t.Fatalf("expected differing hashes for differing content")
	}
}

// An explicit JSON null for an optional module field and the field being
// omitted entirely must hash identically, since both mean "not set" once
// validated.
func TestStableHashTreatsExplicitNullSameAsOmitted(t *testing.T) {
	rawNull := baseRaw()
	rawNull["modules"].(map[string]any)["scene"] = map[string]any{"enabled": true, "seed": nil}
	rawOmitted := baseRaw()
	rawOmitted["modules"].(map[string]any)["scene"] = map[string]any{"enabled": true}

	h1, err := StableHash(validUIR(t, rawNull))
	if err != nil {
		t.Fatalf("StableHash: %v", err)
	}
	h2, err := StableHash(validUIR(t, rawOmitted))
	if err != nil {
		t.Fatalf("StableHash: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("expected explicit null and omitted field to hash identically: %q != %q", h1, h2)
	}
}

func TestStableHashDoesNotMutateUIRModules(t *testing.T) {
	raw := baseRaw()
	raw["modules"].(map[string]any)["scene"] = map[string]any{"enabled": true, "seed": nil}
	u := validUIR(t, raw)

	if _, err := StableHash(u); err != nil {
		t.Fatalf("StableHash: %v", err)
	}
	if _, ok := u.Modules["scene"].Fields["seed"]; !ok {
		t.Fatalf("expected StableHash to leave the UIR's own module fields untouched")
	}
}
