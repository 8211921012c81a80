package adapter

import (
	"context"
	"testing"

	"github.com/yungbote/media-orchestrator/internal/domain"
	"github.com/yungbote/media-orchestrator/internal/reporter"
)

type fakeAdapter struct {
	providerID string
	modality   string
}

func (f fakeAdapter) ProviderID() string    { return f.providerID }
func (f fakeAdapter) Modality() string      { return f.modality }
func (f fakeAdapter) MaxConcurrency() int   { return 0 }
func (f fakeAdapter) Validate(*domain.UIR) *domain.AdapterError { return nil }
func (f fakeAdapter) Run(context.Context, *domain.UIR, string, *reporter.Reporter) domain.AdapterResult {
	return domain.AdapterResult{OK: true, Provider: f.providerID}
}

func TestRegistryResolveReturnsRegisteredAdapter(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeAdapter{providerID: "scene.default", modality: "scene"})

	got, err := r.Resolve("scene.default")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.ProviderID() != "scene.default" {
		t.Fatalf("Resolve: want=scene.default got=%s", got.ProviderID())
	}
}

func TestRegistryResolveUnknownProviderErrors(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Resolve("scene.unknown"); err == nil {
		t.Fatalf("expected an error resolving an unregistered provider")
	}
}

func TestRegistryRegisterLastWins(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeAdapter{providerID: "scene.default", modality: "scene"})
	r.Register(fakeAdapter{providerID: "scene.default", modality: "scene-v2"})

	got, err := r.Resolve("scene.default")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.Modality() != "scene-v2" {
		t.Fatalf("expected the second registration to win, got modality=%s", got.Modality())
	}
}

func TestRegistryForModalityFiltersByModality(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeAdapter{providerID: "scene.default", modality: "scene"})
	r.Register(fakeAdapter{providerID: "scene.alt", modality: "scene"})
	r.Register(fakeAdapter{providerID: "music.default", modality: "music"})

	got := r.ForModality("scene")
	if len(got) != 2 {
		t.Fatalf("ForModality(scene): want=2 got=%d", len(got))
	}
}

func TestRegistryAllReturnsEveryAdapter(t *testing.T) {
	r := NewRegistry()
	r.Register(fakeAdapter{providerID: "scene.default", modality: "scene"})
	r.Register(fakeAdapter{providerID: "music.default", modality: "music"})

	if got := len(r.All()); got != 2 {
		t.Fatalf("All: want=2 got=%d", got)
	}
}
