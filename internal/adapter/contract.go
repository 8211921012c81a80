// Package adapter defines the contract every stage implementation honors
// and the registry that resolves a modality + provider_id pair to one.
package adapter

import (
	"context"

	"github.com/yungbote/media-orchestrator/internal/domain"
	"github.com/yungbote/media-orchestrator/internal/reporter"
)

// Adapter is one concrete implementation of one modality (e.g. the
// diffusion-panorama scene adapter, the ffmpeg export adapter). A given
// modality may have several Adapters registered under different
// provider ids; routing.<modality>.provider in the UIR selects which one
// runs.
type Adapter interface {
	// ProviderID is this adapter's routing key, e.g. "scene.default".
	ProviderID() string
	// Modality is the UIR module this adapter implements, e.g. "scene".
	Modality() string
	// MaxConcurrency bounds how many jobs may run this adapter at once
	// across the whole process; 0 means unbounded (still subject to the
	// scheduler's global worker pool size).
	MaxConcurrency() int
	// Validate performs adapter-specific semantic checks beyond the UIR
	// validator's generic structural/semantic rules, returning a non-nil
	// *domain.AdapterError (never a bare error) on failure.
	Validate(u *domain.UIR) *domain.AdapterError
	// Run executes the stage, writing any artifacts under outDir and
	// reporting progress/logs/assets through rep. outDir is the job's own
	// directory; each adapter writes under its modality's subdirectory.
	Run(ctx context.Context, u *domain.UIR, outDir string, rep *reporter.Reporter) domain.AdapterResult
}
