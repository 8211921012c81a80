// Package character implements "character.builtin_library": a static
// 5-entry character library matched against style/mood tokens, with an
// explicit character_id short-circuit.
package character

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yungbote/media-orchestrator/internal/adapter"
	"github.com/yungbote/media-orchestrator/internal/clients/gcp"
	"github.com/yungbote/media-orchestrator/internal/domain"
	"github.com/yungbote/media-orchestrator/internal/platform/logger"
	"github.com/yungbote/media-orchestrator/internal/reporter"
)

const ProviderID = "character.default"

// entry is one character in the static library.
type entry struct {
	ID     string
	Tokens []string
}

// library is fixed and ordered; order is the tie-break when scores match.
var library = []entry{
	{ID: "samurai_01", Tokens: []string{"samurai", "katana", "armor", "japanese", "warrior"}},
	{ID: "anime_01", Tokens: []string{"anime", "stylized", "colorful", "cel-shaded"}},
	{ID: "toon_01", Tokens: []string{"toon", "cartoon", "playful", "comedic"}},
	{ID: "lowpoly_01", Tokens: []string{"lowpoly", "geometric", "minimal", "retro"}},
	{ID: "realistic_01", Tokens: []string{"realistic", "cinematic", "photoreal", "serious"}},
}

// Adapter is the builtin_library character adapter. Vision is optional;
// when nil, reference-image label enrichment is skipped entirely.
type Adapter struct {
	log    *logger.Logger
	vision gcp.Vision
	base   string
}

func New(log *logger.Logger, vision gcp.Vision, staticBase string) *Adapter {
	if staticBase == "" {
		staticBase = "https://static.local/characters"
	}
	return &Adapter{log: log.With("adapter", ProviderID), vision: vision, base: staticBase}
}

func (a *Adapter) ProviderID() string  { return ProviderID }
func (a *Adapter) Modality() string    { return "character" }
func (a *Adapter) MaxConcurrency() int { return 0 }

func (a *Adapter) Validate(u *domain.UIR) *domain.AdapterError {
	mod, ok := u.Modules["character"]
	if !ok || !mod.Enabled {
		e := domain.NewAdapterError(domain.ErrValidationInput, "character module not enabled", nil)
		return &e
	}
	if id, ok := mod.Fields["character_id"].(string); ok && id != "" {
		if !knownID(id) {
			e := domain.NewAdapterError(domain.ErrValidationInput, "unknown character_id", map[string]any{"character_id": id})
			return &e
		}
	}
	return nil
}

func knownID(id string) bool {
	for _, e := range library {
		if e.ID == id {
			return true
		}
	}
	return false
}

func (a *Adapter) Run(ctx context.Context, u *domain.UIR, outDir string, rep *reporter.Reporter) domain.AdapterResult {
	fields := u.Modules["character"].Fields

	if id, ok := fields["character_id"].(string); ok && id != "" {
		return a.finish(outDir, id, map[string]any{"selection": "explicit"})
	}

	tokens := gatherTokens(u)
	if a.vision != nil && len(u.Input.References) > 0 {
		if labels, err := a.enrichFromReference(ctx, u.Input.References[0]); err == nil {
			for _, l := range labels {
				tokens = append(tokens, strings.ToLower(l.Description))
			}
		} else {
			rep.Log("RUNNING_CHARACTER", "warn", "vision label enrichment skipped: "+err.Error())
		}
	}

	best := selectBest(tokens)
	return a.finish(outDir, best, map[string]any{"selection": "scored", "tokens": tokens})
}

// selectBest scores every library entry by token intersection count,
// keeping library order as the tie-break.
func selectBest(tokens []string) string {
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[strings.ToLower(strings.TrimSpace(t))] = true
	}

	bestIdx, bestScore := 0, -1
	for i, e := range library {
		score := 0
		for _, t := range e.Tokens {
			if set[t] {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	return library[bestIdx].ID
}

func gatherTokens(u *domain.UIR) []string {
	var out []string
	fields := u.Modules["character"].Fields
	if style, ok := fields["style"].(string); ok {
		out = append(out, splitWords(style)...)
	}
	if motion, ok := u.Modules["motion"]; ok {
		if style, ok := motion.Fields["style"].(string); ok {
			out = append(out, splitWords(style)...)
		}
	}
	out = append(out, splitWords(u.Intent.Style)...)
	out = append(out, splitWords(u.Intent.Mood)...)
	sort.Strings(out)
	return out
}

func splitWords(s string) []string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == ','
	})
}

// enrichFromReference fetches the first reference image (an http(s) URI)
// and runs Vision label detection on it. Best-effort: any failure is
// returned as an error for the caller to log and ignore, never fails the
// stage.
func (a *Adapter) enrichFromReference(ctx context.Context, uri string) ([]gcp.Label, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	buf := make([]byte, 0, 1<<20)
	chunk := make([]byte, 32*1024)
	for {
		n, err := resp.Body.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
		}
		if err != nil {
			break
		}
		if len(buf) > 10<<20 {
			break
		}
	}
	return a.vision.DetectLabels(ctx, buf)
}

func (a *Adapter) finish(outDir, characterID string, selectionMeta map[string]any) domain.AdapterResult {
	manifest := map[string]any{
		"character_id": characterID,
		"model_uri":    a.base + "/" + characterID + "/model.glb",
		"selection":    selectionMeta,
	}
	characterDir := filepath.Join(outDir, "character")
	if err := os.MkdirAll(characterDir, 0o755); err != nil {
		e := domain.NewAdapterError(domain.ErrIOWrite, err.Error(), nil)
		return domain.AdapterResult{OK: false, Provider: ProviderID, Error: &e}
	}
	path := filepath.Join(characterDir, "character_manifest.json")
	if err := writeJSON(path, manifest); err != nil {
		e := domain.NewAdapterError(domain.ErrIOWrite, err.Error(), nil)
		return domain.AdapterResult{OK: false, Provider: ProviderID, Error: &e}
	}

	ref, err := adapter.BuildAssetRef(outDir, path, "character_manifest", "application/json")
	if err != nil {
		e := domain.NewAdapterError(domain.ErrIOWrite, err.Error(), nil)
		return domain.AdapterResult{OK: false, Provider: ProviderID, Error: &e}
	}
	ref.Meta = map[string]any{"character_id": characterID}

	return domain.AdapterResult{
		OK:        true,
		Provider:  ProviderID,
		Artifacts: []domain.AssetRef{ref},
		Meta:      map[string]any{"character_id": characterID},
	}
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
