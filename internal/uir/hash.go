package uir

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/yungbote/media-orchestrator/internal/domain"
)

// StableHash computes the canonical stable hash of a validated UIR: its
// typed fields (post-defaulting, post-validation) are rebuilt into a
// map[string]any with job.created_at omitted — a job's identity must not
// depend on when it was created — and every null-valued field dropped, so
// two UIRs that differ only in whether an optional field was submitted as
// an explicit null or left out entirely still hash identically. The result
// is marshaled through encoding/json on that map, which already emits
// object keys in sorted order, and SHA-256'd. The hash is prefixed
// "sha256:" to make its algorithm self-describing on the wire.
//
// encoding/json's sorted-key map marshaling gives a compact, sorted-key
// form; '<', '>' and '&' are written as Unicode escapes, and non-ASCII
// characters are written as raw UTF-8.
func StableHash(u *domain.UIR) (string, error) {
	canonical := uirToMap(u)
	b, err := canonicalJSON(canonical)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}

// uirToMap rebuilds a UIR's canonical JSON-able form from its validated,
// defaulted typed fields rather than the raw pre-validation payload.
func uirToMap(u *domain.UIR) map[string]any {
	m := map[string]any{
		"uir_version": u.UIRVersion,
		"job":         map[string]any{"id": u.Job.ID},
		"input":       inputMap(u.Input),
		"intent":      intentMap(u.Intent),
	}

	if len(u.Modules) > 0 {
		mods := make(map[string]any, len(u.Modules))
		for name, mod := range u.Modules {
			mods[name] = dropNulls(mod.Fields)
		}
		m["modules"] = mods
	}

	if len(u.Routing) > 0 {
		routing := make(map[string]any, len(u.Routing))
		for name, r := range u.Routing {
			routing[name] = map[string]any{"provider": r.Provider}
		}
		m["routing"] = routing
	}

	constraints := map[string]any{}
	if u.Constraints.MaxRuntimeS > 0 {
		constraints["max_runtime_s"] = u.Constraints.MaxRuntimeS
	}
	if u.Constraints.Quality != "" {
		constraints["quality"] = u.Constraints.Quality
	}
	if len(constraints) > 0 {
		m["constraints"] = constraints
	}

	runtime := map[string]any{}
	if u.Runtime.Priority != 0 {
		runtime["priority"] = u.Runtime.Priority
	}
	if u.Runtime.ConcurrencyKey != "" {
		runtime["concurrency_key"] = u.Runtime.ConcurrencyKey
	}
	if len(u.Runtime.Locks) > 0 {
		runtime["locks"] = dropNulls(u.Runtime.Locks)
	}
	if len(runtime) > 0 {
		m["runtime"] = runtime
	}

	if u.Hooks.EventStream {
		m["hooks"] = map[string]any{"event_stream": true}
	}

	return m
}

func inputMap(in domain.UIRInput) map[string]any {
	m := map[string]any{"raw_prompt": in.RawPrompt}
	if in.Lang != "" {
		m["lang"] = in.Lang
	}
	if len(in.References) > 0 {
		refs := make([]any, len(in.References))
		for i, r := range in.References {
			refs[i] = r
		}
		m["references"] = refs
	}
	if len(in.UIChoices) > 0 {
		m["ui_choices"] = dropNulls(in.UIChoices)
	}
	return m
}

func intentMap(in domain.UIRIntent) map[string]any {
	targets := make([]any, len(in.Targets))
	for i, t := range in.Targets {
		targets[i] = t
	}
	m := map[string]any{"targets": targets, "duration_s": in.DurationS}
	if in.Style != "" {
		m["style"] = in.Style
	}
	if in.Mood != "" {
		m["mood"] = in.Mood
	}
	return m
}

// dropNulls deep-copies v, omitting any map key whose value is nil so that
// an explicit JSON null and an omitted field hash identically.
func dropNulls(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if val == nil {
				continue
			}
			out[k] = dropNulls(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = dropNulls(val)
		}
		return out
	default:
		return v
	}
}

// canonicalJSON marshals v with sorted object keys, compact separators, and
// HTML-safe escaping, without the trailing newline.
func canonicalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// Encode appends a trailing newline; the hash must be stable regardless.
	out := buf.Bytes()
	if len(out) > 0 && out[len(out)-1] == '\n' {
		out = out[:len(out)-1]
	}
	return out, nil
}
