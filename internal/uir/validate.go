// Package uir implements the Unified Intermediate Representation's
// validator and canonical stable-hash routine. The validator is
// hand-written against encoding/json-decoded maps rather than built on a
// schema library, matching how handlers and domain layers elsewhere in
// this codebase hand-check fields instead of reaching for one.
package uir

import (
	"fmt"
	"sort"

	"github.com/yungbote/media-orchestrator/internal/domain"
)

// FieldError is one structural or semantic validation failure.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

func (e FieldError) LocString() string {
	out := ""
	for i, p := range e.Loc {
		if i > 0 {
			out += "."
		}
		out += p
	}
	return out
}

// ValidationError is returned when a payload fails validation; it carries
// every accumulated FieldError, structural and semantic alike.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "uir validation failed"
	}
	return fmt.Sprintf("uir validation failed: %s: %s", e.Errors[0].LocString(), e.Errors[0].Msg)
}

var knownModalities = func() map[string]bool {
	out := make(map[string]bool, len(domain.Modalities))
	for _, m := range domain.Modalities {
		out[m] = true
	}
	return out
}()

// Validate takes a decoded JSON payload (map[string]any, as produced by
// encoding/json.Unmarshal into `any`) and returns a typed, defaulted UIR, or
// a *ValidationError listing every structural and semantic failure.
func Validate(raw map[string]any) (*domain.UIR, error) {
	var errs []FieldError

	version, _ := raw["uir_version"].(string)
	if version != "1.0" {
		errs = append(errs, FieldError{Loc: []string{"uir_version"}, Msg: "must equal \"1.0\"", Type: "value_error"})
	}

	u := &domain.UIR{UIRVersion: version, Raw: raw}

	jobRaw, _ := raw["job"].(map[string]any)
	u.Job = domain.UIRJob{}
	if jobRaw != nil {
		u.Job.ID, _ = jobRaw["id"].(string)
		u.Job.CreatedAt, _ = jobRaw["created_at"].(string)
	}

	inputRaw, _ := raw["input"].(map[string]any)
	if inputRaw == nil {
		errs = append(errs, FieldError{Loc: []string{"input"}, Msg: "field required", Type: "missing"})
	} else {
		prompt, _ := inputRaw["raw_prompt"].(string)
		if prompt == "" {
			errs = append(errs, FieldError{Loc: []string{"input", "raw_prompt"}, Msg: "must not be empty", Type: "value_error"})
		}
		u.Input.RawPrompt = prompt
		u.Input.Lang, _ = inputRaw["lang"].(string)
		if refsRaw, ok := inputRaw["references"].([]any); ok {
			for _, r := range refsRaw {
				if s, ok := r.(string); ok {
					u.Input.References = append(u.Input.References, s)
				}
			}
		}
		if uic, ok := inputRaw["ui_choices"].(map[string]any); ok {
			u.Input.UIChoices = uic
		}
	}

	intentRaw, _ := raw["intent"].(map[string]any)
	u.Intent.DurationS = 12
	if intentRaw == nil {
		errs = append(errs, FieldError{Loc: []string{"intent"}, Msg: "field required", Type: "missing"})
	} else {
		targets := parseTargets(intentRaw["targets"])
		seen := map[string]bool{}
		dupe := false
		for _, t := range targets {
			if !knownModalities[t] {
				errs = append(errs, FieldError{Loc: []string{"intent", "targets"}, Msg: fmt.Sprintf("unknown module %q", t), Type: "value_error"})
			}
			if seen[t] {
				dupe = true
			}
			seen[t] = true
		}
		if dupe {
			errs = append(errs, FieldError{Loc: []string{"intent", "targets"}, Msg: "targets must be unique", Type: "value_error"})
		}
		if len(targets) == 0 {
			errs = append(errs, FieldError{Loc: []string{"intent", "targets"}, Msg: "must not be empty", Type: "value_error"})
		}
		u.Intent.Targets = targets

		if d, ok := numberOf(intentRaw["duration_s"]); ok {
			u.Intent.DurationS = d
		}
		if u.Intent.DurationS < 1 {
			errs = append(errs, FieldError{Loc: []string{"intent", "duration_s"}, Msg: "must be >= 1", Type: "value_error"})
		}
		u.Intent.Style, _ = intentRaw["style"].(string)
		u.Intent.Mood, _ = intentRaw["mood"].(string)
	}

	modulesRaw, _ := raw["modules"].(map[string]any)
	u.Modules = make(map[string]domain.Module, len(domain.Modalities))
	for _, name := range domain.Modalities {
		modRaw, ok := modulesRaw[name].(map[string]any)
		if !ok {
			errs = append(errs, FieldError{Loc: []string{"modules", name}, Msg: "field required", Type: "missing"})
			continue
		}
		enabled, _ := modRaw["enabled"].(bool)
		u.Modules[name] = domain.Module{Enabled: enabled, Fields: modRaw}
	}

	errs = append(errs, validateModuleBounds(u)...)

	if routingRaw, ok := raw["routing"].(map[string]any); ok {
		u.Routing = make(map[string]domain.Routing, len(routingRaw))
		for k, v := range routingRaw {
			if m, ok := v.(map[string]any); ok {
				provider, _ := m["provider"].(string)
				u.Routing[k] = domain.Routing{Provider: provider}
			}
		}
	}

	if constraintsRaw, ok := raw["constraints"].(map[string]any); ok {
		if mr, ok := numberOf(constraintsRaw["max_runtime_s"]); ok {
			u.Constraints.MaxRuntimeS = mr
		}
		u.Constraints.Quality, _ = constraintsRaw["quality"].(string)
	}

	if runtimeRaw, ok := raw["runtime"].(map[string]any); ok {
		if pr, ok := numberOf(runtimeRaw["priority"]); ok {
			u.Runtime.Priority = int(pr)
		}
		u.Runtime.ConcurrencyKey, _ = runtimeRaw["concurrency_key"].(string)
		if locks, ok := runtimeRaw["locks"].(map[string]any); ok {
			u.Runtime.Locks = locks
		}
	}

	if hooksRaw, ok := raw["hooks"].(map[string]any); ok {
		u.Hooks.EventStream, _ = hooksRaw["event_stream"].(bool)
	}

	// Semantic rule: every enabled module must be a requested target.
	// Checked after structural validation, but errors are accumulated
	// together rather than short-circuiting (spec §4.1).
	targets := u.Targets()
	for _, name := range domain.Modalities {
		mod, ok := u.Modules[name]
		if !ok || !mod.Enabled {
			continue
		}
		if !targets[name] {
			errs = append(errs, FieldError{
				Loc:  []string{"modules", name, "enabled"},
				Msg:  "enabled module must be listed in intent.targets",
				Type: "value_error",
			})
		}
	}

	if len(errs) > 0 {
		sort.SliceStable(errs, func(i, j int) bool { return errs[i].LocString() < errs[j].LocString() })
		return nil, &ValidationError{Errors: errs}
	}

	applyDefaults(u)
	return u, nil
}

// validateModuleBounds enforces the numeric bounds spec §4.1/§6.2 names:
// motion.fps, scene.resolution, music.duration_s.
func validateModuleBounds(u *domain.UIR) []FieldError {
	var errs []FieldError

	if scene, ok := u.Modules["scene"]; ok && scene.Fields != nil {
		if res, ok := scene.Fields["resolution"].([]any); ok {
			if len(res) != 2 {
				errs = append(errs, FieldError{Loc: []string{"modules", "scene", "resolution"}, Msg: "must be [W, H]", Type: "value_error"})
			} else {
				w, wOk := numberOf(res[0])
				h, hOk := numberOf(res[1])
				if !wOk || !hOk {
					errs = append(errs, FieldError{Loc: []string{"modules", "scene", "resolution"}, Msg: "must be numeric", Type: "value_error"})
				} else {
					if h < 512 || h > 2048 {
						errs = append(errs, FieldError{Loc: []string{"modules", "scene", "resolution"}, Msg: "height must be in [512, 2048]", Type: "value_error"})
					}
					if w != 2*h {
						errs = append(errs, FieldError{Loc: []string{"modules", "scene", "resolution"}, Msg: "width must equal 2*height", Type: "value_error"})
					}
					if w < 1024 || w > 4096 {
						errs = append(errs, FieldError{Loc: []string{"modules", "scene", "resolution"}, Msg: "width must be in [1024, 4096]", Type: "value_error"})
					}
				}
			}
		}
	}

	if motion, ok := u.Modules["motion"]; ok && motion.Fields != nil {
		if fps, ok := numberOf(motion.Fields["fps"]); ok {
			if fps < 15 || fps > 60 {
				errs = append(errs, FieldError{Loc: []string{"modules", "motion", "fps"}, Msg: "must be in [15, 60]", Type: "value_error"})
			}
		}
	}

	if music, ok := u.Modules["music"]; ok && music.Enabled && music.Fields != nil {
		if d, ok := numberOf(music.Fields["duration_s"]); ok {
			if d < 3 || d > 60 {
				errs = append(errs, FieldError{Loc: []string{"modules", "music", "duration_s"}, Msg: "must be in [3, 60]", Type: "value_error"})
			}
		}
	}

	return errs
}

// applyDefaults copies intent.duration_s down into motion/music when they're
// enabled and didn't specify their own (spec §4.1 "Defaults").
func applyDefaults(u *domain.UIR) {
	if motion, ok := u.Modules["motion"]; ok && motion.Enabled {
		if _, present := motion.Fields["duration_s"]; !present {
			if motion.Fields == nil {
				motion.Fields = map[string]any{}
			}
			motion.Fields["duration_s"] = u.Intent.DurationS
			u.Modules["motion"] = motion
		}
	}
	if music, ok := u.Modules["music"]; ok && music.Enabled {
		if _, present := music.Fields["duration_s"]; !present {
			if music.Fields == nil {
				music.Fields = map[string]any{}
			}
			music.Fields["duration_s"] = u.Intent.DurationS
			u.Modules["music"] = music
		}
	}
}

func parseTargets(v any) []string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, e := range arr {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// numberOf extracts a float64 out of anything encoding/json could have
// produced for a numeric field (json.Unmarshal into `any` always yields
// float64 for JSON numbers, but this guards against pre-built maps too).
func numberOf(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
