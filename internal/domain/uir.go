package domain

// Modalities is the fixed set of module names the UIR recognizes, listed
// in the order the planner runs their stages.
var Modalities = []string{"scene", "motion", "music", "character", "preview", "export"}

// UIR is the Unified Intermediate Representation: the sole inter-stage
// contract of the pipeline. It is decoded loosely (map[string]any for the
// module bodies) because each adapter owns the interpretation of its own
// module's fields; the validator only enforces the structural and semantic
// rules that are common to every module.
type UIR struct {
	UIRVersion string         `json:"uir_version"`
	Job        UIRJob         `json:"job"`
	Input      UIRInput       `json:"input"`
	Intent     UIRIntent      `json:"intent"`
	Modules    map[string]Module `json:"modules"`
	Routing    map[string]Routing `json:"routing,omitempty"`
	Constraints Constraints   `json:"constraints,omitempty"`
	Runtime    Runtime        `json:"runtime,omitempty"`
	Hooks      Hooks          `json:"hooks,omitempty"`

	// Raw holds the decoded JSON this UIR was built from, kept for
	// diagnostics and future round-tripping; the canonical stable hash is
	// computed from the typed fields above, not from this map.
	Raw map[string]any `json:"-"`
}

type UIRJob struct {
	ID        string `json:"id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type UIRInput struct {
	RawPrompt  string         `json:"raw_prompt"`
	Lang       string         `json:"lang,omitempty"`
	References []string       `json:"references,omitempty"`
	UIChoices  map[string]any `json:"ui_choices,omitempty"`
}

type UIRIntent struct {
	Targets    []string `json:"targets"`
	DurationS  float64  `json:"duration_s"`
	Style      string   `json:"style,omitempty"`
	Mood       string   `json:"mood,omitempty"`
}

// Module is a single entry under "modules". Fields is the module-specific
// body (everything besides "enabled"); adapters type-assert the sub-values
// they need out of it.
type Module struct {
	Enabled bool           `json:"enabled"`
	Fields  map[string]any `json:"-"`
}

type Routing struct {
	Provider string `json:"provider"`
}

type Constraints struct {
	MaxRuntimeS float64 `json:"max_runtime_s,omitempty"`
	Quality     string  `json:"quality,omitempty"`
}

type Runtime struct {
	Priority       int            `json:"priority,omitempty"`
	ConcurrencyKey string         `json:"concurrency_key,omitempty"`
	Locks          map[string]any `json:"locks,omitempty"`
}

type Hooks struct {
	EventStream bool `json:"event_stream,omitempty"`
}

// Targets returns the set of modalities requested by intent.targets, for
// O(1) membership checks.
func (u *UIR) Targets() map[string]bool {
	out := make(map[string]bool, len(u.Intent.Targets))
	for _, t := range u.Intent.Targets {
		out[t] = true
	}
	return out
}

// Enabled reports whether a module exists, is enabled, and is requested.
func (u *UIR) Enabled(modality string) bool {
	mod, ok := u.Modules[modality]
	if !ok || !mod.Enabled {
		return false
	}
	return u.Targets()[modality]
}
