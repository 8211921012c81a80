// Package fsys owns the on-disk shape of a job: its fixed subdirectory
// layout, its uir.json snapshot, and its manifest.json writer.
package fsys

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Subdirs is the fixed set of subdirectories every job directory gets,
// created up front regardless of which modules are enabled.
var Subdirs = []string{"scene", "motion", "music", "preview", "export", "logs"}

// JobDir returns the job's root directory under rootDir.
func JobDir(rootDir, jobID string) string {
	return filepath.Join(rootDir, jobID)
}

// CreateLayout makes jobDir and every fixed subdirectory under it.
func CreateLayout(jobDir string) error {
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return fmt.Errorf("create job dir: %w", err)
	}
	for _, d := range Subdirs {
		if err := os.MkdirAll(filepath.Join(jobDir, d), 0o755); err != nil {
			return fmt.Errorf("create %s dir: %w", d, err)
		}
	}
	return nil
}

// WriteUIRSnapshot writes the raw, validated UIR payload to uir.json.
func WriteUIRSnapshot(jobDir string, raw map[string]any) error {
	return writeCanonicalJSON(filepath.Join(jobDir, "uir.json"), raw)
}

// AssetURLPrefix is the HTTP path prefix assets are served under; see
// internal/httpapi's static asset route.
const AssetURLPrefix = "/assets"

// MakeAssetURL builds the externally-reachable URL for a file stored at
// rel (a job-directory-relative path, already filepath.ToSlash'd).
func MakeAssetURL(jobID, rel string) string {
	return strings.Join([]string{AssetURLPrefix, jobID, rel}, "/")
}

func writeCanonicalJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(true)
	return enc.Encode(v)
}
