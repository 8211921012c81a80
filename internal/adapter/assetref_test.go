package adapter

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuildAssetRefHashesFileUnderJobDir(t *testing.T) {
	jobDir := t.TempDir()
	sub := filepath.Join(jobDir, "scene")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	path := filepath.Join(sub, "panorama.png")
	if err := os.WriteFile(path, []byte("fake-png-bytes"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ref, err := BuildAssetRef(jobDir, path, "scene_panorama", "image/png")
	if err != nil {
		t.Fatalf("BuildAssetRef: %v", err)
	}
	if ref.URI != "scene/panorama.png" {
		t.Fatalf("URI: want=scene/panorama.png got=%s", ref.URI)
	}
	if ref.Bytes != int64(len("fake-png-bytes")) {
		t.Fatalf("Bytes: want=%d got=%d", len("fake-png-bytes"), ref.Bytes)
	}
	if ref.SHA256 == "" {
		t.Fatalf("expected a non-empty SHA256")
	}
	if ref.ID == "" {
		t.Fatalf("expected a generated ID")
	}
}

func TestBuildAssetRefRejectsPathEscapingJobDir(t *testing.T) {
	jobDir := t.TempDir()
	outside := t.TempDir()
	path := filepath.Join(outside, "escaped.png")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := BuildAssetRef(jobDir, path, "scene_panorama", "image/png"); err == nil {
		t.Fatalf("expected an error for a path outside jobDir")
	}
}
