package adapter

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/media-orchestrator/internal/domain"
)

// BuildAssetRef stats path, hashes its contents, and returns an AssetRef
// with uri set relative to jobDir. path must resolve to somewhere under
// jobDir; this is the one boundary check every adapter gets for free so a
// misbehaving adapter can't register a path outside its own job's
// directory as an artifact.
func BuildAssetRef(jobDir, path, role, mime string) (domain.AssetRef, error) {
	absJobDir, err := filepath.Abs(jobDir)
	if err != nil {
		return domain.AssetRef{}, err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return domain.AssetRef{}, err
	}
	rel, err := filepath.Rel(absJobDir, absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return domain.AssetRef{}, fmt.Errorf("asset path %q escapes job directory %q", path, jobDir)
	}

	f, err := os.Open(absPath)
	if err != nil {
		return domain.AssetRef{}, err
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return domain.AssetRef{}, err
	}

	return domain.AssetRef{
		ID:     uuid.NewString(),
		Role:   role,
		Mime:   mime,
		URI:    filepath.ToSlash(rel),
		Bytes:  n,
		SHA256: hex.EncodeToString(h.Sum(nil)),
	}, nil
}
