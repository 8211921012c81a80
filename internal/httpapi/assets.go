package httpapi

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/media-orchestrator/internal/fsys"
)

// serveAsset serves a job directory's files under /assets/:job_id/*filepath,
// rejecting any path that escapes the job's root the same way
// adapter.BuildAssetRef does for recorded asset references.
func serveAsset(rootDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		jobID := c.Param("job_id")
		rel := strings.TrimPrefix(c.Param("filepath"), "/")

		jobDir := fsys.JobDir(rootDir, jobID)
		full := filepath.Join(jobDir, rel)

		absJobDir, err := filepath.Abs(jobDir)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		absFull, err := filepath.Abs(full)
		if err != nil || (absFull != absJobDir && !strings.HasPrefix(absFull, absJobDir+string(filepath.Separator))) {
			c.Status(http.StatusForbidden)
			return
		}

		c.File(absFull)
	}
}
