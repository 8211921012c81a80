package httpapi

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	otelgin "go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/media-orchestrator/internal/eventbus"
	"github.com/yungbote/media-orchestrator/internal/fsys"
	"github.com/yungbote/media-orchestrator/internal/jobstore"
	"github.com/yungbote/media-orchestrator/internal/platform/logger"
	"github.com/yungbote/media-orchestrator/internal/scheduler"
)

// RouterConfig bundles what the router needs to wire handlers, one field
// per handler group.
type RouterConfig struct {
	Store     *jobstore.Store
	Bus       *eventbus.Bus
	Scheduler *scheduler.Scheduler
	RootDir   string
	Log       *logger.Logger
	OtelName  string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware(cfg.OtelName))

	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthz", HealthCheck)

	jobs := NewJobsHandler(cfg.Store, cfg.Bus, cfg.Scheduler, cfg.RootDir, cfg.Log)
	stream := NewStreamHandler(cfg.Store, cfg.Bus, cfg.Log)

	router.POST("/jobs", jobs.CreateJob)
	router.GET("/jobs", jobs.ListJobs)
	router.GET("/jobs/:job_id", jobs.GetJob)
	router.POST("/jobs/:job_id/cancel", jobs.CancelJob)
	router.GET("/jobs/:job_id/events", stream.JobEventsSSE)
	router.GET("/ws/jobs/:job_id", stream.JobEventsWS)

	router.GET(fsys.AssetURLPrefix+"/:job_id/*filepath", serveAsset(cfg.RootDir))

	return router
}
