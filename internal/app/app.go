// Package app wires every package in the orchestrator into one running
// process: config, logging, OpenTelemetry, the job store, the event bus
// (with an optional Redis mirror), the adapter registry, the scheduler,
// and the HTTP router.
package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/media-orchestrator/internal/adapter"
	"github.com/yungbote/media-orchestrator/internal/adapters/character"
	"github.com/yungbote/media-orchestrator/internal/adapters/export"
	"github.com/yungbote/media-orchestrator/internal/adapters/motion"
	"github.com/yungbote/media-orchestrator/internal/adapters/music"
	"github.com/yungbote/media-orchestrator/internal/adapters/preview"
	"github.com/yungbote/media-orchestrator/internal/adapters/scene"
	"github.com/yungbote/media-orchestrator/internal/clients/gcp"
	"github.com/yungbote/media-orchestrator/internal/config"
	"github.com/yungbote/media-orchestrator/internal/eventbus"
	"github.com/yungbote/media-orchestrator/internal/httpapi"
	"github.com/yungbote/media-orchestrator/internal/jobstore"
	"github.com/yungbote/media-orchestrator/internal/observability"
	"github.com/yungbote/media-orchestrator/internal/platform/logger"
	"github.com/yungbote/media-orchestrator/internal/scheduler"
	"github.com/yungbote/media-orchestrator/internal/utils"
)

// App is the fully-wired process: every long-lived component plus the
// gin.Engine that serves them over HTTP.
type App struct {
	Log       *logger.Logger
	Cfg       config.Config
	Router    *gin.Engine
	Store     *jobstore.Store
	Bus       *eventbus.Bus
	Registry  *adapter.Registry
	Scheduler *scheduler.Scheduler

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := strings.TrimSpace(os.Getenv("LOG_MODE"))
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("loading configuration")
	cfg := config.Load(log)

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: cfg.OtelServiceName,
		Environment: cfg.OtelEnvironment,
	})

	store := jobstore.New()
	bus := eventbus.New(log)

	if cfg.RedisAddr != "" {
		if mirror, err := eventbus.NewRedisMirror(log); err != nil {
			log.Warn("redis mirror unavailable, continuing process-local only", "error", err)
		} else {
			bus.SetMirror(mirror)
		}
	}

	registry := wireAdapters(log)

	sched := scheduler.New(store, bus, registry, log, cfg.JobsRootDir, cfg.WorkerConcurrency, cfg.GPUCapacity)

	if cfg.AssetsGCSBucket != "" {
		if bucket, err := gcp.NewBucketService(log); err != nil {
			log.Warn("gcs bucket service unavailable, asset mirroring disabled", "error", err)
		} else {
			sched.SetBucket(bucket)
		}
	}

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Store:     store,
		Bus:       bus,
		Scheduler: sched,
		RootDir:   cfg.JobsRootDir,
		Log:       log,
		OtelName:  cfg.OtelServiceName,
	})

	return &App{
		Log:          log,
		Cfg:          cfg,
		Router:       router,
		Store:        store,
		Bus:          bus,
		Registry:     registry,
		Scheduler:    sched,
		otelShutdown: otelShutdown,
	}, nil
}

// wireAdapters builds and registers the six default modality adapters.
// Binary paths are each overridable via env var, defaulting to the bare
// command name (resolved against PATH at Validate time).
func wireAdapters(log *logger.Logger) *adapter.Registry {
	registry := adapter.NewRegistry()

	registry.Register(scene.New(log, utils.GetEnv("ORCH_SCENE_BIN", "", log)))
	registry.Register(motion.New(log, utils.GetEnv("ORCH_MOTION_BIN", "", log)))
	registry.Register(music.New(log, utils.GetEnv("ORCH_MUSIC_BIN", "", log)))
	registry.Register(preview.New(log))
	registry.Register(export.New(log, utils.GetEnv("ORCH_FFMPEG_BIN", "", log)))

	var vision gcp.Vision
	if strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON")) != "" ||
		strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")) != "" {
		v, err := gcp.NewVision(log)
		if err != nil {
			log.Warn("vision client unavailable, character enrichment disabled", "error", err)
		} else {
			vision = v
		}
	}
	registry.Register(character.New(log, vision, utils.GetEnv("ORCH_CHARACTER_STATIC_BASE", "", log)))

	return registry
}

// Start launches the scheduler's worker pool in the background. Safe to
// call once; a second call is a no-op.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	go func() {
		if err := a.Scheduler.Start(ctx); err != nil && ctx.Err() == nil {
			a.Log.Warn("scheduler stopped", "error", err)
		}
	}()
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
