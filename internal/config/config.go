// Package config centralizes the orchestrator's environment-driven
// settings, read once at startup with internal/utils.GetEnv and friends
// and collected into one struct instead of scattered os.Getenv calls.
package config

import (
	"github.com/yungbote/media-orchestrator/internal/platform/logger"
	"github.com/yungbote/media-orchestrator/internal/utils"
)

type Config struct {
	HTTPPort string

	JobsRootDir string

	WorkerConcurrency int
	GPUCapacity       int

	RedisAddr    string
	RedisChannel string

	AssetsGCSBucket string

	OtelServiceName string
	OtelEnvironment string
	LogMode         string
}

// Load reads every setting from the environment, falling back to defaults
// suited to local/dev use.
func Load(log *logger.Logger) Config {
	return Config{
		HTTPPort: utils.GetEnv("PORT", "8080", log),

		JobsRootDir: utils.GetEnv("ORCH_JOBS_DIR", "./data/jobs", log),

		WorkerConcurrency: utils.GetEnvAsInt("WORKER_CONCURRENCY", 2, log),
		GPUCapacity:       utils.GetEnvAsInt("ORCH_GPU_CAPACITY", 1, log),

		RedisAddr:    utils.GetEnv("REDIS_ADDR", "", log),
		RedisChannel: utils.GetEnv("REDIS_CHANNEL", "orchestrator-events", log),

		AssetsGCSBucket: utils.GetEnv("ORCH_ASSETS_GCS_BUCKET", "", log),

		OtelServiceName: utils.GetEnv("OTEL_SERVICE_NAME", "media-orchestrator", log),
		OtelEnvironment: utils.GetEnv("ENVIRONMENT", "development", log),
		LogMode:         utils.GetEnv("LOG_MODE", "development", log),
	}
}
