package config

import (
	"os"
	"testing"

	"github.com/yungbote/media-orchestrator/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(func() { log.Sync() })
	return log
}

func TestLoadAppliesDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ORCH_JOBS_DIR", "WORKER_CONCURRENCY", "ORCH_GPU_CAPACITY", "REDIS_ADDR"} {
		os.Unsetenv(key)
	}

	cfg := Load(testLogger(t))

	if cfg.HTTPPort != "8080" {
		t.Fatalf("HTTPPort default: want=8080 got=%s", cfg.HTTPPort)
	}
	if cfg.JobsRootDir != "./data/jobs" {
		t.Fatalf("JobsRootDir default: want=./data/jobs got=%s", cfg.JobsRootDir)
	}
	if cfg.WorkerConcurrency != 2 {
		t.Fatalf("WorkerConcurrency default: want=2 got=%d", cfg.WorkerConcurrency)
	}
	if cfg.GPUCapacity != 1 {
		t.Fatalf("GPUCapacity default: want=1 got=%d", cfg.GPUCapacity)
	}
	if cfg.RedisAddr != "" {
		t.Fatalf("RedisAddr default: want=empty got=%s", cfg.RedisAddr)
	}
}

func TestLoadHonorsEnvOverrides(t *testing.T) {
	os.Setenv("PORT", "9999")
	os.Setenv("WORKER_CONCURRENCY", "5")
	defer os.Unsetenv("PORT")
	defer os.Unsetenv("WORKER_CONCURRENCY")

	cfg := Load(testLogger(t))

	if cfg.HTTPPort != "9999" {
		t.Fatalf("HTTPPort override: want=9999 got=%s", cfg.HTTPPort)
	}
	if cfg.WorkerConcurrency != 5 {
		t.Fatalf("WorkerConcurrency override: want=5 got=%d", cfg.WorkerConcurrency)
	}
}
