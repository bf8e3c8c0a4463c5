package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseURL string // TASKS_DATABASE_URL (required)
	HTTPAddr    string // TASKS_HTTP_ADDR (default ":8080")
	NATSURL     string // TASKS_NATS_URL (optional, empty = no events)
	AuthToken   string // TASKS_AUTH_TOKEN (optional, empty = auth disabled)

	// Validator policy (advisory warning threshold; 0 = disabled).
	WarnDependencyCount int // TASKS_WARN_DEPENDENCY_COUNT (default 10)

	// Memory watchdog settings
	MemCheckInterval time.Duration // TASKS_MEM_CHECK_INTERVAL (default 30s; 0 = disabled)
	MemAlertMB       int           // TASKS_MEM_ALERT_MB (default 512)

	// Sync settings
	SyncInterval   time.Duration // TASKS_SYNC_INTERVAL (default 3m; 0 = disabled)
	SyncS3Bucket   string        // TASKS_SYNC_S3_BUCKET (enables S3 when set)
	SyncS3Endpoint string        // TASKS_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	SyncS3Region   string        // TASKS_SYNC_S3_REGION (default "us-east-1")
	SyncS3Key      string        // TASKS_SYNC_S3_KEY (default "ktasks/backup.jsonl")
	SyncGitRepo    string        // TASKS_SYNC_GIT_REPO (enables git when set; path to clone)
	SyncGitFile    string        // TASKS_SYNC_GIT_FILE (default "tasks.jsonl")
	SyncGitBranch  string        // TASKS_SYNC_GIT_BRANCH (default "main")
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:    os.Getenv("TASKS_DATABASE_URL"),
		HTTPAddr:       envOrDefault("TASKS_HTTP_ADDR", ":8080"),
		NATSURL:        os.Getenv("TASKS_NATS_URL"),
		AuthToken:      os.Getenv("TASKS_AUTH_TOKEN"),
		SyncS3Bucket:   os.Getenv("TASKS_SYNC_S3_BUCKET"),
		SyncS3Endpoint: os.Getenv("TASKS_SYNC_S3_ENDPOINT"),
		SyncS3Region:   envOrDefault("TASKS_SYNC_S3_REGION", "us-east-1"),
		SyncS3Key:      envOrDefault("TASKS_SYNC_S3_KEY", "ktasks/backup.jsonl"),
		SyncGitRepo:    os.Getenv("TASKS_SYNC_GIT_REPO"),
		SyncGitFile:    envOrDefault("TASKS_SYNC_GIT_FILE", "tasks.jsonl"),
		SyncGitBranch:  envOrDefault("TASKS_SYNC_GIT_BRANCH", "main"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("TASKS_DATABASE_URL is required")
	}

	var err error
	if c.WarnDependencyCount, err = envInt("TASKS_WARN_DEPENDENCY_COUNT", 10); err != nil {
		return nil, err
	}
	if c.MemAlertMB, err = envInt("TASKS_MEM_ALERT_MB", 512); err != nil {
		return nil, err
	}
	if c.MemCheckInterval, err = envDuration("TASKS_MEM_CHECK_INTERVAL", "30s"); err != nil {
		return nil, err
	}
	if c.SyncInterval, err = envDuration("TASKS_SYNC_INTERVAL", "3m"); err != nil {
		return nil, err
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func envDuration(key, fallback string) (time.Duration, error) {
	v := envOrDefault(key, fallback)
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
