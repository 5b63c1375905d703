// Package config implements the climacast server config.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all server configuration.
type Config struct {
	Listen          string
	GRPCListen      string
	PipelineConfig  string
	ArtifactBackend string
	ArtifactPath    string
	RedisURL        string
	RedisKey        string
	InitTimeout     time.Duration
	ShutdownTimeout time.Duration
	LogFormat       string
	LogLevel        string
}

// ParseFlags parses command-line flags and environment variables into a Config.
// Variables in a .env file in the working directory are loaded first and never
// override the real environment. Exits with status 1 on an invalid value.
//
// When -config names a pipeline file, its artifact section and data sources
// replace the artifact flags and the demonstration chart data.
func ParseFlags() *Config {
	_ = godotenv.Load()

	cfg := &Config{}

	// Server
	flag.StringVar(&cfg.Listen, "listen", getEnv("LISTEN", ":8080"), "HTTP listen address")
	flag.StringVar(&cfg.GRPCListen, "grpc-listen", getEnv("GRPC_LISTEN", ":50051"), "gRPC listen address")

	// Pipeline
	flag.StringVar(&cfg.PipelineConfig, "config", getEnv("CONFIG", ""), "Pipeline YAML file (optional)")

	// Artifact
	flag.StringVar(&cfg.ArtifactBackend, "artifact-backend", getEnv("ARTIFACT_BACKEND", "file"), "Artifact backend: file, redis or memory")
	flag.StringVar(&cfg.ArtifactPath, "artifact-path", getEnv("ARTIFACT_PATH", "models/climate_model.gob"), "Artifact file path")
	flag.StringVar(&cfg.RedisURL, "redis-url", getEnv("REDIS_URL", "redis://localhost:6379/0"), "Redis URL for the redis backend")
	flag.StringVar(&cfg.RedisKey, "redis-key", getEnv("REDIS_KEY", "climacast:artifact"), "Redis key holding the artifact")

	// Timing
	flag.DurationVar(&cfg.InitTimeout, "init-timeout", getEnvDuration("INIT_TIMEOUT", 2*time.Minute), "Timeout for loading or training the model at startup")
	flag.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second), "Graceful shutdown timeout")

	// Logging
	flag.StringVar(&cfg.LogFormat, "log-format", getEnv("LOG_FORMAT", "text"), "Log format: text, json or tint")
	flag.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")

	flag.Parse()

	switch cfg.ArtifactBackend {
	case "file", "redis", "memory":
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid --artifact-backend %q\n", cfg.ArtifactBackend)
		os.Exit(1)
	}
	if cfg.ArtifactBackend == "file" && cfg.ArtifactPath == "" {
		fmt.Fprintln(os.Stderr, "Error: --artifact-path is required for the file backend")
		os.Exit(1)
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
