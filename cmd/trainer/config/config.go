// Package config implements the climacast trainer config.
package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the trainer's process settings. Pipeline settings (sources,
// model, artifact store) live in the YAML file named by PipelineConfig.
type Config struct {
	PipelineConfig string
	Timeout        time.Duration
	FetchTimeout   time.Duration
	PushGatewayURL string
	PushJob        string
	LogFormat      string
	LogLevel       string
}

// ParseFlags parses command-line flags and environment variables into a Config.
// Variables in a .env file in the working directory are loaded first and never
// override the real environment. Exits with status 1 if -config is missing.
func ParseFlags() *Config {
	_ = godotenv.Load()

	cfg := &Config{}

	// Pipeline
	flag.StringVar(&cfg.PipelineConfig, "config", getEnv("CONFIG", ""), "Pipeline YAML file (required)")

	// Timing
	flag.DurationVar(&cfg.Timeout, "timeout", getEnvDuration("TRAIN_TIMEOUT", 10*time.Minute), "Timeout for the whole training run")
	flag.DurationVar(&cfg.FetchTimeout, "fetch-timeout", getEnvDuration("FETCH_TIMEOUT", 30*time.Second), "Timeout for each HTTP source request")

	// Metrics
	flag.StringVar(&cfg.PushGatewayURL, "pushgateway-url", getEnv("PUSHGATEWAY_URL", ""), "Prometheus Pushgateway URL (optional)")
	flag.StringVar(&cfg.PushJob, "push-job", getEnv("PUSH_JOB", "climacast_trainer"), "Pushgateway job name")

	// Logging
	flag.StringVar(&cfg.LogFormat, "log-format", getEnv("LOG_FORMAT", "text"), "Log format: text, json or tint")
	flag.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")

	flag.Parse()

	if cfg.PipelineConfig == "" {
		fmt.Fprintln(os.Stderr, "Error: --config is required")
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
