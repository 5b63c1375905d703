package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Config selects and configures a backend.
type Config struct {
	Backend  string `yaml:"backend" validate:"omitempty,oneof=file redis memory"`
	Path     string `yaml:"path"`
	RedisURL string `yaml:"redis_url"`
	RedisKey string `yaml:"redis_key"`
}

// Open builds the configured backend. The redis backend is pinged before it
// is returned so a misconfigured store fails at startup, not at first use.
// An empty Backend means "file".
//
// Callers should close the returned store if it implements io.Closer.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (ArtifactStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Backend {
	case "", "file":
		if cfg.Path == "" {
			return nil, fmt.Errorf("file artifact store needs a path")
		}
		logger.Info("using file artifact store", "path", cfg.Path)
		return NewFileStore(cfg.Path), nil

	case "redis":
		logger.Info("initializing redis artifact store", "key", cfg.RedisKey)
		s, err := NewRedisStore(cfg.RedisURL, cfg.RedisKey)
		if err != nil {
			return nil, err
		}

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := s.Ping(pingCtx); err != nil {
			_ = s.Close()
			return nil, err
		}
		logger.Info("redis artifact store initialized successfully")
		return s, nil

	case "memory":
		logger.Info("using in-memory artifact store")
		return NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("invalid artifact backend %q", cfg.Backend)
	}
}
