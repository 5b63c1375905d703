// Package pipeline wires the climacast stages together from a YAML file:
// sources are collected, prepared into a feature frame and handed to the
// trainer, which persists the final fit in the configured artifact store.
package pipeline

import (
	"fmt"
	"net/http"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/HatiCode/climacast/pkg/adapters"
	"github.com/HatiCode/climacast/pkg/features"
	"github.com/HatiCode/climacast/pkg/models"
	"github.com/HatiCode/climacast/pkg/storage"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config is the YAML pipeline file.
//
//	data_sources:
//	  temperature: data/temperature.csv
//	  co2: https://example.org/co2.csv
//	features: [co2, temp_anomaly]
//	merge_key: year
//	model:
//	  type: random_forest
//	  features: [co2]
//	  target: temp_anomaly
//	  n_estimators: 200
//	  max_depth: 10
//	  max_features: 0
//	  seed: 42
//	training:
//	  splits: 5
//	artifact:
//	  backend: file
//	  path: models/climate_model.gob
type Config struct {
	DataSources map[string]string `yaml:"data_sources" validate:"required,min=2,dive,keys,required,endkeys,required"`
	Features    []string          `yaml:"features" validate:"required,min=1,dive,required"`
	MergeKey    string            `yaml:"merge_key" validate:"required"`
	CO2Column   string            `yaml:"co2_column" validate:"required"`
	TempColumn  string            `yaml:"temp_column" validate:"required"`
	Model       ModelConfig       `yaml:"model"`
	Training    TrainingConfig    `yaml:"training"`
	Artifact    storage.Config    `yaml:"artifact"`
}

// ModelConfig selects the regressor and the columns it is fitted on.
type ModelConfig struct {
	models.Spec `yaml:",inline"`
	Features    []string `yaml:"features" validate:"required,min=1,dive,required"`
	Target      string   `yaml:"target" validate:"required"`
}

// TrainingConfig tunes walk-forward validation.
type TrainingConfig struct {
	Splits int `yaml:"splits" validate:"gte=2"`
}

// Default returns the configuration used for keys the file leaves out. The
// model is fitted on co2 alone so the served form only needs one input.
func Default() Config {
	opts := features.DefaultOptions()
	return Config{
		Features:   opts.Features,
		MergeKey:   opts.Key,
		CO2Column:  opts.CO2Column,
		TempColumn: opts.TempColumn,
		Model: ModelConfig{
			Spec:     models.Spec{Type: "random_forest", NEstimators: 200, MaxDepth: 10, Seed: 42},
			Features: []string{opts.CO2Column},
			Target:   opts.Target,
		},
		Training: TrainingConfig{Splits: 5},
		Artifact: storage.Config{Backend: "file", Path: "models/climate_model.gob", RedisKey: storage.DefaultRedisKey},
	}
}

// LoadConfig reads path over Default, expands ${VAR} references in the
// artifact connection settings and validates the result. Data source
// locations are taken literally, so a "$" in a URL query survives.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig is LoadConfig on an in-memory document.
func ParseConfig(data []byte) (*Config, error) {
	cfg := Default()
	// A list in the file replaces the default list instead of merging into it.
	cfg.Features, cfg.Model.Features = nil, nil

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Artifact.Path = os.ExpandEnv(cfg.Artifact.Path)
	cfg.Artifact.RedisURL = os.ExpandEnv(cfg.Artifact.RedisURL)
	cfg.Artifact.RedisKey = os.ExpandEnv(cfg.Artifact.RedisKey)
	if len(cfg.Features) == 0 {
		cfg.Features = Default().Features
	}
	if len(cfg.Model.Features) == 0 {
		cfg.Model.Features = Default().Model.Features
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Adapters builds one adapter per data source. client is used for HTTP
// sources and may be nil.
func (c *Config) Adapters(client *http.Client) (map[string]adapters.Adapter, error) {
	out := make(map[string]adapters.Adapter, len(c.DataSources))
	for name, location := range c.DataSources {
		a, err := adapters.FromLocation(location, client)
		if err != nil {
			return nil, fmt.Errorf("data source %q: %w", name, err)
		}
		out[name] = a
	}
	return out, nil
}

// ProcessorOptions maps the file onto features.Options.
func (c *Config) ProcessorOptions() features.Options {
	return features.Options{
		Key:        c.MergeKey,
		Features:   c.Features,
		Target:     c.Model.Target,
		CO2Column:  c.CO2Column,
		TempColumn: c.TempColumn,
	}
}
