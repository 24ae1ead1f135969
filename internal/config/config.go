// Package config loads application settings from defaults, an optional YAML
// file and MUDRA_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/classifier"
	"github.com/ayusman/mudra/internal/dataset"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/features"
	"github.com/ayusman/mudra/internal/landmark"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "MUDRA_"

// PathEnv names the variable holding the YAML config path.
const PathEnv = EnvPrefix + "CONFIG"

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

type ServerConfig struct {
	Addr      string `yaml:"addr" env:"ADDR"`
	StaticDir string `yaml:"static_dir" env:"STATIC_DIR"`
}

type StoreConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

type ModelConfig struct {
	Dir        string            `yaml:"dir" env:"DIR"`
	Family     features.Family   `yaml:"family" env:"FAMILY"`
	Classifier classifier.Config `yaml:",inline"`
}

type DatasetConfig struct {
	Dir           string `yaml:"dir" env:"DIR"`
	Augmentations int    `yaml:"augmentations" env:"AUGMENTATIONS"`
	Seed          uint64 `yaml:"seed" env:"SEED"`
}

type PluginConfig struct {
	Dir       string `yaml:"dir" env:"DIR"`
	TimeoutMs int    `yaml:"timeout_ms" env:"TIMEOUT_MS"`
}

// Config is the full application configuration.
type Config struct {
	DataDir  string          `yaml:"data_dir" env:"DATA_DIR"`
	Server   ServerConfig    `yaml:"server" envPrefix:"SERVER_"`
	Store    StoreConfig     `yaml:"store" envPrefix:"STORE_"`
	Camera   capture.Config  `yaml:"camera" envPrefix:"CAMERA_"`
	Detector detector.Config `yaml:"detector" envPrefix:"DETECTOR_"`
	Model    ModelConfig     `yaml:"model" envPrefix:"MODEL_"`
	Dataset  DatasetConfig   `yaml:"dataset" envPrefix:"DATASET_"`
	Plugins  PluginConfig    `yaml:"plugins" envPrefix:"PLUGINS_"`
}

// Default returns the built-in configuration. Paths left empty are derived
// from DataDir by Load.
func Default() *Config {
	dataDir := ".mudra"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".mudra")
	}

	return &Config{
		DataDir:  dataDir,
		Server:   ServerConfig{Addr: ":8080"},
		Camera:   capture.DefaultConfig(),
		Detector: detector.DefaultConfig(),
		Model: ModelConfig{
			Family:     features.FamilyCombined,
			Classifier: classifier.DefaultConfig(),
		},
		Dataset: DatasetConfig{
			Augmentations: dataset.DefaultAugmentations,
			Seed:          42,
		},
		Plugins: PluginConfig{TimeoutMs: 5000},
	}
}

// Load builds the configuration. path names an optional YAML file; when empty
// MUDRA_CONFIG is consulted. Environment variables override the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(PathEnv)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.resolvePaths()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) resolvePaths() {
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(c.DataDir, "mudra.db")
	}
	if c.Model.Dir == "" {
		c.Model.Dir = filepath.Join(c.DataDir, "model")
	}
	if c.Dataset.Dir == "" {
		c.Dataset.Dir = filepath.Join(c.DataDir, "dataset")
	}
	if c.Plugins.Dir == "" {
		c.Plugins.Dir = filepath.Join(c.DataDir, "plugins")
	}
}

// Validate rejects values no component can run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is empty"))
	}
	if c.Camera.FPS <= 0 {
		errs = append(errs, fmt.Errorf("camera.fps must be positive, got %d", c.Camera.FPS))
	}
	if c.Detector.MaxHands < 1 {
		errs = append(errs, fmt.Errorf("detector.max_hands must be at least 1, got %d", c.Detector.MaxHands))
	}
	if !inUnit(c.Detector.MinConfidence) || !inUnit(c.Detector.MinTrackingConf) {
		errs = append(errs, errors.New("detector confidences must be within [0, 1]"))
	}
	if !c.Model.Family.Valid() {
		errs = append(errs, fmt.Errorf("model.family %q is not one of %v", c.Model.Family, features.Families))
	}
	switch c.Model.Classifier.Backend {
	case classifier.BackendCentroid, classifier.BackendONNX:
	default:
		errs = append(errs, fmt.Errorf("model.backend %q is not centroid or onnx", c.Model.Classifier.Backend))
	}
	if c.Dataset.Augmentations < 0 {
		errs = append(errs, fmt.Errorf("dataset.augmentations must not be negative, got %d", c.Dataset.Augmentations))
	}
	if c.Plugins.TimeoutMs <= 0 {
		errs = append(errs, fmt.Errorf("plugins.timeout_ms must be positive, got %d", c.Plugins.TimeoutMs))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1
}
