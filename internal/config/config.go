// Package config loads stager's config.yaml with viper. The file is created
// with defaults on first run; a missing or empty file is not an error.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mesh-intelligence/stager/internal/logger"
	"github.com/mesh-intelligence/stager/internal/paths"
	"github.com/mesh-intelligence/stager/pkg/types"
)

// Config keys.
const (
	KeyBackend               = "backend"
	KeyDataDir               = "data_dir"
	KeyLogMode               = "log_mode"
	KeyModelsCustom          = "models.custom"
	KeyModelsHQ              = "models.hq"
	KeyModelsNative4K        = "models.native_4k"
	KeyModelsFinal           = "models.final"
	KeyGenerationRetries     = "generation.retries"
	KeyGenerationRetryDelay  = "generation.retry_delay"
	KeyGenerationConcurrency = "generation.concurrency"
	KeyGenerationCommand     = "generation.command"
)

// Environment overrides. data_dir is resolved by the paths package instead.
var envBindings = map[string]string{
	KeyBackend:           "STAGER_BACKEND",
	KeyLogMode:           "STAGER_LOG_MODE",
	KeyModelsCustom:      "STAGER_MODEL",
	KeyGenerationCommand: "STAGER_GENERATOR",
}

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# stager configuration

# Storage backend: sqlite or memory
backend: sqlite

# Data directory (optional; overridable by --data-dir)
# data_dir:

# Logging: dev (console) or prod (JSON)
log_mode: dev

# Image models per quality tier. custom overrides every tier when set.
models:
  custom: ""
  hq: ""
  native_4k: ""
  final: ""

generation:
  retries: 3
  retry_delay: 2s
  concurrency: 2
  # External program producing images: prompt and settings in STAGER_*
  # environment variables, source image on stdin, result on stdout.
  command: ""
`

// Generation tunes the pipeline runner.
type Generation struct {
	Retries     int           `mapstructure:"retries"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	Concurrency int           `mapstructure:"concurrency"`
	Command     string        `mapstructure:"command"`
}

// File is the decoded contents of config.yaml.
type File struct {
	Backend    string            `mapstructure:"backend"`
	DataDir    string            `mapstructure:"data_dir"`
	LogMode    string            `mapstructure:"log_mode"`
	Models     types.ModelConfig `mapstructure:"models"`
	Generation Generation        `mapstructure:"generation"`
}

// StoreConfig returns the backend configuration for dataDir.
func (f File) StoreConfig(dataDir string) types.Config {
	return types.Config{Backend: f.Backend, DataDir: dataDir, Models: f.Models}
}

// Load reads config.yaml from configDir, creating the directory and a
// default file when absent. The returned viper instance is kept for Set.
func Load(configDir string) (File, *viper.Viper, error) {
	if err := ensureDefaultFile(configDir); err != nil {
		return File{}, nil, err
	}

	v := viper.New()
	v.SetDefault(KeyBackend, types.BackendSQLite)
	v.SetDefault(KeyLogMode, logger.ModeDev)
	v.SetDefault(KeyGenerationRetries, 3)
	v.SetDefault(KeyGenerationRetryDelay, 2*time.Second)
	v.SetDefault(KeyGenerationConcurrency, 2)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return File{}, nil, fmt.Errorf("binding %s: %w", env, err)
		}
	}
	v.SetConfigFile(paths.ConfigFile(configDir))
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return File{}, nil, fmt.Errorf("read config: %w", err)
		}
	}

	var f File
	if err := v.Unmarshal(&f); err != nil {
		return File{}, nil, fmt.Errorf("decode config: %w", err)
	}
	f.Backend = strings.ToLower(strings.TrimSpace(f.Backend))
	return f, v, nil
}

// Set writes one key to config.yaml.
func Set(v *viper.Viper, key string, value any) error {
	v.Set(key, value)
	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func ensureDefaultFile(configDir string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("ensure config dir: %w", err)
	}
	path := paths.ConfigFile(configDir)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return fmt.Errorf("ensure default config: %w", err)
	}
	return nil
}
