package types

import "errors"

// Config holds backend selection, its parameters, and the model routing
// used by regeneration.
type Config struct {
	Backend string      `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir string      `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	Models  ModelConfig `json:"models" yaml:"models" mapstructure:"models"`
}

// ModelConfig names the image models used per quality tier. Custom is the
// advanced override and wins over every tier setting when non-blank.
type ModelConfig struct {
	Custom   string `json:"custom" yaml:"custom" mapstructure:"custom"`
	HQ       string `json:"hq" yaml:"hq" mapstructure:"hq"`
	Native4K string `json:"native_4k" yaml:"native_4k" mapstructure:"native_4k"`
	Final    string `json:"final" yaml:"final" mapstructure:"final"`
}

// DefaultFallbackModel is the last-resort model when neither an override nor
// a tier model is configured.
const DefaultFallbackModel = "google/gemini-2.5-flash-image"

// Supported backend names.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
)

var knownBackends = map[string]bool{
	BackendSQLite: true,
	BackendMemory: true,
}

// Validate checks that the Config is well-formed.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	return nil
}

// TierModels returns the primary and secondary configured models for a
// target tier. HQ previews fall back to the final model, native 4K and
// final renders fall back to each other.
func (m ModelConfig) TierModels(tier QualityTier) (primary, secondary string) {
	switch tier {
	case TierHQPreview:
		return m.HQ, m.Final
	case TierNative4K:
		return m.Native4K, m.Final
	case TierFinal:
		return m.Final, m.Native4K
	default:
		return "", ""
	}
}
