// Package config layers configuration the way the teacher's own loader
// does: struct defaults, then an optional YAML file, then environment
// variables, then CLI flags, each overriding the last.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds the settings the engine and CLI need. YAML/env keys are
// lower-case with underscores; env vars are prefixed OCHRE_ and use __ to
// express nesting (matching the teacher's own env provider convention).
type Config struct {
	RegistryRoot string `koanf:"registry_root"`
	Lock         bool   `koanf:"lock"`
	Log          LogConfig `koanf:"log"`
	MetricsAddr  string `koanf:"metrics_addr"`
}

// LogConfig mirrors internal/logging.Config, duplicated here so config
// carries no dependency on the logging package.
type LogConfig struct {
	Level     string `koanf:"level"`
	Format    string `koanf:"format"`
	AddSource bool   `koanf:"add_source"`
}

// Defaults returns the engine's baseline configuration.
func Defaults() Config {
	return Config{
		RegistryRoot: "./registry",
		Lock:         true,
		Log:          LogConfig{Level: "info", Format: "json"},
	}
}

// Validator is implemented by configuration values with cross-field checks
// beyond what the loader alone can express.
type Validator interface {
	Validate() error
}

// Loader layers a koanf instance and resolves Config from defaults, an
// optional file, environment, and flags, in that priority order (flags
// win).
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
}

// NewLoader constructs a Loader whose environment variables are read with
// the given prefix (e.g. "OCHRE_").
func NewLoader(envPrefix string) *Loader {
	return &Loader{k: koanf.New("."), envPrefix: envPrefix}
}

// Load resolves cfg's fields from defaults, configPath (if non-empty; a
// path that cannot be read is an error), and environment variables.
func (l *Loader) Load(defaults Config, configPath string) (Config, error) {
	if err := l.k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("ochre: load config defaults: %w", err)
	}
	if configPath != "" {
		if err := l.k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("ochre: load config file %s: %w", configPath, err)
		}
	}
	envProvider := env.ProviderWithValue(l.envPrefix, ".", func(key, value string) (string, any) {
		key = strings.ToLower(strings.TrimPrefix(key, l.envPrefix))
		key = strings.ReplaceAll(key, "__", ".")
		return key, value
	})
	if err := l.k.Load(envProvider, nil); err != nil {
		return Config{}, fmt.Errorf("ochre: load config env: %w", err)
	}

	var out Config
	if err := l.k.Unmarshal("", &out); err != nil {
		return Config{}, fmt.Errorf("ochre: unmarshal config: %w", err)
	}
	if v, ok := any(out).(Validator); ok {
		if err := v.Validate(); err != nil {
			return Config{}, fmt.Errorf("ochre: invalid config: %w", err)
		}
	}
	return out, nil
}

// ApplyFlags overlays flag values onto the already-loaded config, given a
// map from flag name to koanf key.
func (l *Loader) ApplyFlags(flags *pflag.FlagSet, mappings map[string]string) (Config, error) {
	overrides := map[string]any{}
	flags.Visit(func(f *pflag.Flag) {
		if key, ok := mappings[f.Name]; ok {
			overrides[key] = f.Value.String()
		}
	})
	if len(overrides) > 0 {
		if err := l.k.Load(confmap.Provider(overrides, "."), nil); err != nil {
			return Config{}, fmt.Errorf("ochre: apply flags: %w", err)
		}
	}
	var out Config
	if err := l.k.Unmarshal("", &out); err != nil {
		return Config{}, fmt.Errorf("ochre: unmarshal config: %w", err)
	}
	return out, nil
}

// Raw exposes the underlying koanf map, for diagnostics.
func (l *Loader) Raw() map[string]any {
	return l.k.Raw()
}
