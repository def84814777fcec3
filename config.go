package ginject

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ContainerConfig is the ambient, file-driven half of container
// configuration: the handful of knobs an operator tunes per environment
// (build timeout, default named scope, logging level) rather than the
// bindings a developer writes in code. It is entirely optional — a Binder
// works fine with none of this ever loaded.
type ContainerConfig struct {
	// BuildTimeout bounds how long eager-singleton construction may take
	// during Binder.Build before it is treated as a configuration error.
	BuildTimeout time.Duration `yaml:"buildTimeout"`

	// DefaultScope names the scope a binding receives at Build if it never
	// called Singleton or InScope itself. "singleton" selects the intrinsic
	// singleton scope; any other non-empty value is looked up in the
	// container's named-scope registry. Empty leaves ScopeNone, matching
	// the core's own default.
	DefaultScope string `yaml:"defaultScope"`

	// LogLevel sets the minimum level on the logger WithLogger attaches, once
	// Build runs. Recognised values are gookit/slog's level names (panic,
	// fatal, error, warn, notice, info, debug, trace); any other non-empty
	// value selects info. With no logger attached the setting has no effect.
	LogLevel string `yaml:"logLevel"`
}

type rawContainerConfig struct {
	BuildTimeout string `yaml:"buildTimeout"`
	DefaultScope string `yaml:"defaultScope"`
	LogLevel     string `yaml:"logLevel"`
}

// LoadConfig parses a YAML container-configuration file, then overlays any
// matching environment variables loaded via a .env file (if envFile is
// non-empty and exists) or the process environment, following the
// dotenv-overlay pattern: file values win as defaults, environment values
// win as overrides. Recognised environment variables are
// GINJECT_BUILD_TIMEOUT, GINJECT_DEFAULT_SCOPE, and GINJECT_LOG_LEVEL.
func LoadConfig(yamlPath string, envFile string) (*ContainerConfig, error) {
	cfg := &ContainerConfig{}

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		} else {
			var raw rawContainerConfig
			if err := yaml.Unmarshal(data, &raw); err != nil {
				return nil, err
			}
			if raw.BuildTimeout != "" {
				d, err := time.ParseDuration(raw.BuildTimeout)
				if err != nil {
					return nil, err
				}
				cfg.BuildTimeout = d
			}
			cfg.DefaultScope = raw.DefaultScope
			cfg.LogLevel = raw.LogLevel
		}
	}

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, err
			}
		}
	}

	if v := os.Getenv("GINJECT_BUILD_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.BuildTimeout = d
		}
	}
	if v := os.Getenv("GINJECT_DEFAULT_SCOPE"); v != "" {
		cfg.DefaultScope = v
	}
	if v := os.Getenv("GINJECT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg, nil
}

// buildTimeoutOr returns cfg's BuildTimeout, or fallback if cfg is nil or
// unset (zero).
func (cfg *ContainerConfig) buildTimeoutOr(fallback time.Duration) time.Duration {
	if cfg == nil || cfg.BuildTimeout == 0 {
		return fallback
	}
	return cfg.BuildTimeout
}

// parseBoolEnv reads a boolean-shaped environment variable, defaulting to
// def if unset or unparseable — used by tests exercising the env-overlay
// path without needing a real .env file.
func parseBoolEnv(name string, def bool) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
