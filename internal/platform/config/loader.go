package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Loader reads configuration from a yaml file with environment overrides.
type Loader struct {
	useDotEnv bool
	paths     []string
}

// NewLoader creates a loader searching the conventional config locations.
func NewLoader() *Loader {
	return &Loader{
		useDotEnv: true,
		paths:     []string{".config.yaml", "config.yaml", "configs/config.yaml"},
	}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// WithPaths overrides the search paths (useful for tests).
func (l *Loader) WithPaths(paths ...string) *Loader {
	if len(paths) > 0 {
		l.paths = paths
	}
	return l
}

// Result captures the loaded configuration and its origin path. Path is empty
// when the defaults were used.
type Result struct {
	Config *Config
	Path   string
}

// Load reads the first config file found, falling back to DefaultConfig, and
// applies environment variable overrides on top.
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		if err := godotenv.Load(); err != nil {
			fmt.Println("no .env file found, using system environment")
		}
	}

	cfg := DefaultConfig()
	path := ""
	for _, candidate := range l.paths {
		data, err := os.ReadFile(candidate)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", candidate, err)
		}
		path = candidate
		break
	}

	l.applyEnv(cfg)

	if err := l.validate(cfg); err != nil {
		return nil, err
	}

	return &Result{Config: cfg, Path: path}, nil
}

// applyEnv fills credentials from the environment so api keys never need to
// live in the config file.
func (l *Loader) applyEnv(cfg *Config) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		for name, c := range cfg.STT {
			if c.Type == "openai" && c.APIKey == "" {
				c.APIKey = key
				cfg.STT[name] = c
			}
		}
		for name, c := range cfg.Translation {
			if c.Type == "openai" && c.APIKey == "" {
				c.APIKey = key
				cfg.Translation[name] = c
			}
		}
		for name, c := range cfg.TTS {
			if c.Type == "openai" && c.APIKey == "" {
				c.APIKey = key
				cfg.TTS[name] = c
			}
		}
	}

	if secret := os.Getenv("AUTH_SECRET"); secret != "" {
		cfg.Server.Auth.Secret = secret
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Glossary.Redis.Addr = addr
	}
}

func (l *Loader) validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", cfg.Server.Port)
	}
	if cfg.Web.Enabled && (cfg.Web.Port <= 0 || cfg.Web.Port > 65535) {
		return fmt.Errorf("invalid web port: %d", cfg.Web.Port)
	}
	if cfg.Audio.SilenceThresholdBytes < 0 {
		return fmt.Errorf("invalid silence threshold: %d", cfg.Audio.SilenceThresholdBytes)
	}
	if cfg.Audio.MinSegmentBytes <= 0 {
		return fmt.Errorf("invalid min segment bytes: %d", cfg.Audio.MinSegmentBytes)
	}
	if cfg.Context.MaxExchanges <= 0 {
		return fmt.Errorf("invalid context max exchanges: %d", cfg.Context.MaxExchanges)
	}
	if len(cfg.Selected.STT) == 0 || len(cfg.Selected.Translation) == 0 || len(cfg.Selected.TTS) == 0 {
		return fmt.Errorf("each capability needs at least one selected provider")
	}
	if cfg.Server.Auth.Enabled && cfg.Server.Auth.Secret == "" {
		return fmt.Errorf("auth enabled but no secret configured")
	}
	return nil
}
