package tts

import (
	"context"
	"fmt"

	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/config"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/logging"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers"
)

// Request asks for synthesis of one translated caption.
type Request struct {
	Text     string
	Language string
	Voice    string
}

// Result carries the synthesized audio. Format is a container hint such as
// "mp3"; consumers that cannot use the format simply skip the audio.
type Result struct {
	Audio  []byte
	Format string
}

// Provider synthesizes one caption per call.
type Provider interface {
	providers.Adapter
	Synthesize(ctx context.Context, req Request) (Result, error)
}

// Factory builds a TTS provider from its config section.
type Factory func(name string, cfg config.TTSConfig, logger *logging.Logger) (Provider, error)

var factories = make(map[string]Factory)

// Register registers a TTS provider factory under a type name.
func Register(typ string, factory Factory) {
	factories[typ] = factory
}

// Create builds a TTS provider instance for the configured type.
func Create(name string, cfg config.TTSConfig, logger *logging.Logger) (Provider, error) {
	factory, ok := factories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unknown TTS provider type: %s", cfg.Type)
	}

	provider, err := factory(name, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create TTS provider %s: %w", name, err)
	}
	return provider, nil
}
