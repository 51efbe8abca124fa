package stt

import (
	"context"
	"fmt"
	"time"

	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/config"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/logging"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers"
)

// Request carries one assembled audio segment to a speech recognizer.
type Request struct {
	Audio    []byte
	Language string
}

// Result is a transcription. Interim results carry Final=false and never
// advance the pipeline past the transcription event.
type Result struct {
	Text       string
	Confidence float64
	Final      bool
	Timestamp  time.Time
}

// Provider transcribes one audio segment per call.
type Provider interface {
	providers.Adapter
	Transcribe(ctx context.Context, req Request) (Result, error)
}

// Factory builds an STT provider from its config section.
type Factory func(name string, cfg config.STTConfig, logger *logging.Logger) (Provider, error)

var factories = make(map[string]Factory)

// Register registers an STT provider factory under a type name.
func Register(typ string, factory Factory) {
	factories[typ] = factory
}

// Create builds an STT provider instance for the configured type.
func Create(name string, cfg config.STTConfig, logger *logging.Logger) (Provider, error) {
	factory, ok := factories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unknown STT provider type: %s", cfg.Type)
	}

	provider, err := factory(name, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create STT provider %s: %w", name, err)
	}
	return provider, nil
}
