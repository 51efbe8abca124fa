package translate

import (
	"context"
	"fmt"

	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/config"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/logging"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers"
)

// Exchange is one prior source/translation pair included for context.
type Exchange struct {
	Source     string
	Translated string
}

// Prompt carries the bounded conversation history and glossary a provider
// should honor. Built by the translation context; read-only here.
type Prompt struct {
	History  []Exchange
	Glossary map[string]string
}

// Request asks for one translation.
type Request struct {
	Text           string
	SourceLanguage string
	TargetLanguage string
	Prompt         Prompt
}

// Result is one translation.
type Result struct {
	Text       string
	Confidence float64
}

// Provider translates one text per call.
type Provider interface {
	providers.Adapter
	Translate(ctx context.Context, req Request) (Result, error)
}

// Factory builds a translation provider from its config section.
type Factory func(name string, cfg config.TranslationConfig, logger *logging.Logger) (Provider, error)

var factories = make(map[string]Factory)

// Register registers a translation provider factory under a type name.
func Register(typ string, factory Factory) {
	factories[typ] = factory
}

// Create builds a translation provider instance for the configured type.
func Create(name string, cfg config.TranslationConfig, logger *logging.Logger) (Provider, error) {
	factory, ok := factories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unknown translation provider type: %s", cfg.Type)
	}

	provider, err := factory(name, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create translation provider %s: %w", name, err)
	}
	return provider, nil
}
