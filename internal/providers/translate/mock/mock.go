// Package mock provides an offline translation adapter that echoes the
// source text with a language marker. Glossary terms are still applied so
// context behavior stays observable without credentials.
package mock

import (
	"context"
	"fmt"
	"strings"

	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/config"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/logging"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers/translate"
)

func init() {
	translate.Register("mock", NewProvider)
}

type Provider struct {
	name string
}

func NewProvider(name string, cfg config.TranslationConfig, logger *logging.Logger) (translate.Provider, error) {
	return &Provider{name: name}, nil
}

func (p *Provider) Name() string { return p.name }

func (p *Provider) Available() bool { return true }

func (p *Provider) Initialize() error { return nil }

func (p *Provider) Cleanup() error { return nil }

func (p *Provider) Translate(ctx context.Context, req translate.Request) (translate.Result, error) {
	if err := ctx.Err(); err != nil {
		return translate.Result{}, err
	}

	text := req.Text
	for term, replacement := range req.Prompt.Glossary {
		text = strings.ReplaceAll(text, term, replacement)
	}

	return translate.Result{
		Text:       fmt.Sprintf("[%s] %s", req.TargetLanguage, text),
		Confidence: 1.0,
	}, nil
}
