// Package mock provides an offline TTS adapter that returns no audio.
// Synthesis is best-effort in the pipeline, so an empty result is a valid
// success and exercises the audio-absent path end to end.
package mock

import (
	"context"

	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/config"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/logging"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers/tts"
)

func init() {
	tts.Register("mock", NewProvider)
}

type Provider struct {
	name string
}

func NewProvider(name string, cfg config.TTSConfig, logger *logging.Logger) (tts.Provider, error) {
	return &Provider{name: name}, nil
}

func (p *Provider) Name() string { return p.name }

func (p *Provider) Available() bool { return true }

func (p *Provider) Initialize() error { return nil }

func (p *Provider) Cleanup() error { return nil }

func (p *Provider) Synthesize(ctx context.Context, req tts.Request) (tts.Result, error) {
	if err := ctx.Err(); err != nil {
		return tts.Result{}, err
	}
	return tts.Result{Format: "mp3"}, nil
}
