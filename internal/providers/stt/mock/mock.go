// Package mock provides an offline STT adapter. It sits last in the
// preference order so the pipeline keeps producing events without any
// upstream credentials.
package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/config"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/logging"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers/stt"
)

func init() {
	stt.Register("mock", NewProvider)
}

type Provider struct {
	name string
}

func NewProvider(name string, cfg config.STTConfig, logger *logging.Logger) (stt.Provider, error) {
	return &Provider{name: name}, nil
}

func (p *Provider) Name() string { return p.name }

func (p *Provider) Available() bool { return true }

func (p *Provider) Initialize() error { return nil }

func (p *Provider) Cleanup() error { return nil }

func (p *Provider) Transcribe(ctx context.Context, req stt.Request) (stt.Result, error) {
	if err := ctx.Err(); err != nil {
		return stt.Result{}, err
	}

	return stt.Result{
		Text:       fmt.Sprintf("[mock transcription of %d bytes]", len(req.Audio)),
		Confidence: 1.0,
		Final:      true,
		Timestamp:  time.Now(),
	}, nil
}
