// Package openai implements speech recognition over the OpenAI transcription
// API (whisper family models).
package openai

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/config"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/logging"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers/stt"
)

func init() {
	stt.Register("openai", NewProvider)
}

// Provider calls the OpenAI transcription endpoint once per segment.
type Provider struct {
	name   string
	cfg    config.STTConfig
	client *openai.Client
	logger *logging.Logger
}

// NewProvider builds the adapter. The client is created eagerly; Available
// still gates use on credential presence.
func NewProvider(name string, cfg config.STTConfig, logger *logging.Logger) (stt.Provider, error) {
	if cfg.ModelName == "" {
		cfg.ModelName = openai.Whisper1
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	return &Provider{
		name:   name,
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientConfig),
		logger: logger,
	}, nil
}

func (p *Provider) Name() string { return p.name }

// Available reports credential presence only; no network probe.
func (p *Provider) Available() bool { return p.cfg.APIKey != "" }

func (p *Provider) Initialize() error { return nil }

func (p *Provider) Cleanup() error { return nil }

// Transcribe sends the segment as a webm upload and maps the verbose
// response to a final transcription result.
func (p *Provider) Transcribe(ctx context.Context, req stt.Request) (stt.Result, error) {
	if len(req.Audio) == 0 {
		return stt.Result{}, fmt.Errorf("empty audio segment")
	}

	start := time.Now()
	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    p.cfg.ModelName,
		FilePath: "segment.webm",
		Reader:   bytes.NewReader(req.Audio),
		Language: req.Language,
		Format:   openai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return stt.Result{}, err
	}

	if p.logger != nil {
		p.logger.DebugTag("STT", "openai transcribed %d bytes in %v", len(req.Audio), time.Since(start))
	}

	return stt.Result{
		Text:       resp.Text,
		Confidence: confidenceFromSegments(resp),
		Final:      true,
		Timestamp:  time.Now(),
	}, nil
}

// confidenceFromSegments derives a 0..1 confidence from the per-segment
// average log probabilities; the API has no top-level confidence field.
func confidenceFromSegments(resp openai.AudioResponse) float64 {
	if len(resp.Segments) == 0 {
		return 0.9
	}

	var sum float64
	for _, segment := range resp.Segments {
		sum += math.Exp(segment.AvgLogprob)
	}
	confidence := sum / float64(len(resp.Segments))
	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0 {
		confidence = 0
	}
	return confidence
}
