// Package openai implements speech synthesis over the OpenAI audio API.
package openai

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/config"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/logging"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers/tts"
)

func init() {
	tts.Register("openai", NewProvider)
}

type Provider struct {
	name   string
	cfg    config.TTSConfig
	client *openai.Client
	logger *logging.Logger
}

func NewProvider(name string, cfg config.TTSConfig, logger *logging.Logger) (tts.Provider, error) {
	if cfg.ModelName == "" {
		cfg.ModelName = string(openai.TTSModel1)
	}
	if cfg.Voice == "" {
		cfg.Voice = string(openai.VoiceAlloy)
	}
	if cfg.Format == "" {
		cfg.Format = "mp3"
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

func (p *Provider) Available() bool { return p.cfg.APIKey != "" }

func (p *Provider) Initialize() error { return nil }

func (p *Provider) Cleanup() error { return nil }

func (p *Provider) Synthesize(ctx context.Context, req tts.Request) (tts.Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return tts.Result{}, fmt.Errorf("empty text")
	}

	voice := req.Voice
	if voice == "" {
		voice = p.cfg.Voice
	}

	start := time.Now()
	resp, err := p.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(p.cfg.ModelName),
		Input:          req.Text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormat(p.cfg.Format),
	})
	if err != nil {
		return tts.Result{}, err
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return tts.Result{}, fmt.Errorf("read synthesized audio: %w", err)
	}

	if p.logger != nil {
		p.logger.DebugTag("TTS", "openai synthesized %d bytes in %v", len(audio), time.Since(start))
	}

	return tts.Result{
		Audio:  audio,
		Format: p.cfg.Format,
	}, nil
}
