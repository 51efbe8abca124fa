// Package edge implements speech synthesis over the Microsoft Edge TTS
// service. It needs no credentials, which makes it the free middle tier
// between the OpenAI adapter and the offline mock.
package edge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wujunwei928/edge-tts-go/edge_tts"

	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/config"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/logging"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers/tts"
)

func init() {
	tts.Register("edge", NewProvider)
}

// defaultVoices picks a neural voice per target language when the session
// has no voice profile selected.
var defaultVoices = map[string]string{
	"en": "en-US-AriaNeural",
	"es": "es-ES-ElviraNeural",
	"fr": "fr-FR-DeniseNeural",
	"de": "de-DE-KatjaNeural",
	"it": "it-IT-ElsaNeural",
	"pt": "pt-BR-FranciscaNeural",
	"ja": "ja-JP-NanamiNeural",
	"ko": "ko-KR-SunHiNeural",
	"zh": "zh-CN-XiaoxiaoNeural",
	"ar": "ar-SA-ZariyahNeural",
	"hi": "hi-IN-SwaraNeural",
	"ru": "ru-RU-SvetlanaNeural",
}

type Provider struct {
	name   string
	cfg    config.TTSConfig
	logger *logging.Logger
}

func NewProvider(name string, cfg config.TTSConfig, logger *logging.Logger) (tts.Provider, error) {
	if cfg.Format == "" {
		cfg.Format = "mp3"
	}
	return &Provider{name: name, cfg: cfg, logger: logger}, nil
}

func (p *Provider) Name() string { return p.name }

// Available is always true: the Edge endpoint requires no credentials.
func (p *Provider) Available() bool { return true }

func (p *Provider) Initialize() error { return nil }

func (p *Provider) Cleanup() error { return nil }

func (p *Provider) Synthesize(ctx context.Context, req tts.Request) (tts.Result, error) {
	if strings.TrimSpace(req.Text) == "" {
		return tts.Result{}, fmt.Errorf("empty text")
	}

	voice := p.resolveVoice(req)

	communicate, err := edge_tts.NewCommunicate(req.Text, edge_tts.SetVoice(voice))
	if err != nil {
		return tts.Result{}, fmt.Errorf("create edge tts communicator: %w", err)
	}

	type output struct {
		audio []byte
		err   error
	}
	done := make(chan output, 1)
	start := time.Now()
	go func() {
		audio, err := communicate.Stream()
		done <- output{audio: audio, err: err}
	}()

	select {
	case <-ctx.Done():
		return tts.Result{}, ctx.Err()
	case out := <-done:
		if out.err != nil {
			return tts.Result{}, fmt.Errorf("edge tts synthesis failed: %w", out.err)
		}
		if p.logger != nil {
			p.logger.DebugTag("TTS", "edge synthesized %d bytes with %s in %v",
				len(out.audio), voice, time.Since(start))
		}
		return tts.Result{Audio: out.audio, Format: p.cfg.Format}, nil
	}
}

func (p *Provider) resolveVoice(req tts.Request) string {
	if req.Voice != "" {
		return req.Voice
	}
	if p.cfg.Voice != "" {
		return p.cfg.Voice
	}

	lang := strings.ToLower(req.Language)
	if idx := strings.IndexByte(lang, '-'); idx > 0 {
		lang = lang[:idx]
	}
	if voice, ok := defaultVoices[lang]; ok {
		return voice
	}
	return defaultVoices["en"]
}
