// Package pipeline chains transcription, translation and synthesis for one
// audio segment, serialized per session.
package pipeline

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	mp3 "github.com/hajimehoshi/go-mp3"

	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/domain/eventbus"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/domain/session"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/logging"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers/stt"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers/translate"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers/tts"
)

// Default stage timeouts when the config leaves them zero.
const (
	DefaultSTTTimeout       = 15 * time.Second
	DefaultTranslateTimeout = 10 * time.Second
	DefaultTTSTimeout       = 15 * time.Second
)

// Transcription is the stage-one result delivered to the listener.
type Transcription struct {
	CaptionID  string
	Text       string
	Confidence float64
	IsFinal    bool
	Timestamp  time.Time
}

// Translation is the final pipeline result. Audio is optional: synthesis is
// a best-effort enhancement and its absence is not an error.
type Translation struct {
	CaptionID     string
	Text          string
	Confidence    float64
	Audio         []byte
	AudioFormat   string
	AudioDuration time.Duration
}

// Listener receives pipeline results. Implementations must not block; the
// transport handler forwards to its outbound write queue.
type Listener interface {
	OnTranscription(s *session.Session, tr Transcription)
	OnTranslation(s *session.Session, tr Translation)
	OnPipelineError(s *session.Session, stage string, err error)
}

// Options bounds each upstream provider call.
type Options struct {
	STTTimeout       time.Duration
	TranslateTimeout time.Duration
	TTSTimeout       time.Duration
}

// Coordinator runs the STT -> Translation -> TTS sequence. At most one run
// executes per session; further segments queue in arrival order.
type Coordinator struct {
	opts     Options
	registry *providers.Registry
	listener Listener
	logger   *logging.Logger

	mu     sync.Mutex
	queues map[string]*segmentQueue
}

type segmentQueue struct {
	running bool
	pending [][]byte
}

// NewCoordinator creates a coordinator delivering results to listener.
func NewCoordinator(opts Options, registry *providers.Registry, listener Listener, logger *logging.Logger) *Coordinator {
	if opts.STTTimeout <= 0 {
		opts.STTTimeout = DefaultSTTTimeout
	}
	if opts.TranslateTimeout <= 0 {
		opts.TranslateTimeout = DefaultTranslateTimeout
	}
	if opts.TTSTimeout <= 0 {
		opts.TTSTimeout = DefaultTTSTimeout
	}
	return &Coordinator{
		opts:     opts,
		registry: registry,
		listener: listener,
		logger:   logger,
		queues:   make(map[string]*segmentQueue),
	}
}

// Run schedules one segment for processing and returns immediately. Results
// arrive through the listener. Segments for a session whose run is still in
// flight are queued behind it, never interleaved.
func (c *Coordinator) Run(s *session.Session, segment []byte) {
	if len(segment) == 0 {
		return
	}

	c.mu.Lock()
	q, ok := c.queues[s.ConnID]
	if !ok {
		q = &segmentQueue{}
		c.queues[s.ConnID] = q
	}
	if q.running {
		q.pending = append(q.pending, segment)
		c.mu.Unlock()
		return
	}
	q.running = true
	c.mu.Unlock()

	go c.drain(s, q, segment)
}

// Drop discards queued segments and fallback state for a session. In-flight
// provider calls finish on their own; their results are discarded by the
// generation check.
func (c *Coordinator) Drop(s *session.Session) {
	c.mu.Lock()
	if q, ok := c.queues[s.ConnID]; ok {
		q.pending = nil
		if !q.running {
			delete(c.queues, s.ConnID)
		}
	}
	c.mu.Unlock()
	c.registry.DropSession(s.ConnID)
}

// Pending reports queued segments for a session, used by tests.
func (c *Coordinator) Pending(s *session.Session) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if q, ok := c.queues[s.ConnID]; ok {
		return len(q.pending)
	}
	return 0
}

func (c *Coordinator) drain(s *session.Session, q *segmentQueue, segment []byte) {
	for {
		c.process(s, segment)

		c.mu.Lock()
		if len(q.pending) == 0 {
			q.running = false
			delete(c.queues, s.ConnID)
			c.mu.Unlock()
			return
		}
		segment = q.pending[0]
		q.pending = q.pending[1:]
		c.mu.Unlock()
	}
}

// process runs the full stage sequence for one segment. The generation
// captured here is compared before every emission so results from a stopped
// session epoch are discarded rather than delivered.
func (c *Coordinator) process(s *session.Session, segment []byte) {
	s.BeginRun()
	defer s.EndRun()

	gen := s.Generation()
	sourceLang, targetLang := s.Languages()
	captionID := uuid.NewString()
	ctx := context.Background()

	var transcribed stt.Result
	err := c.registry.Execute(ctx, providers.CapabilitySTT, s.ConnID, c.opts.STTTimeout,
		func(ctx context.Context, adapter providers.Adapter) error {
			res, err := adapter.(stt.Provider).Transcribe(ctx, stt.Request{
				Audio:    segment,
				Language: sourceLang,
			})
			if err == nil {
				transcribed = res
			}
			return err
		})
	if err != nil {
		c.emitError(s, gen, "stt", err)
		return
	}
	if transcribed.Text == "" {
		return
	}

	if s.Generation() != gen {
		return
	}
	transcription := Transcription{
		CaptionID:  captionID,
		Text:       transcribed.Text,
		Confidence: transcribed.Confidence,
		IsFinal:    transcribed.Final,
		Timestamp:  transcribed.Timestamp,
	}
	c.listener.OnTranscription(s, transcription)
	eventbus.Publish(eventbus.EventTranscription, eventbus.TranscriptionEventData{
		SessionID:  s.ID(),
		CaptionID:  captionID,
		Text:       transcribed.Text,
		Confidence: transcribed.Confidence,
		IsFinal:    transcribed.Final,
	})

	if !transcribed.Final {
		return
	}

	tctx := s.Translation()
	if tctx == nil {
		return
	}

	var translated translate.Result
	err = c.registry.Execute(ctx, providers.CapabilityTranslation, s.ConnID, c.opts.TranslateTimeout,
		func(ctx context.Context, adapter providers.Adapter) error {
			res, err := adapter.(translate.Provider).Translate(ctx, translate.Request{
				Text:           transcribed.Text,
				SourceLanguage: sourceLang,
				TargetLanguage: targetLang,
				Prompt:         tctx.BuildPrompt(transcribed.Text),
			})
			if err == nil {
				translated = res
			}
			return err
		})
	if err != nil {
		c.emitError(s, gen, "translation", err)
		return
	}

	if s.Generation() != gen {
		return
	}
	tctx.AppendExchange(transcribed.Text, translated.Text)

	audio, format, duration := c.synthesize(ctx, s, gen, translated.Text, targetLang)

	if s.Generation() != gen {
		return
	}
	result := Translation{
		CaptionID:     captionID,
		Text:          translated.Text,
		Confidence:    translated.Confidence,
		Audio:         audio,
		AudioFormat:   format,
		AudioDuration: duration,
	}
	c.listener.OnTranslation(s, result)
	eventbus.Publish(eventbus.EventTranslation, eventbus.TranslationEventData{
		SessionID:  s.ID(),
		CaptionID:  captionID,
		Text:       translated.Text,
		Confidence: translated.Confidence,
		HasAudio:   len(audio) > 0,
	})
}

// synthesize runs the best-effort TTS stage. Failure is reported but never
// blocks the translation event.
func (c *Coordinator) synthesize(ctx context.Context, s *session.Session, gen uint64, text, targetLang string) ([]byte, string, time.Duration) {
	var synthesized tts.Result
	err := c.registry.Execute(ctx, providers.CapabilityTTS, s.ConnID, c.opts.TTSTimeout,
		func(ctx context.Context, adapter providers.Adapter) error {
			res, err := adapter.(tts.Provider).Synthesize(ctx, tts.Request{
				Text:     text,
				Language: targetLang,
				Voice:    s.Voice(),
			})
			if err == nil {
				synthesized = res
			}
			return err
		})
	if err != nil {
		c.emitError(s, gen, "tts", err)
		return nil, "", 0
	}

	duration := probeMP3Duration(synthesized.Audio, synthesized.Format)
	return synthesized.Audio, synthesized.Format, duration
}

func (c *Coordinator) emitError(s *session.Session, gen uint64, stage string, err error) {
	if c.logger != nil {
		c.logger.WarnTag("Pipeline", "%s stage failed for session %s: %v", stage, s.ID(), err)
	}
	if s.Generation() != gen {
		return
	}
	c.listener.OnPipelineError(s, stage, err)
	eventbus.Publish(eventbus.EventPipelineError, eventbus.PipelineErrorEventData{
		SessionID: s.ID(),
		Stage:     stage,
		Error:     err.Error(),
	})
}

// probeMP3Duration decodes the mp3 header to report playback length.
// Decoded output is 16-bit stereo regardless of the source channel count.
func probeMP3Duration(audio []byte, format string) time.Duration {
	if format != "mp3" || len(audio) == 0 {
		return 0
	}
	decoder, err := mp3.NewDecoder(bytes.NewReader(audio))
	if err != nil {
		return 0
	}
	sampleRate := decoder.SampleRate()
	if sampleRate <= 0 {
		return 0
	}
	samples := decoder.Length() / 4
	return time.Duration(samples) * time.Second / time.Duration(sampleRate)
}
