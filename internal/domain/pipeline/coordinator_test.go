package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/domain/glossary"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/domain/session"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/errors"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/logging"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers/stt"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers/translate"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/providers/tts"
)

type fakeBase struct {
	name string
}

func (f *fakeBase) Name() string      { return f.name }
func (f *fakeBase) Available() bool   { return true }
func (f *fakeBase) Initialize() error { return nil }
func (f *fakeBase) Cleanup() error    { return nil }

type fakeSTT struct {
	fakeBase
	final    bool
	fail     bool
	delay    time.Duration
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	calls    atomic.Int32
}

func (f *fakeSTT) Transcribe(ctx context.Context, req stt.Request) (stt.Result, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		prev := f.maxSeen.Load()
		if n <= prev || f.maxSeen.CompareAndSwap(prev, n) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return stt.Result{}, ctx.Err()
		}
	}
	if f.fail {
		return stt.Result{}, fmt.Errorf("stt unavailable")
	}
	call := f.calls.Add(1)
	return stt.Result{
		Text:       fmt.Sprintf("utterance %d (%d bytes)", call, len(req.Audio)),
		Confidence: 0.9,
		Final:      f.final,
		Timestamp:  time.Now(),
	}, nil
}

type fakeTranslate struct {
	fakeBase
	fail bool
}

func (f *fakeTranslate) Translate(ctx context.Context, req translate.Request) (translate.Result, error) {
	if f.fail {
		return translate.Result{}, fmt.Errorf("translate unavailable")
	}
	return translate.Result{
		Text:       "[" + req.TargetLanguage + "] " + req.Text,
		Confidence: 0.85,
	}, nil
}

type fakeTTS struct {
	fakeBase
	fail bool
}

func (f *fakeTTS) Synthesize(ctx context.Context, req tts.Request) (tts.Result, error) {
	if f.fail {
		return tts.Result{}, fmt.Errorf("tts unavailable")
	}
	return tts.Result{Audio: []byte{0x01, 0x02, 0x03}, Format: "raw"}, nil
}

type recordedError struct {
	stage string
	err   error
}

type recordingListener struct {
	mu             sync.Mutex
	transcriptions []Transcription
	translations   []Translation
	errs           []recordedError
}

func (l *recordingListener) OnTranscription(_ *session.Session, tr Transcription) {
	l.mu.Lock()
	l.transcriptions = append(l.transcriptions, tr)
	l.mu.Unlock()
}

func (l *recordingListener) OnTranslation(_ *session.Session, tr Translation) {
	l.mu.Lock()
	l.translations = append(l.translations, tr)
	l.mu.Unlock()
}

func (l *recordingListener) OnPipelineError(_ *session.Session, stage string, err error) {
	l.mu.Lock()
	l.errs = append(l.errs, recordedError{stage: stage, err: err})
	l.mu.Unlock()
}

func (l *recordingListener) counts() (int, int, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.transcriptions), len(l.translations), len(l.errs)
}

func newTestLogger(t *testing.T) *logging.Logger {
	t.Helper()
	logger, err := logging.New(logging.Config{
		Level:    "error",
		Dir:      t.TempDir(),
		Filename: "test.log",
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = logger.Close()
	})
	return logger
}

type fixture struct {
	coordinator *Coordinator
	listener    *recordingListener
	manager     *session.Manager
	session     *session.Session
	sttAdapter  *fakeSTT
}

func newFixture(t *testing.T, sttAdapter *fakeSTT, translateAdapter *fakeTranslate, ttsAdapter *fakeTTS) *fixture {
	t.Helper()
	logger := newTestLogger(t)

	registry := providers.NewRegistry(logger)
	require.NoError(t, registry.Register(providers.CapabilitySTT, sttAdapter))
	require.NoError(t, registry.Register(providers.CapabilityTranslation, translateAdapter))
	require.NoError(t, registry.Register(providers.CapabilityTTS, ttsAdapter))

	manager := session.NewManager(session.Options{}, glossary.NewMemory(), logger)
	manager.Connect("conn-1")
	s, err := manager.StartSession(context.Background(), "conn-1", "s1", "en", "es")
	require.NoError(t, err)

	listener := &recordingListener{}
	coordinator := NewCoordinator(Options{
		STTTimeout:       time.Second,
		TranslateTimeout: time.Second,
		TTSTimeout:       time.Second,
	}, registry, listener, logger)

	return &fixture{
		coordinator: coordinator,
		listener:    listener,
		manager:     manager,
		session:     s,
		sttAdapter:  sttAdapter,
	}
}

func TestRunFullSequence(t *testing.T) {
	f := newFixture(t,
		&fakeSTT{fakeBase: fakeBase{name: "stt"}, final: true},
		&fakeTranslate{fakeBase: fakeBase{name: "translate"}},
		&fakeTTS{fakeBase: fakeBase{name: "tts"}},
	)

	f.coordinator.Run(f.session, []byte("audio-segment"))

	require.Eventually(t, func() bool {
		_, translations, _ := f.listener.counts()
		return translations == 1
	}, time.Second, 5*time.Millisecond)

	f.listener.mu.Lock()
	defer f.listener.mu.Unlock()

	require.Len(t, f.listener.transcriptions, 1)
	transcription := f.listener.transcriptions[0]
	assert.True(t, transcription.IsFinal)
	assert.NotEmpty(t, transcription.CaptionID)

	translation := f.listener.translations[0]
	assert.Equal(t, transcription.CaptionID, translation.CaptionID)
	assert.Contains(t, translation.Text, "[es]")
	assert.NotEmpty(t, translation.Audio)
	assert.Empty(t, f.listener.errs)

	assert.Equal(t, 1, f.session.Translation().HistoryLen())
	assert.Equal(t, 0, f.session.RunsInFlight())
}

func TestInterimTranscriptionStopsAfterStageOne(t *testing.T) {
	f := newFixture(t,
		&fakeSTT{fakeBase: fakeBase{name: "stt"}, final: false},
		&fakeTranslate{fakeBase: fakeBase{name: "translate"}},
		&fakeTTS{fakeBase: fakeBase{name: "tts"}},
	)

	f.coordinator.Run(f.session, []byte("audio"))

	require.Eventually(t, func() bool {
		transcriptions, _, _ := f.listener.counts()
		return transcriptions == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	transcriptions, translations, errs := f.listener.counts()
	assert.Equal(t, 1, transcriptions)
	assert.Equal(t, 0, translations)
	assert.Equal(t, 0, errs)
	assert.Equal(t, 0, f.session.Translation().HistoryLen())
}

func TestSTTExhaustionEmitsError(t *testing.T) {
	f := newFixture(t,
		&fakeSTT{fakeBase: fakeBase{name: "stt"}, fail: true},
		&fakeTranslate{fakeBase: fakeBase{name: "translate"}},
		&fakeTTS{fakeBase: fakeBase{name: "tts"}},
	)

	f.coordinator.Run(f.session, []byte("audio"))

	require.Eventually(t, func() bool {
		_, _, errs := f.listener.counts()
		return errs == 1
	}, time.Second, 5*time.Millisecond)

	f.listener.mu.Lock()
	defer f.listener.mu.Unlock()
	assert.Equal(t, "stt", f.listener.errs[0].stage)
	assert.True(t, errors.IsKind(f.listener.errs[0].err, errors.KindProvidersExhausted))
	assert.Empty(t, f.listener.transcriptions)
	assert.Empty(t, f.listener.translations)
}

func TestTTSFailureStillEmitsTranslation(t *testing.T) {
	f := newFixture(t,
		&fakeSTT{fakeBase: fakeBase{name: "stt"}, final: true},
		&fakeTranslate{fakeBase: fakeBase{name: "translate"}},
		&fakeTTS{fakeBase: fakeBase{name: "tts"}, fail: true},
	)

	f.coordinator.Run(f.session, []byte("audio"))

	require.Eventually(t, func() bool {
		_, translations, _ := f.listener.counts()
		return translations == 1
	}, time.Second, 5*time.Millisecond)

	f.listener.mu.Lock()
	defer f.listener.mu.Unlock()
	require.Len(t, f.listener.errs, 1)
	assert.Equal(t, "tts", f.listener.errs[0].stage)
	assert.Empty(t, f.listener.translations[0].Audio)
	assert.Contains(t, f.listener.translations[0].Text, "[es]")
}

func TestRunsSerializedPerSession(t *testing.T) {
	sttAdapter := &fakeSTT{fakeBase: fakeBase{name: "stt"}, final: true, delay: 20 * time.Millisecond}
	f := newFixture(t,
		sttAdapter,
		&fakeTranslate{fakeBase: fakeBase{name: "translate"}},
		&fakeTTS{fakeBase: fakeBase{name: "tts"}},
	)

	const segments = 6
	for i := 0; i < segments; i++ {
		f.coordinator.Run(f.session, []byte{byte(i + 1)})
	}

	require.Eventually(t, func() bool {
		_, translations, _ := f.listener.counts()
		return translations == segments
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, int32(1), sttAdapter.maxSeen.Load())
	assert.Equal(t, 0, f.coordinator.Pending(f.session))
}

func TestStaleGenerationResultsDiscarded(t *testing.T) {
	sttAdapter := &fakeSTT{fakeBase: fakeBase{name: "stt"}, final: true, delay: 60 * time.Millisecond}
	f := newFixture(t,
		sttAdapter,
		&fakeTranslate{fakeBase: fakeBase{name: "translate"}},
		&fakeTTS{fakeBase: fakeBase{name: "tts"}},
	)

	f.coordinator.Run(f.session, []byte("audio"))

	require.Eventually(t, func() bool {
		return f.session.RunsInFlight() == 1
	}, time.Second, time.Millisecond)
	require.NoError(t, f.manager.StopSession("conn-1"))

	require.Eventually(t, func() bool {
		return f.session.RunsInFlight() == 0
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	transcriptions, translations, errs := f.listener.counts()
	assert.Equal(t, 0, transcriptions)
	assert.Equal(t, 0, translations)
	assert.Equal(t, 0, errs)
}

func TestDropClearsQueue(t *testing.T) {
	sttAdapter := &fakeSTT{fakeBase: fakeBase{name: "stt"}, final: true, delay: 50 * time.Millisecond}
	f := newFixture(t,
		sttAdapter,
		&fakeTranslate{fakeBase: fakeBase{name: "translate"}},
		&fakeTTS{fakeBase: fakeBase{name: "tts"}},
	)

	f.coordinator.Run(f.session, []byte("one"))
	f.coordinator.Run(f.session, []byte("two"))
	f.coordinator.Run(f.session, []byte("three"))
	assert.Equal(t, 2, f.coordinator.Pending(f.session))

	f.coordinator.Drop(f.session)
	assert.Equal(t, 0, f.coordinator.Pending(f.session))

	require.Eventually(t, func() bool {
		return f.session.RunsInFlight() == 0
	}, time.Second, 5*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	_, translations, _ := f.listener.counts()
	assert.Equal(t, 1, translations)
}

func TestProbeMP3DurationRejectsJunk(t *testing.T) {
	assert.Equal(t, time.Duration(0), probeMP3Duration(nil, "mp3"))
	assert.Equal(t, time.Duration(0), probeMP3Duration([]byte{1, 2, 3}, "mp3"))
	assert.Equal(t, time.Duration(0), probeMP3Duration([]byte{1, 2, 3}, "wav"))
}
