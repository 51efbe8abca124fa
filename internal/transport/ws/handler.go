package ws

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/domain/audio"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/domain/pipeline"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/domain/session"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/domain/voice"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/errors"
	"github.com/Natanel-solomonov/TranslatorJHU-Backend/internal/platform/logging"
)

// HandlerDeps bundles the domain services a handler drives.
type HandlerDeps struct {
	Manager     *session.Manager
	Segmenter   *audio.Segmenter
	Coordinator *pipeline.Coordinator
	Dispatcher  *Dispatcher
	Voices      *voice.Store // optional
	Logger      *logging.Logger

	// MinSegmentBytes gates the early flush taken on a client silence hint.
	MinSegmentBytes int
}

// Handler demultiplexes one connection's traffic: binary frames feed the
// segmenter, JSON control frames drive the session state machine. It also
// receives pipeline results for its connection and forwards them outbound.
type Handler struct {
	conn *Connection
	deps HandlerDeps
	sess *session.Session

	closeOnce sync.Once
}

// NewHandler registers the connection with the session manager and sends the
// initial connected event.
func NewHandler(conn *Connection, deps HandlerDeps) (*Handler, error) {
	h := &Handler{
		conn: conn,
		deps: deps,
	}
	h.sess = deps.Manager.Connect(conn.ID())
	deps.Dispatcher.Attach(conn.ID(), h)

	if err := h.send(EventConnected, ConnectedData{ClientID: conn.ID()}); err != nil {
		deps.Dispatcher.Detach(conn.ID())
		deps.Manager.Disconnect(conn.ID())
		return nil, err
	}
	return h, nil
}

// ConnectionID implements SessionHandler.
func (h *Handler) ConnectionID() string {
	return h.conn.ID()
}

// Handle runs the read loop until the connection drops.
func (h *Handler) Handle() {
	for {
		messageType, payload, err := h.conn.ReadMessage()
		if err != nil {
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			h.handleAudioFrame(payload)
		case websocket.TextMessage:
			h.handleControl(payload)
		}
	}
}

// Close tears down the connection's session state. Idempotent; called from
// the session lifecycle on read-loop exit and on server shutdown.
func (h *Handler) Close() {
	h.closeOnce.Do(func() {
		connID := h.conn.ID()
		h.deps.Dispatcher.Detach(connID)
		h.deps.Segmenter.Close(connID)
		h.deps.Coordinator.Drop(h.sess)
		h.deps.Manager.Disconnect(connID)
	})
}

func (h *Handler) handleAudioFrame(frame []byte) {
	if !h.sess.Recording() {
		return
	}
	h.sess.Touch()
	h.deps.Segmenter.Ingest(h.conn.ID(), frame)
}

// handleControl decodes and dispatches one JSON control frame. Errors are
// reported to the client as error events; the connection always stays open.
func (h *Handler) handleControl(payload []byte) {
	event, err := DecodeClientMessage(payload)
	if err != nil {
		h.sendError(err)
		return
	}

	switch ev := event.(type) {
	case SessionStart:
		h.onSessionStart(ev)
	case SessionStop:
		h.onSessionStop()
	case AudioStart:
		h.onAudioStart()
	case AudioStop:
		h.onAudioStop()
	case AudioSilence:
		h.onAudioSilence()
	case ConfigUpdate:
		h.onConfigUpdate(ev)
	}
}

func (h *Handler) onSessionStart(ev SessionStart) {
	s, err := h.deps.Manager.StartSession(context.Background(), h.conn.ID(),
		ev.SessionID, ev.SourceLanguage, ev.TargetLanguage)
	if err != nil {
		h.sendError(err)
		return
	}

	// Fresh session, fresh fallback state: queued segments and sticky or
	// degraded provider markings from the previous session do not carry over.
	h.deps.Coordinator.Drop(s)
	h.deps.Segmenter.Open(h.conn.ID())
	source, target := s.Languages()
	h.sendOrLog(EventSessionStarted, SessionStartedData{
		SessionID:      s.ID(),
		SourceLanguage: source,
		TargetLanguage: target,
	})
}

func (h *Handler) onSessionStop() {
	if err := h.deps.Manager.StopSession(h.conn.ID()); err != nil {
		h.sendError(err)
		return
	}
	h.deps.Coordinator.Drop(h.sess)
	h.deps.Segmenter.Close(h.conn.ID())
	h.sendOrLog(EventSessionStopped, nil)
}

func (h *Handler) onAudioStart() {
	if err := h.deps.Manager.StartAudio(h.conn.ID()); err != nil {
		h.sendError(err)
		return
	}
	h.deps.Segmenter.Open(h.conn.ID())
	h.sendOrLog(EventAudioStarted, nil)
}

// onAudioStop ends the recording turn. The user explicitly ended the turn,
// so the buffered segment is flushed even below the minimum size gate.
func (h *Handler) onAudioStop() {
	if err := h.deps.Manager.StopAudio(h.conn.ID()); err != nil {
		h.sendError(err)
		return
	}

	if segment := h.deps.Segmenter.ForceFlush(h.conn.ID()); len(segment) > 0 {
		h.deps.Coordinator.Run(h.sess, segment)
	}
	h.sendOrLog(EventAudioStopped, nil)
}

// onAudioSilence handles the client's silence hint by flushing early, but
// only when the buffer already holds a viable segment. Sub-threshold buffers
// wait for the inactivity timer like any other pause.
func (h *Handler) onAudioSilence() {
	if !h.sess.Recording() {
		return
	}
	h.sess.Touch()

	if h.deps.Segmenter.Buffered(h.conn.ID()) < h.deps.MinSegmentBytes {
		return
	}
	if segment := h.deps.Segmenter.ForceFlush(h.conn.ID()); len(segment) > 0 {
		h.deps.Coordinator.Run(h.sess, segment)
	}
}

func (h *Handler) onConfigUpdate(ev ConfigUpdate) {
	voiceID := ev.Voice
	if voiceID == "" && ev.VoiceProfile != "" && h.deps.Voices != nil {
		profile, err := h.deps.Voices.Get(context.Background(), ev.VoiceProfile)
		if err != nil {
			h.sendError(err)
			return
		}
		voiceID = profile.Voice
	}

	s, err := h.deps.Manager.UpdateConfig(context.Background(), h.conn.ID(),
		ev.SourceLanguage, ev.TargetLanguage, voiceID, ev.Glossary)
	if err != nil {
		h.sendError(err)
		return
	}

	source, target := s.Languages()
	h.sendOrLog(EventConfigUpdated, ConfigUpdatedData{
		SourceLanguage: source,
		TargetLanguage: target,
		Voice:          s.Voice(),
	})
}

// OnTranscription implements pipeline.Listener.
func (h *Handler) OnTranscription(_ *session.Session, tr pipeline.Transcription) {
	h.sendOrLog(EventTranscription, TranscriptionData{
		ID:         tr.CaptionID,
		Text:       tr.Text,
		Confidence: tr.Confidence,
		IsFinal:    tr.IsFinal,
		Timestamp:  tr.Timestamp.UnixMilli(),
	})
}

// OnTranslation implements pipeline.Listener.
func (h *Handler) OnTranslation(_ *session.Session, tr pipeline.Translation) {
	h.sendOrLog(EventTranslation, TranslationData{
		CaptionID:      tr.CaptionID,
		TranslatedText: tr.Text,
		Confidence:     tr.Confidence,
		AudioData:      tr.Audio,
		AudioFormat:    tr.AudioFormat,
		DurationMs:     tr.AudioDuration.Milliseconds(),
	})
}

// OnPipelineError implements pipeline.Listener.
func (h *Handler) OnPipelineError(_ *session.Session, stage string, err error) {
	h.sendError(err)
}

func (h *Handler) send(eventType string, data any) error {
	payload, err := EncodeServerEvent(eventType, data)
	if err != nil {
		return err
	}
	return h.conn.WriteMessage(websocket.TextMessage, payload)
}

func (h *Handler) sendOrLog(eventType string, data any) {
	if err := h.send(eventType, data); err != nil && h.deps.Logger != nil {
		h.deps.Logger.WarnTag("WebSocket", "send %s to %s failed: %v", eventType, h.conn.ID(), err)
	}
}

func (h *Handler) sendError(cause error) {
	data := ErrorData{Error: cause.Error()}
	if kind := errors.KindOf(cause); kind != errors.KindUnknown {
		data.Kind = string(kind)
	}
	h.sendOrLog(EventError, data)
}

// EvictCleanup builds the idle-eviction hook that releases transport-side
// resources for a swept session. The connection is expected to be already
// gone; closing it again is a no-op.
func EvictCleanup(deps HandlerDeps, hub *Hub) session.EvictFunc {
	return func(s *session.Session) {
		deps.Dispatcher.Detach(s.ConnID)
		deps.Segmenter.Close(s.ConnID)
		deps.Coordinator.Drop(s)
		if wsSession, ok := hub.Get(s.ConnID); ok {
			wsSession.Close(ErrSessionShutdown)
			hub.Unregister(wsSession)
		}
	}
}
